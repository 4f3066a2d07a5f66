package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/photosync/internal/camera"
	"github.com/dmitrijs2005/photosync/internal/mediastore"
	"github.com/dmitrijs2005/photosync/internal/postprocess"
	"github.com/dmitrijs2005/photosync/internal/upload"
)

// CaptureResult is one photo taken on the capture screen.
type CaptureResult struct {
	Ref      mediastore.ImageReference
	Image    *postprocess.ProcessedImage
	Transfer *Transfer
}

// CaptureScreen owns the camera worker and session while it is shown.
type CaptureScreen struct {
	shell   *Shell
	worker  *camera.Worker
	session *camera.Session

	finishOnce sync.Once

	mu       sync.Mutex
	added    []mediastore.ImageReference
	finished bool
}

func newCaptureScreen(s *Shell) *CaptureScreen {
	w := camera.NewWorker("camera", s.d.Logger)
	rot := s.d.DisplayRotation
	return &CaptureScreen{
		shell:  s,
		worker: w,
		session: camera.NewSession(camera.SessionConfig{
			Manager:         s.d.Cameras,
			Worker:          w,
			Logger:          s.d.Logger,
			CameraGranted:   s.d.Caps.CameraGranted,
			DisplayRotation: func() camera.Rotation { return rot },
		}),
	}
}

func (c *CaptureScreen) start(ctx context.Context) error {
	c.worker.Start()
	if err := c.session.Open(ctx, camera.ByIndex(c.shell.d.CameraIndex)); err != nil {
		return err
	}
	if c.shell.d.Surface != nil {
		if err := c.session.AttachPreview(ctx, c.shell.d.Surface); err != nil {
			return err
		}
	}
	return nil
}

// Session exposes the camera session, mostly for status display.
func (c *CaptureScreen) Session() *camera.Session { return c.session }

// Capture takes one photo: capture, post-process, record in the index and
// start uploading the compressed bytes.
func (c *CaptureScreen) Capture(ctx context.Context) (*CaptureResult, error) {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		return nil, ErrCameraClosed
	}
	c.mu.Unlock()

	d := c.shell.d

	img, err := c.session.Capture(ctx)
	if err != nil {
		return nil, err
	}

	processed, err := d.Processor.Process(ctx, img)
	if err != nil {
		return nil, err
	}

	ref := mediastore.ImageReference{Path: processed.Path, TakenAt: d.now()}
	if d.Index != nil {
		if err := d.Index.Record(ctx, ref); err != nil {
			return nil, fmt.Errorf("record photo: %w", err)
		}
	}

	c.mu.Lock()
	c.added = append(c.added, ref)
	c.mu.Unlock()

	t := c.shell.startUpload(ctx, ref, upload.Bytes(processed.Bytes))

	return &CaptureResult{
		Ref:      ref,
		Image:    processed,
		Transfer: t,
	}, nil
}

// Finish closes the session, drains and stops the camera worker and
// returns the photos taken, in capture order. Later calls return the same
// list.
func (c *CaptureScreen) Finish() []mediastore.ImageReference {
	c.finishOnce.Do(func() {
		c.mu.Lock()
		c.finished = true
		c.mu.Unlock()

		if err := c.session.Close(); err != nil {
			c.shell.d.Logger.Warn(context.Background(), "close camera session", "error", err.Error())
		}
		c.worker.Stop()
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mediastore.ImageReference(nil), c.added...)
}
