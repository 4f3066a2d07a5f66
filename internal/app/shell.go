// Package app wires user actions to the capture pipeline, the gallery and
// the uploader. It owns navigation between the gallery and the capture
// screen and checks permissions before either is shown.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/photosync/internal/camera"
	"github.com/dmitrijs2005/photosync/internal/common"
	"github.com/dmitrijs2005/photosync/internal/gallery"
	"github.com/dmitrijs2005/photosync/internal/logging"
	"github.com/dmitrijs2005/photosync/internal/mediastore"
	"github.com/dmitrijs2005/photosync/internal/platform"
	"github.com/dmitrijs2005/photosync/internal/postprocess"
	"github.com/dmitrijs2005/photosync/internal/upload"
)

var (
	ErrCameraOpen   = errors.New("capture screen already open")
	ErrCameraClosed = errors.New("capture screen not open")
	ErrNoIndex      = errors.New("media index not configured")
)

// UploadHandler observes upload events on the dispatcher.
type UploadHandler func(ref mediastore.ImageReference, ev upload.Event)

// Deps are the collaborators of a Shell. Index and Surface are optional.
type Deps struct {
	Caps       platform.Capabilities
	Cameras    camera.Manager
	Lister     mediastore.Lister
	Index      *mediastore.Index
	Processor  *postprocess.Processor
	Uploader   *upload.Client
	Presenter  *gallery.Presenter
	Dispatcher *Dispatcher
	Logger     logging.Logger

	CameraIndex     int
	DisplayRotation camera.Rotation
	Surface         camera.Surface
	OnUpload        UploadHandler

	now func() time.Time
}

// Shell is the application root.
type Shell struct {
	d Deps

	mu     sync.Mutex
	images []mediastore.ImageReference
	screen *CaptureScreen

	inflight sync.WaitGroup
}

func NewShell(d Deps) *Shell {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return &Shell{d: d}
}

// Images is the list the gallery currently shows.
func (s *Shell) Images() []mediastore.ImageReference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mediastore.ImageReference(nil), s.images...)
}

// LoadGallery lists saved photos and renders them.
func (s *Shell) LoadGallery(ctx context.Context) error {
	if err := platform.Require(s.d.Caps, common.CapabilityStorage); err != nil {
		return err
	}

	refs, err := s.d.Lister.List(ctx)
	if err != nil {
		return fmt.Errorf("list photos: %w", err)
	}

	s.mu.Lock()
	s.images = refs
	s.mu.Unlock()

	return s.d.Dispatcher.Do(ctx, func() error {
		return s.d.Presenter.Render(refs)
	})
}

// SelectPhoto returns the photo at position i of the gallery.
func (s *Shell) SelectPhoto(i int) (mediastore.ImageReference, error) {
	return s.d.Presenter.Select(i)
}

// OpenCamera shows the capture screen. Both camera and storage access are
// required.
func (s *Shell) OpenCamera(ctx context.Context) (*CaptureScreen, error) {
	if err := platform.Require(s.d.Caps, common.CapabilityCamera, common.CapabilityStorage); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.screen != nil {
		s.mu.Unlock()
		return nil, ErrCameraOpen
	}
	sc := newCaptureScreen(s)
	s.screen = sc
	s.mu.Unlock()

	if err := sc.start(ctx); err != nil {
		sc.Finish()
		s.mu.Lock()
		s.screen = nil
		s.mu.Unlock()
		return nil, err
	}
	return sc, nil
}

// Screen returns the open capture screen, or nil.
func (s *Shell) Screen() *CaptureScreen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// CloseCamera finishes the capture screen and returns to the gallery with
// the new photos merged in.
func (s *Shell) CloseCamera(ctx context.Context) ([]mediastore.ImageReference, error) {
	s.mu.Lock()
	sc := s.screen
	s.screen = nil
	s.mu.Unlock()
	if sc == nil {
		return nil, ErrCameraClosed
	}

	added := sc.Finish()

	// A reload already includes the new photos; merging only matters when
	// the gallery cannot be listed again.
	if err := s.LoadGallery(ctx); err != nil {
		s.merge(added)
		return added, err
	}
	return added, nil
}

// merge puts refs in front of the shown list, newest first, without
// duplicates.
func (s *Shell) merge(refs []mediastore.ImageReference) {
	if len(refs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(s.images)+len(refs))
	merged := make([]mediastore.ImageReference, 0, len(s.images)+len(refs))
	for _, r := range append(append([]mediastore.ImageReference(nil), refs...), s.images...) {
		if seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		merged = append(merged, r)
	}
	mediastore.SortNewestFirst(merged)
	s.images = merged
}

// UploadAll uploads every listed photo as a file, each under a new key.
func (s *Shell) UploadAll(ctx context.Context) ([]*Transfer, error) {
	if err := platform.Require(s.d.Caps, common.CapabilityStorage); err != nil {
		return nil, err
	}
	refs, err := s.d.Lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	out := make([]*Transfer, 0, len(refs))
	for _, ref := range refs {
		out = append(out, s.startUpload(ctx, ref, upload.File(ref.Path)))
	}
	s.d.Logger.Info(ctx, "upload all started", "count", len(out))
	return out, nil
}

// SyncPending uploads the indexed photos that have no remote key yet and
// waits for them. It returns how many were uploaded.
func (s *Shell) SyncPending(ctx context.Context) (int, error) {
	if s.d.Index == nil {
		return 0, ErrNoIndex
	}
	if err := platform.Require(s.d.Caps, common.CapabilityStorage); err != nil {
		return 0, err
	}

	pending, err := s.d.Index.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	ts := make([]*Transfer, 0, len(pending))
	for _, p := range pending {
		ts = append(ts, s.startUpload(ctx, p.ImageReference, upload.File(p.Path)))
	}
	n, err := WaitAll(ctx, ts)
	s.d.Logger.Info(ctx, "sync finished", "uploaded", n, "pending", len(pending))
	return n, err
}

// startUpload begins an upload that outlives ctx's cancellation and
// forwards its events to the dispatcher.
func (s *Shell) startUpload(ctx context.Context, ref mediastore.ImageReference, p upload.Payload) *Transfer {
	job := s.d.Uploader.Upload(context.WithoutCancel(ctx), p)
	t := &Transfer{Ref: ref, Job: job, done: make(chan struct{})}
	s.inflight.Add(1)
	go s.forward(t)
	return t
}

func (s *Shell) forward(t *Transfer) {
	defer s.inflight.Done()
	defer close(t.done)
	ctx := context.Background()

	for ev := range t.Job.Events() {
		if ev.Kind == upload.EventSucceeded && s.d.Index != nil {
			if err := s.d.Index.MarkUploaded(ctx, t.Ref.Path, ev.Key, s.d.now()); err != nil && !errors.Is(err, common.ErrorNotFound) {
				s.d.Logger.Error(ctx, "record upload failed", "path", t.Ref.Path, "error", err.Error())
			}
		}
		if s.d.OnUpload == nil {
			continue
		}
		ev := ev
		if !s.d.Dispatcher.Post(func() { s.d.OnUpload(t.Ref, ev) }) {
			s.d.Logger.Warn(ctx, "dispatcher stopped, upload event dropped", "key", ev.Key, "kind", ev.Kind.String())
		}
	}
}

// Drain waits until every started upload has finished and its outcome was
// recorded in the index, or until ctx ends.
func (s *Shell) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown finishes an open capture screen. The dispatcher is left to its
// owner.
func (s *Shell) Shutdown() {
	s.mu.Lock()
	sc := s.screen
	s.screen = nil
	s.mu.Unlock()
	if sc != nil {
		sc.Finish()
	}
}
