package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/photosync/internal/common"
	"github.com/dmitrijs2005/photosync/internal/logging"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateOpened
	StateConfigured
	StateClosed
	StateFailed
)

func (s State) String() string {
	return [...]string{"idle", "opened", "configured", "closed", "failed"}[s]
}

// SessionConfig wires a Session to its collaborators.
type SessionConfig struct {
	Manager Manager
	Worker  *Worker
	Logger  logging.Logger

	// CameraGranted reports the camera capability; nil means granted.
	CameraGranted func() bool
	// DisplayRotation reports the current display rotation; nil means Rotation0.
	DisplayRotation func() Rotation
}

// Session is the capture session of one capture screen.
type Session struct {
	manager       Manager
	worker        *Worker
	logger        logging.Logger
	cameraGranted func() bool
	rotation      func() Rotation

	// mu guards the fields below. It is held only around state
	// transitions, never across a device call.
	mu          sync.Mutex
	state       State
	gen         uint64
	info        Info
	device      Device
	surface     Surface
	previewSize Size
	captureSize Size
	configured  bool
	lastErr     error
}

func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{
		manager:       cfg.Manager,
		worker:        cfg.Worker,
		logger:        logger,
		cameraGranted: cfg.CameraGranted,
		rotation:      cfg.DisplayRotation,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the device error that failed the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Info returns the opened camera. Zero before Open succeeds.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Open selects and opens a camera. It fails with common.ErrPermissionDenied
// when the camera capability is missing (no handle is set) and with
// common.ErrDeviceUnavailable when the camera cannot be selected or opened.
func (s *Session) Open(ctx context.Context, sel Selector) error {
	if s.cameraGranted != nil && !s.cameraGranted() {
		return &common.PermissionError{Capability: common.CapabilityCamera}
	}

	return s.worker.Do(ctx, func() error {
		s.mu.Lock()
		if s.device != nil {
			s.mu.Unlock()
			return fmt.Errorf("%w: session already open", common.ErrDeviceUnavailable)
		}
		if s.state == StateClosed {
			s.mu.Unlock()
			return fmt.Errorf("%w: session closed", common.ErrDeviceUnavailable)
		}
		gen := s.gen
		s.mu.Unlock()

		cams, err := s.manager.Cameras(ctx)
		if err != nil {
			return fmt.Errorf("%w: enumerate cameras: %w", common.ErrDeviceUnavailable, err)
		}
		info, err := sel(cams)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrDeviceUnavailable, err)
		}

		dev, err := s.manager.Open(ctx, info.ID)
		if err != nil {
			return fmt.Errorf("%w: open camera %s: %w", common.ErrDeviceUnavailable, info.ID, err)
		}

		s.mu.Lock()
		if s.gen != gen {
			// Closed while opening.
			s.mu.Unlock()
			_ = dev.Close()
			return fmt.Errorf("%w: session closed", common.ErrDeviceUnavailable)
		}
		s.info = info
		s.device = dev
		s.previewSize = info.previewSize()
		s.captureSize = info.captureSize()
		s.state = StateOpened
		s.lastErr = nil
		s.mu.Unlock()

		go s.watch(dev, gen)

		s.logger.Info(ctx, "camera opened", "camera", info.ID, "facing", info.Facing.String(),
			"preview", info.previewSize().String(), "capture", info.captureSize().String())
		return nil
	})
}

// watch forwards asynchronous device errors onto the worker.
func (s *Session) watch(dev Device, gen uint64) {
	for err := range dev.Errors() {
		err := err
		submitErr := s.worker.Submit(func() { s.fail(dev, gen, err) })
		if submitErr != nil {
			return
		}
	}
}

// fail closes the device after an asynchronous error. Runs on the worker.
func (s *Session) fail(dev Device, gen uint64, cause error) {
	s.mu.Lock()
	if s.gen != gen || s.device != dev {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.device = nil
	s.configured = false
	id := s.info.ID
	s.mu.Unlock()

	_ = dev.Close()

	s.mu.Lock()
	if s.state != StateClosed {
		s.state = StateFailed
	}
	s.lastErr = fmt.Errorf("%w: %w", common.ErrDeviceUnavailable, cause)
	s.mu.Unlock()

	s.logger.Warn(context.Background(), "camera failed, session closed", "camera", id, "error", cause.Error())
}

// AttachPreview configures the session with surface as the preview target
// and starts the repeating preview request.
func (s *Session) AttachPreview(ctx context.Context, surface Surface) error {
	return s.worker.Do(ctx, func() error {
		dev, gen, err := s.current()
		if err != nil {
			return err
		}

		s.mu.Lock()
		previewSize := s.previewSize
		s.mu.Unlock()

		surface.SetDefaultBufferSize(previewSize)
		if err := dev.CreateSession(ctx, []Output{OutputPreview, OutputStill}, surface); err != nil {
			s.fail(dev, gen, fmt.Errorf("configure: %w", err))
			return s.Err()
		}

		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return fmt.Errorf("%w: session closed", common.ErrDeviceUnavailable)
		}
		s.surface = surface
		s.configured = true
		s.state = StateConfigured
		s.mu.Unlock()

		req := Request{
			Template:        TemplatePreview,
			Targets:         []Output{OutputPreview},
			ControlModeAuto: true,
			Size:            previewSize,
		}
		if err := dev.SetRepeating(ctx, req); err != nil {
			return fmt.Errorf("%w: start preview: %w", common.ErrDeviceUnavailable, err)
		}
		return nil
	})
}

// Capture issues one still capture and returns the raw image. The caller
// owns the result and must Release it. Captures are queued behind any
// pending configuration; without an attached preview the session is
// configured for still output first.
func (s *Session) Capture(ctx context.Context) (*CapturedImage, error) {
	// handoff lets the task and the waiting caller agree on who releases
	// the image when the caller gives up on ctx.
	var handoff struct {
		sync.Mutex
		img       *CapturedImage
		abandoned bool
	}

	err := s.worker.Do(ctx, func() error {
		dev, gen, err := s.current()
		if err != nil {
			return err
		}

		s.mu.Lock()
		configured := s.configured
		size := s.captureSize
		facing := s.info.Facing
		id := s.info.ID
		s.mu.Unlock()

		if !configured {
			if err := dev.CreateSession(ctx, []Output{OutputStill}, nil); err != nil {
				s.fail(dev, gen, fmt.Errorf("configure: %w", err))
				return s.Err()
			}
			s.mu.Lock()
			s.configured = true
			s.state = StateConfigured
			s.mu.Unlock()
		}

		rotation := Rotation0
		if s.rotation != nil {
			rotation = s.rotation()
		}
		orientation, err := JPEGOrientation(facing, rotation)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrDeviceUnavailable, err)
		}

		req := Request{
			Template:        TemplateStillCapture,
			Targets:         []Output{OutputStill},
			ControlModeAuto: true,
			Size:            size,
			JPEGOrientation: orientation,
		}

		frame, err := dev.Capture(ctx, req)
		if err != nil {
			return fmt.Errorf("%w: capture: %w", common.ErrDeviceUnavailable, err)
		}

		captured := NewCapturedImage(frame.Data, frame.Width, frame.Height, orientation, frame.Release)

		s.mu.Lock()
		stale := s.gen != gen
		s.mu.Unlock()
		if stale {
			// The screen went away while the capture was in flight.
			captured.Release()
			return fmt.Errorf("%w: session closed during capture", common.ErrDeviceUnavailable)
		}

		handoff.Lock()
		if handoff.abandoned {
			handoff.Unlock()
			captured.Release()
			return ctx.Err()
		}
		handoff.img = captured
		handoff.Unlock()

		s.logger.Debug(ctx, "still captured", "camera", id, "size", size.String(), "orientation", orientation)
		return nil
	})

	handoff.Lock()
	defer handoff.Unlock()
	if err != nil {
		handoff.abandoned = true
		if handoff.img != nil {
			handoff.img.Release()
			handoff.img = nil
		}
		return nil, err
	}
	return handoff.img, nil
}

// current returns the open device and its generation, or
// ErrDeviceUnavailable when no device handle is present.
func (s *Session) current() (Device, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil {
		if s.lastErr != nil {
			return nil, 0, s.lastErr
		}
		return nil, 0, fmt.Errorf("%w: camera not open", common.ErrDeviceUnavailable)
	}
	return s.device, s.gen, nil
}

// Close invalidates every in-flight request and closes the device. The
// generation bump happens before the worker runs the close, so results of
// a capture already executing are dropped. Close does not stop the worker.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	dev := s.device
	s.device = nil
	s.surface = nil
	s.configured = false
	s.state = StateClosed
	id := s.info.ID
	s.mu.Unlock()

	if dev == nil {
		return nil
	}

	err := s.worker.Do(context.Background(), func() error {
		return dev.Close()
	})
	if errors.Is(err, ErrWorkerStopped) {
		// Worker already gone; close inline, nothing else can touch dev now.
		err = dev.Close()
	}
	if err != nil {
		return fmt.Errorf("close camera: %w", err)
	}
	s.logger.Info(context.Background(), "camera closed", "camera", id)
	return nil
}
