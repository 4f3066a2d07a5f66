// Package simcam is an in-process camera.Manager that renders synthetic
// frames. It stands in for the platform camera service on machines without
// one and in tests.
package simcam

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"

	"github.com/dmitrijs2005/photosync/internal/camera"
)

var (
	ErrUnknownCamera = errors.New("unknown camera")
	ErrCameraInUse   = errors.New("camera in use")
	ErrClosed        = errors.New("camera closed")
	ErrNotConfigured = errors.New("capture session not configured")
	ErrDisconnected  = errors.New("camera disconnected")
)

// DefaultCameras mirrors a typical phone: a back camera with a JPEG stream
// and a front camera that reports no JPEG sizes (captures fall back to
// 300x300).
func DefaultCameras() []camera.Info {
	return []camera.Info{
		{
			ID:           "0",
			Facing:       camera.FacingBack,
			PreviewSizes: []camera.Size{{Width: 640, Height: 480}},
			JPEGSizes:    []camera.Size{{Width: 640, Height: 480}, {Width: 320, Height: 240}},
		},
		{
			ID:           "1",
			Facing:       camera.FacingFront,
			PreviewSizes: []camera.Size{{Width: 320, Height: 240}},
		},
	}
}

// Manager hands out simulated devices.
type Manager struct {
	cams []camera.Info

	// PreviewInterval is the delay between repeated preview frames.
	PreviewInterval time.Duration
	// CorruptFrames makes Capture return bytes that are not a valid image.
	CorruptFrames bool
	// FailConfigure makes CreateSession fail.
	FailConfigure bool

	mu       sync.Mutex
	open     map[string]*Device
	released atomic.Int64
	captured atomic.Int64
}

func NewManager(cams ...camera.Info) *Manager {
	if len(cams) == 0 {
		cams = DefaultCameras()
	}
	return &Manager{
		cams:            cams,
		PreviewInterval: 33 * time.Millisecond,
		open:            make(map[string]*Device),
	}
}

func (m *Manager) Cameras(ctx context.Context) ([]camera.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]camera.Info, len(m.cams))
	copy(out, m.cams)
	return out, nil
}

func (m *Manager) Open(ctx context.Context, id string) (camera.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var info *camera.Info
	for i := range m.cams {
		if m.cams[i].ID == id {
			info = &m.cams[i]
			break
		}
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCamera, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.open[id]; busy {
		return nil, fmt.Errorf("%w: %s", ErrCameraInUse, id)
	}

	d := &Device{
		manager: m,
		info:    *info,
		errs:    make(chan error, 1),
	}
	m.open[id] = d
	return d, nil
}

// Device returns the currently open device with the given id, or nil.
func (m *Manager) Device(id string) *Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open[id]
}

// Captured is the number of frames handed out by Capture.
func (m *Manager) Captured() int64 { return m.captured.Load() }

// Released is the number of captured frames whose buffer was released.
func (m *Manager) Released() int64 { return m.released.Load() }

func (m *Manager) forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, id)
}

// Device is one opened simulated camera.
type Device struct {
	manager *Manager
	info    camera.Info

	mu         sync.Mutex
	closed     bool
	configured bool
	outputs    []camera.Output
	preview    camera.Surface
	stopPrev   chan struct{}
	prevDone   chan struct{}
	errs       chan error
	lastReq    camera.Request
	frames     int
}

func (d *Device) CreateSession(ctx context.Context, outputs []camera.Output, preview camera.Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if d.manager.FailConfigure {
		return errors.New("stream configuration rejected")
	}
	d.stopPreviewLocked()
	d.outputs = append([]camera.Output(nil), outputs...)
	d.preview = preview
	d.configured = true
	return nil
}

func (d *Device) SetRepeating(ctx context.Context, req camera.Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if !d.configured || d.preview == nil {
		return ErrNotConfigured
	}
	d.stopPreviewLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	d.stopPrev, d.prevDone = stop, done
	surface, size, interval := d.preview, req.Size, d.manager.PreviewInterval

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		seq := 0
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				seq++
				surface.Present(camera.PreviewFrame{Seq: seq, Size: size})
			}
		}
	}()
	return nil
}

func (d *Device) stopPreviewLocked() {
	if d.stopPrev == nil {
		return
	}
	close(d.stopPrev)
	<-d.prevDone
	d.stopPrev, d.prevDone = nil, nil
}

func (d *Device) Capture(ctx context.Context, req camera.Request) (camera.Frame, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return camera.Frame{}, ErrClosed
	}
	if !d.configured {
		d.mu.Unlock()
		return camera.Frame{}, ErrNotConfigured
	}
	d.lastReq = req
	d.frames++
	seq := d.frames
	corrupt := d.manager.CorruptFrames
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return camera.Frame{}, err
	}

	var data []byte
	if corrupt {
		data = []byte("not a jpeg")
	} else {
		var err error
		data, err = Render(req.Size, seq)
		if err != nil {
			return camera.Frame{}, err
		}
	}

	d.manager.captured.Add(1)
	return camera.Frame{
		Data:    data,
		Width:   req.Size.Width,
		Height:  req.Size.Height,
		Release: func() { d.manager.released.Add(1) },
	}, nil
}

// LastRequest returns the most recent still-capture request.
func (d *Device) LastRequest() camera.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastReq
}

func (d *Device) Errors() <-chan error { return d.errs }

// Disconnect simulates the camera being taken away by another client.
func (d *Device) Disconnect() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.errs <- ErrDisconnected:
	default:
	}
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.stopPreviewLocked()
	close(d.errs)
	d.manager.forget(d.info.ID)
	return nil
}

// Render draws a gradient test card of the given size and encodes it as a
// high-quality JPEG, the way a sensor pipeline hands over stills.
func Render(size camera.Size, seq int) ([]byte, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %s", size)
	}
	img := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / size.Width),
				G: uint8(y * 255 / size.Height),
				B: uint8((seq * 37) % 256),
				A: 255,
			})
		}
	}
	// Left edge marker, so rotation and mirroring are observable.
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width/10; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
