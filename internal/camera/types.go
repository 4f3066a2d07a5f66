package camera

import (
	"context"
	"fmt"
	"sync"
)

// Size is a frame size in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// FallbackCaptureSize is used when a device reports no JPEG-capable size.
var FallbackCaptureSize = Size{Width: 300, Height: 300}

// Info describes one enumerated camera.
type Info struct {
	ID           string
	Facing       Facing
	PreviewSizes []Size
	JPEGSizes    []Size
}

// captureSize picks the first JPEG-capable size, or the fallback.
func (i Info) captureSize() Size {
	if len(i.JPEGSizes) > 0 {
		return i.JPEGSizes[0]
	}
	return FallbackCaptureSize
}

func (i Info) previewSize() Size {
	if len(i.PreviewSizes) > 0 {
		return i.PreviewSizes[0]
	}
	return i.captureSize()
}

// Template distinguishes the repeating preview pipeline from one-shot
// still captures.
type Template int

const (
	TemplatePreview Template = iota
	TemplateStillCapture
)

// Output is a target a capture session can be configured with.
type Output int

const (
	OutputPreview Output = iota
	OutputStill
)

// Request is a capture request. JPEGOrientation is only meaningful for
// still captures.
type Request struct {
	Template        Template
	Targets         []Output
	ControlModeAuto bool
	Size            Size
	JPEGOrientation int
}

// PreviewFrame is delivered to a Surface for every repeated preview frame.
type PreviewFrame struct {
	Seq  int
	Size Size
}

// Surface is a continuously updated display target for preview frames.
type Surface interface {
	SetDefaultBufferSize(size Size)
	Present(frame PreviewFrame)
}

// Frame is one still image as delivered by the device. Release frees the
// underlying sensor buffer and may be nil.
type Frame struct {
	Data    []byte
	Width   int
	Height  int
	Release func()
}

// Manager enumerates and opens cameras. Implementations wrap the platform
// camera service.
type Manager interface {
	Cameras(ctx context.Context) ([]Info, error)
	Open(ctx context.Context, id string) (Device, error)
}

// Device is an opened camera. All methods are called from one goroutine.
type Device interface {
	// CreateSession configures the device for the given outputs. An error
	// means the configuration failed.
	CreateSession(ctx context.Context, outputs []Output, preview Surface) error
	// SetRepeating starts (or replaces) the repeating preview request.
	SetRepeating(ctx context.Context, req Request) error
	// Capture issues a one-shot request and blocks until the image is available.
	Capture(ctx context.Context, req Request) (Frame, error)
	// Errors reports asynchronous device failures such as a disconnect. The
	// channel is closed by Close.
	Errors() <-chan error
	Close() error
}

// CapturedImage is a still capture waiting for post-processing. Whoever
// receives it owns it and must call Release; extra calls are no-ops.
type CapturedImage struct {
	Data            []byte
	Width           int
	Height          int
	RotationDegrees int

	release func()
	once    sync.Once
}

// NewCapturedImage wraps raw bytes; release (optional) runs once on Release.
func NewCapturedImage(data []byte, width, height, rotation int, release func()) *CapturedImage {
	return &CapturedImage{
		Data:            data,
		Width:           width,
		Height:          height,
		RotationDegrees: rotation,
		release:         release,
	}
}

// Release frees the sensor buffer behind the image.
func (c *CapturedImage) Release() {
	c.once.Do(func() {
		if c.release != nil {
			c.release()
		}
		c.Data = nil
	})
}

// Selector chooses one camera out of the enumerated list.
type Selector func(cams []Info) (Info, error)

// ByIndex selects the camera at position i in enumeration order.
func ByIndex(i int) Selector {
	return func(cams []Info) (Info, error) {
		if i < 0 || i >= len(cams) {
			return Info{}, fmt.Errorf("camera index %d out of range (%d cameras)", i, len(cams))
		}
		return cams[i], nil
	}
}

// ByFacing selects the first camera with the given facing.
func ByFacing(f Facing) Selector {
	return func(cams []Info) (Info, error) {
		for _, c := range cams {
			if c.Facing == f {
				return c, nil
			}
		}
		return Info{}, fmt.Errorf("no %s camera", f)
	}
}
