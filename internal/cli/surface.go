package cli

import (
	"sync"

	"github.com/dmitrijs2005/photosync/internal/camera"
)

// previewSurface is the terminal's stand-in for a viewfinder: it only
// counts frames.
type previewSurface struct {
	mu     sync.Mutex
	size   camera.Size
	frames int
}

func (p *previewSurface) SetDefaultBufferSize(size camera.Size) {
	p.mu.Lock()
	p.size = size
	p.mu.Unlock()
}

func (p *previewSurface) Present(camera.PreviewFrame) {
	p.mu.Lock()
	p.frames++
	p.mu.Unlock()
}

func (p *previewSurface) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}
