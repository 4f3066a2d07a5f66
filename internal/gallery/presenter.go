// Package gallery renders the photo list and maps a selected position back
// to the photo it shows.
package gallery

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/dmitrijs2005/photosync/internal/mediastore"
)

// Columns is the width of the thumbnail grid.
const Columns = 4

var ErrIndexOutOfRange = errors.New("gallery: index out of range")

// Presenter holds the last rendered list. Positions passed to Select refer
// to that list.
type Presenter struct {
	out io.Writer

	mu       sync.Mutex
	images   []mediastore.ImageReference
	onSelect func(mediastore.ImageReference)
}

func NewPresenter(out io.Writer) *Presenter {
	if out == nil {
		out = io.Discard
	}
	return &Presenter{out: out}
}

// Render replaces the shown list with images and draws it.
func (p *Presenter) Render(images []mediastore.ImageReference) error {
	p.mu.Lock()
	p.images = append([]mediastore.ImageReference(nil), images...)
	p.mu.Unlock()

	if _, err := fmt.Fprintf(p.out, "Photos (%d)\n", len(images)); err != nil {
		return err
	}
	if len(images) == 0 {
		_, err := fmt.Fprintln(p.out, "  no photos yet")
		return err
	}

	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	var row []string
	for i, img := range images {
		row = append(row, fmt.Sprintf("[%d] %s", i, img.Name()))
		if len(row) == Columns || i == len(images)-1 {
			if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
				return err
			}
			row = row[:0]
		}
	}
	return tw.Flush()
}

// OnSelect sets the callback Select invokes.
func (p *Presenter) OnSelect(fn func(mediastore.ImageReference)) {
	p.mu.Lock()
	p.onSelect = fn
	p.mu.Unlock()
}

// Select reports the photo shown at index to the OnSelect callback.
func (p *Presenter) Select(index int) (mediastore.ImageReference, error) {
	p.mu.Lock()
	if index < 0 || index >= len(p.images) {
		n := len(p.images)
		p.mu.Unlock()
		return mediastore.ImageReference{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, n)
	}
	ref := p.images[index]
	fn := p.onSelect
	p.mu.Unlock()

	if fn != nil {
		fn(ref)
	}
	return ref, nil
}

// Count is the number of photos last rendered.
func (p *Presenter) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.images)
}

// Images returns a copy of the rendered list.
func (p *Presenter) Images() []mediastore.ImageReference {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]mediastore.ImageReference(nil), p.images...)
}
