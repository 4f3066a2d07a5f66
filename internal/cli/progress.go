package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dmitrijs2005/photosync/internal/mediastore"
	"github.com/dmitrijs2005/photosync/internal/upload"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// progressPrinter shows upload events. It runs on the dispatcher only.
type progressPrinter struct {
	out io.Writer
	tty bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isTerminal(int(f.Fd()))
	}
	return &progressPrinter{out: out, tty: tty}
}

func (p *progressPrinter) handle(ref mediastore.ImageReference, ev upload.Event) {
	switch ev.Kind {
	case upload.EventProgress:
		// Redrawing a line only makes sense on a terminal.
		if p.tty {
			fmt.Fprintf(p.out, "\r%s %3d%%", ref.Name(), ev.Percent)
		}
	case upload.EventSucceeded:
		p.endLine()
		fmt.Fprintf(p.out, "uploaded %s -> %s\n", ref.Name(), ev.Key)
	case upload.EventFailed:
		p.endLine()
		fmt.Fprintf(p.out, "upload of %s failed: %v\n", ref.Name(), ev.Err)
	}
}

func (p *progressPrinter) endLine() {
	if p.tty {
		fmt.Fprint(p.out, "\r\033[K")
	}
}
