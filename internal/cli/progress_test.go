package cli

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/photosync/internal/common"
	"github.com/dmitrijs2005/photosync/internal/mediastore"
	"github.com/dmitrijs2005/photosync/internal/upload"
)

func TestProgressPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf)
	ref := mediastore.ImageReference{Path: "/pics/a.jpg"}

	p.handle(ref, upload.Event{Kind: upload.EventProgress, Percent: 50})
	p.handle(ref, upload.Event{Kind: upload.EventSucceeded, Key: "images/k"})
	p.handle(ref, upload.Event{Kind: upload.EventFailed, Key: "images/j",
		Err: &common.UploadError{Key: "images/j", Reason: errors.New("timeout")}})

	assert.Equal(t, "uploaded a.jpg -> images/k\nupload of a.jpg failed: upload images/j failed: timeout\n", buf.String())
}

func TestProgressPrinter_TerminalRedraws(t *testing.T) {
	orig := isTerminal
	isTerminal = func(fd int) bool { return true }
	t.Cleanup(func() { isTerminal = orig })

	p := newProgressPrinter(os.Stdout)
	assert.True(t, p.tty)

	var buf bytes.Buffer
	p.out = &buf
	ref := mediastore.ImageReference{Path: "/pics/b.jpg"}
	p.handle(ref, upload.Event{Kind: upload.EventProgress, Percent: 7})
	p.handle(ref, upload.Event{Kind: upload.EventSucceeded, Key: "images/k"})

	assert.Equal(t, "\rb.jpg   7%\r\033[Kuploaded b.jpg -> images/k\n", buf.String())
}
