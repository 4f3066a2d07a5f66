package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/photosync/internal/common"
)

// Payload is the source of one upload: in-memory bytes or a local file.
type Payload struct {
	data []byte
	path string
}

// Bytes uploads b as image/jpeg.
func Bytes(b []byte) Payload { return Payload{data: b} }

// File uploads the file at path. The content type follows the extension.
func File(path string) Payload { return Payload{path: path} }

func (p Payload) String() string {
	if p.path != "" {
		return p.path
	}
	return fmt.Sprintf("<%d bytes>", len(p.data))
}

// open returns the body, its size and content type. close is never nil.
func (p Payload) open() (body io.ReadSeeker, size int64, contentType string, closeFn func() error, err error) {
	if p.path == "" {
		return bytes.NewReader(p.data), int64(len(p.data)), common.ImageContentType, func() error { return nil }, nil
	}

	f, err := os.Open(p.path)
	if err != nil {
		return nil, 0, "", nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, "", nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, 0, "", nil, fmt.Errorf("%w: %s is a directory", common.ErrIOFailure, p.path)
	}

	ct := mime.TypeByExtension(filepath.Ext(p.path))
	if ct == "" {
		ct = common.ImageContentType
	}
	return f, fi.Size(), ct, f.Close, nil
}
