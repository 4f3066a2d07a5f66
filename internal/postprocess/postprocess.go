// Package postprocess turns a raw still capture into the photo that is kept
// on disk and uploaded: decode, fix the front-sensor orientation, re-encode
// small, save.
package postprocess

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/photosync/internal/camera"
	"github.com/dmitrijs2005/photosync/internal/common"
	"github.com/dmitrijs2005/photosync/internal/filex"
	"github.com/dmitrijs2005/photosync/internal/logging"
)

// Quality is the JPEG quality of saved photos. Fixed: uploads stay small.
const Quality = 50

// ProcessedImage is a photo written to local storage. Read-only once written.
type ProcessedImage struct {
	ID     string
	Bytes  []byte
	Path   string
	Width  int
	Height int
}

// Processor writes processed captures under a pictures directory.
type Processor struct {
	dir    string
	logger logging.Logger

	newID func() string
	write func(dir, name string, data []byte) (string, error)
}

func New(picturesDir string, logger logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Processor{
		dir:    picturesDir,
		logger: logger,
		newID:  uuid.NewString,
		write:  filex.WriteFileAtomic,
	}
}

// Dir is the pictures directory photos are written to.
func (p *Processor) Dir() string { return p.dir }

// Process decodes img, rotates it 90° clockwise and mirrors it, encodes it
// at Quality and saves it as {dir}/{uuid}.jpg. img is released on every
// path. Decode problems wrap common.ErrDecodeFailure, write problems wrap
// common.ErrIOFailure. A ctx that is already done aborts before decoding
// and its error is returned as is, so callers can tell a cancelled capture
// from a failed one with errors.Is(err, context.Canceled).
func (p *Processor) Process(ctx context.Context, img *camera.CapturedImage) (*ProcessedImage, error) {
	defer img.Release()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decoded, err := Decode(img.Data)
	if err != nil {
		return nil, err
	}

	out := Transform(decoded)

	encoded, err := Encode(out)
	if err != nil {
		return nil, err
	}

	id := p.newID()
	path, err := p.write(p.dir, id+".jpg", encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: save photo: %w", common.ErrIOFailure, err)
	}

	b := out.Bounds()
	p.logger.Info(ctx, "photo saved", "path", path, "bytes", len(encoded), "width", b.Dx(), "height", b.Dy())

	return &ProcessedImage{
		ID:     id,
		Bytes:  encoded,
		Path:   path,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// Decode reads a JPEG or PNG. EXIF orientation is ignored; the rotation
// is applied explicitly by Transform.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", common.ErrDecodeFailure)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecodeFailure, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty bounds", common.ErrDecodeFailure)
	}
	return img, nil
}

// Transform rotates 90° clockwise then mirrors horizontally. The front
// sensor is mirrored relative to the preview, so this is fixed.
func Transform(img image.Image) *image.NRGBA {
	return imaging.FlipH(imaging.Rotate270(img))
}

// Encode writes img as a JPEG at Quality.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(Quality)); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", common.ErrIOFailure, err)
	}
	return buf.Bytes(), nil
}
