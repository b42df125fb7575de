package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxFrameSide bounds each side of an uploaded frame in pixels.
const DefaultMaxFrameSide = 4096

var (
	// ErrUnsupportedImage rejects uploads that are not PNG or JPEG.
	ErrUnsupportedImage = errors.New("only png and jpeg images are accepted")
	// ErrFrameTooLarge rejects frames whose declared size exceeds the cap.
	ErrFrameTooLarge = errors.New("image dimensions too large")
)

// UploadCamera is a Camera backed by a frame uploaded by the client. The
// browser owns the real device; the gateway sees a single still.
type UploadCamera struct {
	data  []byte
	mime  string
	frame image.Image
	open  bool
}

// NewUploadCamera sniffs data and rejects anything but PNG and JPEG. The
// header is read before any pixel data and frames wider or taller than
// maxSide are refused; maxSide <= 0 means DefaultMaxFrameSide.
func NewUploadCamera(data []byte, maxSide int) (*UploadCamera, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrCameraUnavailable)
	}
	mt := mimetype.Detect(data)
	if !mt.Is("image/png") && !mt.Is("image/jpeg") {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedImage, mt.String())
	}
	if maxSide <= 0 {
		maxSide = DefaultMaxFrameSide
	}

	var (
		cfg image.Config
		err error
	)
	if mt.Is("image/png") {
		cfg, err = png.DecodeConfig(bytes.NewReader(data))
	} else {
		cfg, err = jpeg.DecodeConfig(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s header: %v", ErrUnsupportedImage, mt.String(), err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxSide || cfg.Height > maxSide {
		return nil, fmt.Errorf("%w: %dx%d, limit %d", ErrFrameTooLarge, cfg.Width, cfg.Height, maxSide)
	}
	return &UploadCamera{data: data, mime: mt.String()}, nil
}

// MIME returns the detected content type.
func (c *UploadCamera) MIME() string { return c.mime }

func (c *UploadCamera) Open(ctx context.Context) error {
	if c.frame == nil {
		var (
			img image.Image
			err error
		)
		if c.mime == "image/png" {
			img, err = png.Decode(bytes.NewReader(c.data))
		} else {
			img, err = jpeg.Decode(bytes.NewReader(c.data))
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", c.mime, err)
		}
		c.frame = img
	}
	c.open = true
	return nil
}

func (c *UploadCamera) Frame(ctx context.Context) (image.Image, error) {
	if !c.open {
		return nil, ErrCameraUnavailable
	}
	return c.frame, nil
}

func (c *UploadCamera) Close() error {
	c.open = false
	return nil
}
