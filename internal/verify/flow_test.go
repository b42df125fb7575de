package verify

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/rs/zerolog"
)

type fakeCamera struct {
	openErr error
	opened  int
	closed  int
	frame   image.Image
}

func (c *fakeCamera) Open(ctx context.Context) error {
	if c.openErr != nil {
		return c.openErr
	}
	c.opened++
	return nil
}

func (c *fakeCamera) Frame(ctx context.Context) (image.Image, error) { return c.frame, nil }

func (c *fakeCamera) Close() error {
	c.closed++
	return nil
}

type stubVerifier struct {
	got []byte
	err error
}

func (v *stubVerifier) Verify(ctx context.Context, img []byte) error {
	v.got = img
	return v.err
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	return img
}

func TestFlowHappyPath(t *testing.T) {
	ctx := context.Background()
	cam := &fakeCamera{frame: testImage()}
	f := NewFlow(cam, zerolog.Nop())

	if err := f.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if f.State() != StateStreaming {
		t.Fatalf("state = %s", f.State())
	}

	shot, err := f.Capture(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(shot)); err != nil {
		t.Fatalf("capture is not png: %v", err)
	}
	if cam.closed != 1 {
		t.Fatal("camera not released after capture")
	}

	v := &stubVerifier{}
	if err := f.Submit(ctx, v); err != nil {
		t.Fatal(err)
	}
	if f.State() != StateVerified || !bytes.Equal(v.got, shot) {
		t.Fatalf("unexpected end state %s", f.State())
	}
}

func TestFlowCameraUnavailable(t *testing.T) {
	f := NewFlow(&fakeCamera{openErr: errors.New("permission denied")}, zerolog.Nop())
	if err := f.Start(context.Background()); !errors.Is(err, ErrCameraUnavailable) {
		t.Fatalf("expected ErrCameraUnavailable, got %v", err)
	}
	if f.State() != StateIdle {
		t.Fatalf("state = %s", f.State())
	}
}

func TestFlowFailedSubmitCanRetryOrRetake(t *testing.T) {
	ctx := context.Background()
	cam := &fakeCamera{frame: testImage()}
	f := NewFlow(cam, zerolog.Nop())
	if err := f.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Capture(ctx); err != nil {
		t.Fatal(err)
	}

	v := &stubVerifier{err: errors.New("face not recognised")}
	if err := f.Submit(ctx, v); err == nil {
		t.Fatal("expected error")
	}
	if f.State() != StateFailed || f.Err() == nil {
		t.Fatalf("state = %s", f.State())
	}

	v.err = nil
	if err := f.Submit(ctx, v); err != nil {
		t.Fatalf("manual retry: %v", err)
	}

	if err := f.Retake(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("retake after verified: %v", err)
	}
}

func TestFlowRetakeReopensCamera(t *testing.T) {
	ctx := context.Background()
	cam := &fakeCamera{frame: testImage()}
	f := NewFlow(cam, zerolog.Nop())
	if err := f.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Capture(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.Retake(ctx); err != nil {
		t.Fatal(err)
	}
	if cam.opened != 2 || f.State() != StateStreaming || f.Image() != nil {
		t.Fatalf("retake did not restart: opened=%d state=%s", cam.opened, f.State())
	}
	if err := f.Close(); err != nil || cam.closed != 2 {
		t.Fatalf("close did not release camera: %v", err)
	}
	if _, err := f.Capture(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("capture after close: %v", err)
	}
}

func TestUploadCamera(t *testing.T) {
	var pngBuf, jpgBuf bytes.Buffer
	if err := png.Encode(&pngBuf, testImage()); err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(&jpgBuf, testImage(), nil); err != nil {
		t.Fatal(err)
	}

	for name, data := range map[string][]byte{"png": pngBuf.Bytes(), "jpeg": jpgBuf.Bytes()} {
		t.Run(name, func(t *testing.T) {
			cam, err := NewUploadCamera(data, 0)
			if err != nil {
				t.Fatal(err)
			}
			f := NewFlow(cam, zerolog.Nop())
			if err := f.Start(context.Background()); err != nil {
				t.Fatal(err)
			}
			shot, err := f.Capture(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			img, err := png.Decode(bytes.NewReader(shot))
			if err != nil || img.Bounds().Dx() != 4 {
				t.Fatalf("bad capture: %v", err)
			}
		})
	}

	if _, err := NewUploadCamera([]byte("%PDF-1.4 not an image"), 0); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
	if _, err := NewUploadCamera(nil, 0); !errors.Is(err, ErrCameraUnavailable) {
		t.Fatalf("expected ErrCameraUnavailable, got %v", err)
	}
}

// withPNGSize rewrites the IHDR dimensions of an encoded PNG and fixes the
// chunk checksum, leaving the pixel data as is.
func withPNGSize(t *testing.T, data []byte, width, height uint32) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	if string(out[12:16]) != "IHDR" {
		t.Fatal("IHDR is not the first chunk")
	}
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestUploadCameraRejectsOversizedFrames(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		width, height uint32
		maxSide       int
	}{
		{"huge declared header", 60000, 60000, 0},
		{"one side over default", DefaultMaxFrameSide + 1, 4, 0},
		{"over configured limit", 4, 4, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := withPNGSize(t, buf.Bytes(), tt.width, tt.height)
			cam, err := NewUploadCamera(data, tt.maxSide)
			if !errors.Is(err, ErrFrameTooLarge) {
				t.Fatalf("expected ErrFrameTooLarge, got %v", err)
			}
			if cam != nil {
				t.Fatal("camera returned for oversized frame")
			}
		})
	}

	if _, err := NewUploadCamera(buf.Bytes(), 4); err != nil {
		t.Fatalf("frame at the limit rejected: %v", err)
	}
}
