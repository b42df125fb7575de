package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/rs/zerolog"
)

// State is a step of the verification flow.
type State string

const (
	StateIdle       State = "idle"
	StateStreaming  State = "streaming"
	StateCaptured   State = "captured"
	StateSubmitting State = "submitting"
	StateVerified   State = "verified"
	StateFailed     State = "failed"
)

var (
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrInvalidState      = errors.New("operation not allowed in current verification state")
)

// Camera is a capture source. Open acquires it, Close releases it.
type Camera interface {
	Open(ctx context.Context) error
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Verifier submits the encoded face image to the backend.
type Verifier interface {
	Verify(ctx context.Context, image []byte) error
}

// Flow drives one identity verification attempt:
// Idle → Streaming → Captured → Submitting → Verified | Failed.
// A failed submission can be retried with Submit, or the photo retaken.
type Flow struct {
	mu     sync.Mutex
	camera Camera
	state  State
	image  []byte
	err    error
	log    zerolog.Logger
}

// NewFlow creates an idle flow over camera.
func NewFlow(camera Camera, log zerolog.Logger) *Flow {
	return &Flow{
		camera: camera,
		state:  StateIdle,
		log:    log.With().Str("component", "verify").Logger(),
	}
}

// State returns the current step.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Image returns the captured PNG, or nil.
func (f *Flow) Image() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.Clone(f.image)
}

// Err returns the last submission error.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Start opens the camera. On failure the flow stays Idle and the error wraps
// ErrCameraUnavailable so callers can show a placeholder.
func (f *Flow) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateIdle {
		return fmt.Errorf("start from %s: %w", f.state, ErrInvalidState)
	}
	return f.openLocked(ctx)
}

func (f *Flow) openLocked(ctx context.Context) error {
	if err := f.camera.Open(ctx); err != nil {
		f.log.Warn().Err(err).Msg("Error accessing camera")
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	f.state = StateStreaming
	return nil
}

// Capture grabs one frame, encodes it as PNG and releases the camera.
func (f *Flow) Capture(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateStreaming {
		return nil, fmt.Errorf("capture from %s: %w", f.state, ErrInvalidState)
	}
	frame, err := f.camera.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("grab frame: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	f.stopLocked()

	f.image = buf.Bytes()
	f.state = StateCaptured
	return bytes.Clone(f.image), nil
}

// Retake drops the captured photo and reopens the camera.
func (f *Flow) Retake(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateCaptured, StateFailed:
	default:
		return fmt.Errorf("retake from %s: %w", f.state, ErrInvalidState)
	}
	f.image = nil
	f.err = nil
	f.state = StateIdle
	return f.openLocked(ctx)
}

// Submit sends the captured photo. It is allowed from Captured and, as a
// manual retry, from Failed.
func (f *Flow) Submit(ctx context.Context, v Verifier) error {
	f.mu.Lock()
	switch f.state {
	case StateCaptured, StateFailed:
	default:
		state := f.state
		f.mu.Unlock()
		return fmt.Errorf("submit from %s: %w", state, ErrInvalidState)
	}
	f.state = StateSubmitting
	img := f.image
	f.mu.Unlock()

	err := v.Verify(ctx, img)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateFailed
		f.err = err
		f.log.Warn().Err(err).Msg("Verification failed")
		return fmt.Errorf("verify: %w", err)
	}
	f.state = StateVerified
	f.err = nil
	f.log.Info().Int("image_bytes", len(img)).Msg("Verification submitted")
	return nil
}

// Close releases the camera if it is still streaming.
func (f *Flow) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateStreaming {
		f.state = StateIdle
		return f.camera.Close()
	}
	return nil
}

func (f *Flow) stopLocked() {
	if err := f.camera.Close(); err != nil {
		f.log.Debug().Err(err).Msg("Camera close failed")
	}
}
