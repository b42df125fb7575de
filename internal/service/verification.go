package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/editor"
	"github.com/stemsi/surveychain/internal/model"
	"github.com/stemsi/surveychain/internal/verify"
)

// VerificationResult reports how far a verification attempt got.
type VerificationResult struct {
	State      verify.State `json:"state"`
	MIME       string       `json:"mime"`
	ImageBytes int          `json:"image_bytes"`
}

// VerificationService runs the identity verification flow over an uploaded frame.
type VerificationService struct {
	canisters    *Canisters
	journal      editor.Journal
	maxFrameSide int
	now          func() time.Time
	log          zerolog.Logger
}

// NewVerificationService creates a new VerificationService. Uploaded frames
// larger than maxFrameSide pixels on either side are refused.
func NewVerificationService(canisters *Canisters, journal editor.Journal, maxFrameSide int, log zerolog.Logger) *VerificationService {
	return &VerificationService{
		canisters:    canisters,
		journal:      journal,
		maxFrameSide: maxFrameSide,
		now:          time.Now,
		log:          log.With().Str("component", "verification_service").Logger(),
	}
}

// Verify captures the uploaded frame as PNG and submits it for the caller.
func (s *VerificationService) Verify(ctx context.Context, sess *auth.Session, upload []byte) (VerificationResult, error) {
	camera, err := verify.NewUploadCamera(upload, s.maxFrameSide)
	if err != nil {
		return VerificationResult{State: verify.StateIdle}, err
	}
	res := VerificationResult{MIME: camera.MIME()}

	flow := verify.NewFlow(camera, s.log.With().Str("principal", sess.Principal.String()).Logger())
	defer flow.Close()

	if err := flow.Start(ctx); err != nil {
		res.State = flow.State()
		return res, err
	}
	img, err := flow.Capture(ctx)
	if err != nil {
		res.State = flow.State()
		return res, err
	}
	res.ImageBytes = len(img)

	err = flow.Submit(ctx, s.canisters.Backend(sess.Token))
	res.State = flow.State()

	entry := model.JournalEntry{
		ID:        uuid.New(),
		Principal: sess.Principal.String(),
		Kind:      model.JournalVerify,
		OK:        err == nil,
		Detail:    camera.MIME(),
		CreatedAt: s.now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.journal.Record(ctx, entry)

	if err == nil && sess.User != nil {
		sess.User.IsVerified = true
	}
	return res, err
}
