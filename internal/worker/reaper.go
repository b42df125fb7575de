package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// IdleCloser closes editing sessions untouched since the cutoff and reports
// how many were closed.
type IdleCloser interface {
	CloseIdle(ctx context.Context, cutoff time.Time) int
}

// EditorReaper periodically flushes and closes abandoned editing sessions.
type EditorReaper struct {
	editors  IdleCloser
	idle     time.Duration
	schedule string
	now      func() time.Time
	log      zerolog.Logger
}

// NewEditorReaper creates a reaper that runs on a cron schedule
// such as "@every 1m".
func NewEditorReaper(editors IdleCloser, idle time.Duration, schedule string, log zerolog.Logger) *EditorReaper {
	return &EditorReaper{
		editors:  editors,
		idle:     idle,
		schedule: schedule,
		now:      time.Now,
		log:      log.With().Str("component", "editor_reaper").Logger(),
	}
}

// Start runs the schedule until ctx is cancelled. Call in a goroutine.
func (r *EditorReaper) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.schedule, func() { r.runOnce(ctx) }); err != nil {
		return fmt.Errorf("parse reaper schedule %q: %w", r.schedule, err)
	}

	r.log.Info().Str("schedule", r.schedule).Dur("idle", r.idle).Msg("Worker started")
	c.Start()
	<-ctx.Done()

	r.log.Info().Msg("Worker stopping...")
	<-c.Stop().Done()
	r.log.Info().Msg("Worker stopped")
	return nil
}

func (r *EditorReaper) runOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	closed := r.editors.CloseIdle(ctx, r.now().Add(-r.idle))
	if closed > 0 {
		r.log.Info().Int("count", closed).Msg("Closed idle editors")
	}
	return closed
}
