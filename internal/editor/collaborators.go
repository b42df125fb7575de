package editor

import (
	"context"
	"time"

	"github.com/stemsi/surveychain/internal/ledger"
	"github.com/stemsi/surveychain/internal/model"
)

// Store is the slice of the backend canister a session persists through.
type Store interface {
	GetForm(ctx context.Context, formID string) (model.Form, error)
	UpdateFormMetadata(ctx context.Context, formID string, metadata model.Metadata) error
	SetFormQuestions(ctx context.Context, formID string, questions []model.Question) error
	ChangeFormPublish(ctx context.Context, formID string) error
}

// Payer moves the publish reward pool on the ledger.
type Payer interface {
	TransferFrom(ctx context.Context, args ledger.TransferFromArgs) (uint64, error)
}

// Notifier delivers user-visible notifications for a form.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Journal records the outcome of every outbound call.
type Journal interface {
	Record(ctx context.Context, entry model.JournalEntry)
}

// Timer is the handle of a scheduled debounce callback.
type Timer interface {
	Stop() bool
}

// Scheduler arms debounce timers. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) {}

type nopJournal struct{}

func (nopJournal) Record(context.Context, model.JournalEntry) {}
