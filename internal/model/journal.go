package model

import (
	"time"

	"github.com/google/uuid"
)

// JournalKind classifies sync journal entries.
type JournalKind string

const (
	JournalSync            JournalKind = "sync"
	JournalPublishMetadata JournalKind = "publish_metadata"
	JournalPublishTransfer JournalKind = "publish_transfer"
	JournalPublishFlag     JournalKind = "publish_flag"
	JournalResponseSubmit  JournalKind = "response_submit"
	JournalVerify          JournalKind = "verify"
)

// JournalEntry records the outcome of one outbound canister interaction.
type JournalEntry struct {
	ID        uuid.UUID   `json:"id"`
	FormID    string      `json:"form_id"`
	Principal string      `json:"principal"`
	Kind      JournalKind `json:"kind"`
	Version   uint64      `json:"version"`
	OK        bool        `json:"ok"`
	Error     string      `json:"error,omitempty"`
	Detail    string      `json:"detail,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
