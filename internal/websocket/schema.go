package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing   Action = "ping"
	ActionFlush  Action = "flush"
	ActionResync Action = "resync"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError         Event = "error"
	EventPong          Event = "pong"
	EventSynced        Event = "synced"
	EventSyncFailed    Event = "sync_failed"
	EventPublishStep   Event = "publish_step"
	EventPublishFailed Event = "publish_failed"
	EventPublished     Event = "published"
	EventResynced      Event = "resynced"
)

// FormEvent is one editor notification for a form, as published on the
// form's Redis channel and relayed to every connected editor tab.
type FormEvent struct {
	Event   Event  `json:"event"`
	FormID  string `json:"form_id"`
	Version uint64 `json:"version,omitempty"`
	Step    string `json:"step,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
