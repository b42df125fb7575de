package editor

// NotificationKind classifies editor notifications.
type NotificationKind string

const (
	NotifySynced        NotificationKind = "synced"
	NotifySyncFailed    NotificationKind = "sync_failed"
	NotifyPublishStep   NotificationKind = "publish_step"
	NotifyPublishFailed NotificationKind = "publish_failed"
	NotifyPublished     NotificationKind = "published"
)

// Notification is surfaced to whoever is editing the form.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	FormID  string           `json:"form_id"`
	Version uint64           `json:"version,omitempty"`
	Step    PublishStep      `json:"step,omitempty"`
	Message string           `json:"message,omitempty"`
}
