package domain

import "strings"

// EditStatus is the state reported by the asynchronous edit service.
type EditStatus string

const (
	EditPending EditStatus = "Pending"
	EditReady   EditStatus = "Ready"
	EditError   EditStatus = "Error"
	EditFailed  EditStatus = "Failed"
)

// ParseEditStatus maps an upstream status string onto the job state machine.
// Moderation verdicts are terminal failures; anything unrecognised keeps the
// job pending.
func ParseEditStatus(raw string) EditStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ready":
		return EditReady
	case "error":
		return EditError
	case "failed", "request moderated", "content moderated", "task not found":
		return EditFailed
	default:
		return EditPending
	}
}

// Terminal reports whether polling should stop at this status.
func (s EditStatus) Terminal() bool {
	return s == EditReady || s == EditError || s == EditFailed
}

// EditJob is the handle returned by the edit service plus the latest polled
// state. SubmitPayload keeps the raw submit reply for diagnostics.
type EditJob struct {
	ID            string
	PollingURL    string
	Status        EditStatus
	ResultURL     string
	SubmitPayload []byte
}

// Background is one generated backdrop variant.
type Background struct {
	URL   string `json:"url"`
	Type  string `json:"type"`
	Label string `json:"label"`
}
