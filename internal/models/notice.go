package models

import "time"

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a message for the user, such as a rejected seat selection.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	ChairID string      `json:"chairId,omitempty"`
	Time    time.Time   `json:"time"`
}
