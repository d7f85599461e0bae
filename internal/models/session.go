package models

import "time"

// SessionInfo represents an editor session as reported to clients.
type SessionInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LayoutID     string    `json:"layoutId,omitempty"` // Stored layout this session was opened from
	ElementCount int       `json:"elementCount"`
	ChairCount   int       `json:"chairCount"`
	CanUndo      bool      `json:"canUndo"`
	CanRedo      bool      `json:"canRedo"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
}
