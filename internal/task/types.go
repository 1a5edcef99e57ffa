package task

import (
	"time"

	"uploader/internal/storage"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition may follow s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Task struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Filename  string    `json:"filename"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Options struct {
	Writer              storage.Writer
	MaxConcurrentWrites int
	// Compressed receives a gzip copy of every upload when set. Its names
	// must not overlap with Writer's.
	Compressed storage.Writer
}

const defaultMaxConcurrent = 8
