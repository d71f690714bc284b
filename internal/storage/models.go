package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Entry is one structured journal record. The four free-text fields follow
// the Body/Emotion/Action/Thought entry form; Summary, EmotionLabels and
// Tags are filled in by AI analysis after creation. Placeholder entries are
// sample data shown before the user has real entries and carry an explicit
// flag rather than an id naming convention.
type Entry struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Body          string    `json:"body"`
	Emotion       string    `json:"emotion"`
	Action        string    `json:"action"`
	Thought       string    `json:"thought"`
	Summary       string    `json:"summary"`
	EmotionLabels []string  `json:"emotion_labels"`
	Tags          []string  `json:"tags"`
	ChatReport    string    `json:"chat_report,omitempty"`
	Image         string    `json:"image,omitempty"`
	IsPlaceholder bool      `json:"is_placeholder"`
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}

// AnalysisRun records one pattern-analysis invocation for auditing.
// ResultJSON holds the serialized JournalAnalysis when Status is "succeeded".
type AnalysisRun struct {
	ID         string
	CreatedAt  time.Time
	Status     string // "running", "succeeded", "failed"
	EntryCount int
	ResultJSON string
	Error      string
}
