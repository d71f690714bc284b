// Package journal owns the entry lifecycle: creation, listing, deletion,
// and queueing each new entry for background AI analysis.
package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/shizuku/internal/storage"
	"github.com/kalambet/shizuku/internal/worker"
)

// EntryStore is the slice of storage the journal service needs.
type EntryStore interface {
	SaveEntry(e storage.Entry) error
	GetEntry(id string) (storage.Entry, error)
	ListEntries(limit, offset int) ([]storage.Entry, error)
	CountEntries() (int, error)
	UpdateEntryChatReport(id, report string) error
	DeleteEntry(id string) error
	EnqueueJob(job storage.Job) error
}

// NewEntryInput carries the user-authored fields of a new entry.
type NewEntryInput struct {
	Body    string `json:"body"`
	Emotion string `json:"emotion"`
	Action  string `json:"action"`
	Thought string `json:"thought"`
	Image   string `json:"image"`
}

// Service manages journal entries on top of storage.
type Service struct {
	store EntryStore
}

// New creates a journal Service.
func New(store EntryStore) *Service {
	return &Service{store: store}
}

// Create validates and persists a new entry, then enqueues it for
// background analysis. The entry is returned immediately with analysis
// fields empty; the worker fills them in later.
func (s *Service) Create(in NewEntryInput) (storage.Entry, error) {
	if strings.TrimSpace(in.Body) == "" {
		return storage.Entry{}, fmt.Errorf("entry body must not be empty")
	}

	e := storage.Entry{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Body:          in.Body,
		Emotion:       in.Emotion,
		Action:        in.Action,
		Thought:       in.Thought,
		Image:         in.Image,
		EmotionLabels: []string{},
		Tags:          []string{},
	}
	if err := s.store.SaveEntry(e); err != nil {
		return storage.Entry{}, fmt.Errorf("saving entry: %w", err)
	}

	if err := s.enqueueAnalysis(e.ID); err != nil {
		// The entry is saved; analysis can be retried by re-saving later.
		slog.Warn("failed to enqueue entry analysis", "entry_id", e.ID, "error", err)
	}
	return e, nil
}

func (s *Service) enqueueAnalysis(entryID string) error {
	payload, err := json.Marshal(worker.AnalyzePayload{EntryID: entryID})
	if err != nil {
		return fmt.Errorf("marshalling payload: %w", err)
	}
	return s.store.EnqueueJob(storage.Job{
		ID:          uuid.NewString(),
		Type:        worker.JobTypeEntryAnalyze,
		PayloadJSON: string(payload),
		Status:      "pending",
		RunAfter:    time.Now().UTC(),
		CreatedAt:   time.Now().UTC(),
	})
}

// Get returns one entry by id.
func (s *Service) Get(id string) (storage.Entry, error) {
	return s.store.GetEntry(id)
}

// List returns entries newest first. limit <= 0 means no limit.
func (s *Service) List(limit, offset int) ([]storage.Entry, error) {
	return s.store.ListEntries(limit, offset)
}

// Count returns the total number of entries.
func (s *Service) Count() (int, error) {
	return s.store.CountEntries()
}

// AttachChatReport stores a conversation report on an entry.
func (s *Service) AttachChatReport(id, report string) error {
	return s.store.UpdateEntryChatReport(id, report)
}

// Delete removes one entry by id.
func (s *Service) Delete(id string) error {
	return s.store.DeleteEntry(id)
}
