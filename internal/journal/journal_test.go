package journal

import (
	"encoding/json"
	"testing"

	"github.com/kalambet/shizuku/internal/storage"
	"github.com/kalambet/shizuku/internal/worker"
)

func newTestService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store), store
}

func TestCreateRejectsEmptyBody(t *testing.T) {
	s, _ := newTestService(t)

	for _, body := range []string{"", "   ", "\n\t"} {
		if _, err := s.Create(NewEntryInput{Body: body}); err == nil {
			t.Errorf("Create(%q) succeeded, want validation error", body)
		}
	}
}

func TestCreatePersistsAndEnqueuesAnalysis(t *testing.T) {
	s, store := newTestService(t)

	e, err := s.Create(NewEntryInput{
		Body:    "Had lunch with an old friend.",
		Emotion: "Warm and nostalgic.",
		Action:  "Caught up over ramen.",
		Thought: "I should reach out more often.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.ID == "" {
		t.Fatal("entry has no id")
	}
	if e.Summary != "" || len(e.EmotionLabels) != 0 {
		t.Errorf("analysis fields must start empty: %+v", e)
	}

	got, err := store.GetEntry(e.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.Body != e.Body || got.Emotion != e.Emotion {
		t.Errorf("persisted entry = %+v", got)
	}

	job, err := store.ClaimNextJob([]string{worker.JobTypeEntryAnalyze})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if job == nil {
		t.Fatal("no analysis job enqueued")
	}
	var payload worker.AnalyzePayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.EntryID != e.ID {
		t.Errorf("payload entry id = %q, want %q", payload.EntryID, e.ID)
	}
}

func TestListNewestFirstAndCount(t *testing.T) {
	s, _ := newTestService(t)

	for _, body := range []string{"first", "second", "third"} {
		if _, err := s.Create(NewEntryInput{Body: body}); err != nil {
			t.Fatalf("Create(%q): %v", body, err)
		}
	}

	entries, err := s.List(2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestService(t)

	e, err := s.Create(NewEntryInput{Body: "to be removed"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(e.ID); err != storage.ErrNotFound {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(e.ID); err != storage.ErrNotFound {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestAttachChatReport(t *testing.T) {
	s, _ := newTestService(t)

	e, err := s.Create(NewEntryInput{Body: "talked it through"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.AttachChatReport(e.ID, "## Reflection\nA calm talk."); err != nil {
		t.Fatalf("AttachChatReport: %v", err)
	}

	got, err := s.Get(e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ChatReport == "" {
		t.Error("chat report not persisted")
	}
}

func TestSeedSamplesOnlyOnEmptyJournal(t *testing.T) {
	s, _ := newTestService(t)

	if err := s.SeedSamples(); err != nil {
		t.Fatalf("SeedSamples: %v", err)
	}
	entries, err := s.List(0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no sample entries seeded")
	}
	for _, e := range entries {
		if !e.IsPlaceholder {
			t.Errorf("sample entry %s not marked as placeholder", e.ID)
		}
		if e.Summary == "" || len(e.EmotionLabels) == 0 {
			t.Errorf("sample entry %s must arrive pre-analyzed", e.ID)
		}
	}

	// A second call on a non-empty journal does nothing.
	before := len(entries)
	if err := s.SeedSamples(); err != nil {
		t.Fatalf("second SeedSamples: %v", err)
	}
	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != before {
		t.Errorf("count = %d after reseeding, want %d", n, before)
	}
}
