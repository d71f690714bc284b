package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kalambet/shizuku/internal/profile"
	"github.com/kalambet/shizuku/internal/storage"
)

type fixedProfiles struct {
	p profile.Profile
}

func (f fixedProfiles) GetProfile() (profile.Profile, error) {
	return f.p, nil
}

func runnerFixture(t *testing.T, gen *mockGenerator, entryCount int) (*Runner, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	for i := 0; i < entryCount; i++ {
		e := storage.Entry{
			ID:            fmt.Sprintf("e%d", i),
			CreatedAt:     time.Now().UTC().AddDate(0, 0, -i),
			Body:          fmt.Sprintf("entry %d", i),
			Summary:       fmt.Sprintf("summary %d", i),
			EmotionLabels: []string{},
			Tags:          []string{},
		}
		if err := store.SaveEntry(e); err != nil {
			t.Fatalf("save entry: %v", err)
		}
	}

	analyzer := NewPatternAnalyzer(gen, "m")
	return NewRunner(store, fixedProfiles{}, analyzer), store
}

func TestRunnerSuccessPersistsRun(t *testing.T) {
	gen := &mockGenerator{reply: validAnalysisJSON}
	r, store := runnerFixture(t, gen, 5)

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.MBTIType != "INFJ" {
		t.Errorf("result = %+v", result)
	}

	run, err := store.LatestAnalysisRun()
	if err != nil {
		t.Fatalf("LatestAnalysisRun: %v", err)
	}
	if run.Status != "succeeded" {
		t.Errorf("run status = %q, want succeeded", run.Status)
	}
	if run.EntryCount != 5 {
		t.Errorf("entry count = %d, want 5", run.EntryCount)
	}

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateSucceeded {
		t.Errorf("state = %q, want SUCCEEDED", st.State)
	}
	if st.Result == nil || st.Result.MonthlyTheme != "Steady progress" {
		t.Errorf("status result = %+v", st.Result)
	}
}

func TestRunnerProviderFailureRecordsFailedRun(t *testing.T) {
	gen := &mockGenerator{err: errors.New("quota exceeded")}
	r, store := runnerFixture(t, gen, 4)

	_, err := r.Run(context.Background())
	var provErr *ErrProvider
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want *ErrProvider", err)
	}

	run, err := store.LatestAnalysisRun()
	if err != nil {
		t.Fatalf("LatestAnalysisRun: %v", err)
	}
	if run.Status != "failed" {
		t.Errorf("run status = %q, want failed", run.Status)
	}

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateFailed {
		t.Errorf("state = %q, want FAILED", st.State)
	}
	if st.Error == "" {
		t.Error("failed status must carry an error message")
	}
}

func TestRunnerTooFewEntriesStaysUntriggered(t *testing.T) {
	gen := &mockGenerator{reply: validAnalysisJSON}
	r, _ := runnerFixture(t, gen, MinEntries-1)

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("provider called %d times with too few entries", gen.calls)
	}
	if result.OverallInsight != FallbackAnalysis().OverallInsight {
		t.Errorf("result = %+v, want fallback", result)
	}

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateNotTriggered {
		t.Errorf("state = %q, want NOT_TRIGGERED (no run recorded)", st.State)
	}
}

func TestRunnerStatusBeforeAnyRun(t *testing.T) {
	r, _ := runnerFixture(t, &mockGenerator{}, 0)

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateNotTriggered {
		t.Errorf("state = %q, want NOT_TRIGGERED", st.State)
	}
}

func TestRunnerStaleRunningRowReportsFailed(t *testing.T) {
	r, store := runnerFixture(t, &mockGenerator{}, 3)

	run := storage.AnalysisRun{
		ID:         "stale",
		CreatedAt:  time.Now().UTC(),
		Status:     "running",
		EntryCount: 3,
	}
	if err := store.SaveAnalysisRun(run); err != nil {
		t.Fatalf("SaveAnalysisRun: %v", err)
	}

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateFailed {
		t.Errorf("state = %q, want FAILED for a stale running row", st.State)
	}
	if st.Error == "" {
		t.Error("stale run must report an error message")
	}
}
