package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kalambet/shizuku/internal/profile"
	"github.com/kalambet/shizuku/internal/storage"
)

// State is the lifecycle state of pattern analysis.
type State string

const (
	StateNotTriggered State = "NOT_TRIGGERED"
	StateRunning      State = "RUNNING"
	StateSucceeded    State = "SUCCEEDED"
	StateFailed       State = "FAILED"
)

// Status is a snapshot of the analysis lifecycle plus the latest result.
// Result is non-nil only when State is SUCCEEDED; Error is non-empty only
// when State is FAILED.
type Status struct {
	State      State            `json:"state"`
	Result     *JournalAnalysis `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	EntryCount int              `json:"entry_count"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// RunStore is the slice of storage the Runner needs.
type RunStore interface {
	ListEntries(limit, offset int) ([]storage.Entry, error)
	SaveAnalysisRun(run storage.AnalysisRun) error
	FinishAnalysisRun(id, status, resultJSON, errMsg string) error
	LatestAnalysisRun() (storage.AnalysisRun, error)
}

// ProfileSource provides the profile injected into analysis prompts.
type ProfileSource interface {
	GetProfile() (profile.Profile, error)
}

// Runner drives the pattern-analysis lifecycle. At most one run is in
// flight at a time; concurrent Run calls join the in-flight run and share
// its result. Each run is persisted as an analysis_runs row so the latest
// status survives restarts.
type Runner struct {
	store    RunStore
	profiles ProfileSource
	analyzer *PatternAnalyzer

	group singleflight.Group

	mu      sync.Mutex
	running bool
}

// NewRunner creates a Runner over the given store, profile source, and
// pattern analyzer.
func NewRunner(store RunStore, profiles ProfileSource, analyzer *PatternAnalyzer) *Runner {
	return &Runner{store: store, profiles: profiles, analyzer: analyzer}
}

// Run executes pattern analysis and returns its result. Concurrent callers
// are coalesced into the single in-flight run. With fewer than MinEntries
// entries the fixed fallback is returned and no run is recorded, keeping
// the lifecycle in its previous state.
func (r *Runner) Run(ctx context.Context) (JournalAnalysis, error) {
	v, err, _ := r.group.Do("analysis", func() (interface{}, error) {
		return r.runOnce(ctx)
	})
	if err != nil {
		return JournalAnalysis{}, err
	}
	return v.(JournalAnalysis), nil
}

// Running reports whether a run is currently in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) runOnce(ctx context.Context) (JournalAnalysis, error) {
	entries, err := r.store.ListEntries(maxContextEntries, 0)
	if err != nil {
		return JournalAnalysis{}, fmt.Errorf("loading entries: %w", err)
	}
	if len(entries) < MinEntries {
		return FallbackAnalysis(), nil
	}

	p, err := r.profiles.GetProfile()
	if err != nil {
		slog.Warn("loading profile for analysis failed, using empty profile", "error", err)
		p = profile.Profile{}
	}

	run := storage.AnalysisRun{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Status:     "running",
		EntryCount: len(entries),
	}
	if err := r.store.SaveAnalysisRun(run); err != nil {
		return JournalAnalysis{}, fmt.Errorf("recording analysis run: %w", err)
	}

	r.setRunning(true)
	defer r.setRunning(false)

	result, err := r.analyzer.Analyze(ctx, entries, p)
	if err != nil {
		if ferr := r.store.FinishAnalysisRun(run.ID, "failed", "", err.Error()); ferr != nil {
			slog.Error("failed to record analysis failure", "run_id", run.ID, "error", ferr)
		}
		return JournalAnalysis{}, err
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return JournalAnalysis{}, fmt.Errorf("marshalling analysis result: %w", err)
	}
	if err := r.store.FinishAnalysisRun(run.ID, "succeeded", string(resultJSON), ""); err != nil {
		slog.Error("failed to record analysis success", "run_id", run.ID, "error", err)
	}
	return result, nil
}

func (r *Runner) setRunning(v bool) {
	r.mu.Lock()
	r.running = v
	r.mu.Unlock()
}

// Status reports the current lifecycle state. An in-flight run reports
// RUNNING regardless of what is persisted; otherwise the latest stored run
// decides, and no stored run means NOT_TRIGGERED.
func (r *Runner) Status() (Status, error) {
	if r.Running() {
		return Status{State: StateRunning, UpdatedAt: time.Now().UTC()}, nil
	}

	run, err := r.store.LatestAnalysisRun()
	if err != nil {
		if err == storage.ErrNotFound {
			return Status{State: StateNotTriggered}, nil
		}
		return Status{}, fmt.Errorf("loading latest analysis run: %w", err)
	}

	st := Status{EntryCount: run.EntryCount, UpdatedAt: run.CreatedAt}
	switch run.Status {
	case "running":
		// A stale "running" row from a crashed run is treated as failed.
		st.State = StateFailed
		st.Error = "analysis was interrupted, please retry"
	case "succeeded":
		st.State = StateSucceeded
		var result JournalAnalysis
		if err := json.Unmarshal([]byte(run.ResultJSON), &result); err != nil {
			return Status{}, fmt.Errorf("parsing stored analysis result: %w", err)
		}
		st.Result = &result
	case "failed":
		st.State = StateFailed
		st.Error = run.Error
	default:
		return Status{}, fmt.Errorf("unknown analysis run status %q", run.Status)
	}
	return st, nil
}
