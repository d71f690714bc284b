// Package worker processes background jobs from the SQLite job queue.
// Entry analysis runs here so journal writes return immediately.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/shizuku/internal/analysis"
	"github.com/kalambet/shizuku/internal/storage"
)

// JobTypeEntryAnalyze asks the worker to analyze one journal entry.
const JobTypeEntryAnalyze = "entry_analyze"

// JobStore abstracts the job queue and entry operations.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
	GetEntry(id string) (storage.Entry, error)
	UpdateEntryAnalysis(id, summary string, emotionLabels, tags []string) error
}

// EntryAnalyzer produces the structured analysis for one entry.
// Implemented by analysis.Analyzer.
type EntryAnalyzer interface {
	Analyze(ctx context.Context, e storage.Entry) analysis.EntryAnalysis
}

// Worker processes entry_analyze jobs from the SQLite job queue.
type Worker struct {
	store    JobStore
	analyzer EntryAnalyzer
	poll     time.Duration
	logger   *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, analyzer EntryAnalyzer, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:    store,
		analyzer: analyzer,
		poll:     pollInterval,
		logger:   slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single entry_analyze job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobTypeEntryAnalyze})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

// AnalyzePayload is the payload of an entry_analyze job.
type AnalyzePayload struct {
	EntryID string `json:"entry_id"`
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload AnalyzePayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	entry, err := w.store.GetEntry(payload.EntryID)
	if err != nil {
		return fmt.Errorf("loading entry %s: %w", payload.EntryID, err)
	}

	result := w.analyzer.Analyze(ctx, entry)

	if err := w.store.UpdateEntryAnalysis(entry.ID, result.Summary, result.Emotions, result.Tags); err != nil {
		return fmt.Errorf("updating entry analysis: %w", err)
	}

	return nil
}
