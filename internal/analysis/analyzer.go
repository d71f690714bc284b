// Package analysis calls the AI provider to enrich journal entries and to
// derive cross-entry insights. Every provider interaction here degrades to a
// fixed fallback on failure; raw provider errors never reach the user and
// stored entries are never mutated by a failed call.
package analysis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kalambet/shizuku/internal/gemini"
	"github.com/kalambet/shizuku/internal/storage"
)

const entryAnalysisTimeout = 30 * time.Second

// Generator is the slice of the Gemini client the analyzers depend on.
type Generator interface {
	Generate(ctx context.Context, model string, system string, contents []gemini.Content, jsonSchema *gemini.Schema) (string, error)
}

// EntryAnalysis is the structured result of analyzing a single entry.
type EntryAnalysis struct {
	Summary  string   `json:"summary"`
	Emotions []string `json:"emotions"`
	Tags     []string `json:"tags"`
}

// FallbackEntryAnalysis is returned whenever the provider fails or produces
// unparseable output. The "unanalyzable" label scores neutral in the
// sentiment dictionary, so failed analyses never skew the trend.
func FallbackEntryAnalysis() EntryAnalysis {
	return EntryAnalysis{
		Summary:  "A summary could not be generated right now.",
		Emotions: []string{"unanalyzable"},
		Tags:     []string{},
	}
}

// Analyzer produces per-entry summaries, emotion labels, and tags.
type Analyzer struct {
	client Generator
	model  string
}

// NewAnalyzer creates an Analyzer using the given provider client and model name.
func NewAnalyzer(client Generator, model string) *Analyzer {
	return &Analyzer{client: client, model: model}
}

// Analyze sends the entry's four form fields to the provider and returns the
// structured analysis. On any failure (timeout, provider error, malformed
// JSON) it returns the fixed fallback; entry creation must not block or
// fail on analysis problems.
func (a *Analyzer) Analyze(ctx context.Context, e storage.Entry) EntryAnalysis {
	ctx, cancel := context.WithTimeout(ctx, entryAnalysisTimeout)
	defer cancel()

	raw, err := a.client.Generate(ctx, a.model, "",
		[]gemini.Content{gemini.Text("user", buildEntryPrompt(e))}, entrySchema())
	if err != nil {
		slog.Warn("entry analysis call failed", "entry_id", e.ID, "error", err)
		return FallbackEntryAnalysis()
	}

	var result EntryAnalysis
	if err := json.Unmarshal([]byte(gemini.StripFences(raw)), &result); err != nil {
		slog.Warn("failed to unmarshal entry analysis", "entry_id", e.ID, "error", err)
		return FallbackEntryAnalysis()
	}
	if result.Summary == "" {
		result.Summary = FallbackEntryAnalysis().Summary
	}
	if result.Emotions == nil {
		result.Emotions = []string{}
	}
	if result.Tags == nil {
		result.Tags = []string{}
	}
	return result
}

// entrySchema returns the provider JSON schema for structured entry analysis.
func entrySchema() *gemini.Schema {
	return &gemini.Schema{
		Type: "OBJECT",
		Properties: map[string]*gemini.Schema{
			"summary":  {Type: "STRING", Description: "Short 1-2 sentence summary in a positive, reflective tone"},
			"emotions": {Type: "ARRAY", Items: &gemini.Schema{Type: "STRING"}, Description: "One or two dominant emotions"},
			"tags":     {Type: "ARRAY", Items: &gemini.Schema{Type: "STRING"}, Description: "Three or four keyword tags"},
		},
		Required: []string{"summary", "emotions", "tags"},
	}
}
