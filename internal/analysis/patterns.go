package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/shizuku/internal/gemini"
	"github.com/kalambet/shizuku/internal/profile"
	"github.com/kalambet/shizuku/internal/storage"
)

// MinEntries is the minimum number of entries needed for pattern analysis.
// Below this the provider is not called and the fixed fallback is returned.
const MinEntries = 3

// maxContextEntries caps how many entry summaries feed one analysis run.
const maxContextEntries = 30

const patternAnalysisTimeout = 90 * time.Second

// ErrProvider marks a pattern-analysis failure caused by the AI provider
// (call failure or unparseable output). The message is safe to show users.
type ErrProvider struct {
	cause error
}

func (e *ErrProvider) Error() string {
	return "analysis could not be generated right now, please retry later"
}

func (e *ErrProvider) Unwrap() error { return e.cause }

// PersonalityTraits holds Big Five scores, 0-100 each.
type PersonalityTraits struct {
	Openness          int `json:"openness"`
	Conscientiousness int `json:"conscientiousness"`
	Extraversion      int `json:"extraversion"`
	Agreeableness     int `json:"agreeableness"`
	Neuroticism       int `json:"neuroticism"`
}

// MBTIScores holds the four MBTI axis tendencies, -100 to 100 each.
type MBTIScores struct {
	EI int `json:"ei"`
	SN int `json:"sn"`
	TF int `json:"tf"`
	JP int `json:"jp"`
}

// JournalAnalysis is the full cross-entry analysis payload.
type JournalAnalysis struct {
	Keywords            []string          `json:"keywords"`
	CoreValues          []string          `json:"core_values"`
	OverallInsight      string            `json:"overall_insight"`
	MonthlyTheme        string            `json:"monthly_theme"`
	PersonalityTraits   PersonalityTraits `json:"personality_traits"`
	TopStrengths        []string          `json:"top_strengths"`
	ComprehensiveReport string            `json:"comprehensive_report"`
	MBTIType            string            `json:"mbti_type"`
	MBTIScores          MBTIScores        `json:"mbti_scores"`
}

// FallbackAnalysis is the fixed "insufficient data" payload shown until the
// user has written at least MinEntries entries.
func FallbackAnalysis() JournalAnalysis {
	return JournalAnalysis{
		Keywords:   []string{},
		CoreValues: []string{},
		OverallInsight: "There is not enough data to analyze yet. " +
			"Write three or more journal entries to unlock detailed analysis.",
		MonthlyTheme: "",
		TopStrengths: []string{},
		ComprehensiveReport: "### Report\nThere is not enough data to analyze yet. " +
			"Write three or more journal entries to read your personal report.",
		MBTIType: "",
	}
}

// PatternAnalyzer derives cross-entry insights from entry summaries.
type PatternAnalyzer struct {
	client Generator
	model  string
}

// NewPatternAnalyzer creates a PatternAnalyzer using the given provider
// client and model name.
func NewPatternAnalyzer(client Generator, model string) *PatternAnalyzer {
	return &PatternAnalyzer{client: client, model: model}
}

// Analyze gates on MinEntries, then asks the provider for the full
// JournalAnalysis. Entries should be ordered newest first; at most
// maxContextEntries summaries are sent. A nil error with the fallback
// payload means "insufficient data" (a defined state, not a failure);
// provider problems surface as *ErrProvider.
func (a *PatternAnalyzer) Analyze(ctx context.Context, entries []storage.Entry, p profile.Profile) (JournalAnalysis, error) {
	if len(entries) < MinEntries {
		return FallbackAnalysis(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, patternAnalysisTimeout)
	defer cancel()

	prompt := buildPatternPrompt(SummaryLines(entries, maxContextEntries), p)
	raw, err := a.client.Generate(ctx, a.model, "",
		[]gemini.Content{gemini.Text("user", prompt)}, patternSchema())
	if err != nil {
		slog.Warn("pattern analysis call failed", "entries", len(entries), "error", err)
		return JournalAnalysis{}, &ErrProvider{cause: err}
	}

	var result JournalAnalysis
	if err := json.Unmarshal([]byte(gemini.StripFences(raw)), &result); err != nil {
		slog.Warn("failed to unmarshal pattern analysis", "error", err)
		return JournalAnalysis{}, &ErrProvider{cause: fmt.Errorf("parsing provider output: %w", err)}
	}
	normalizeAnalysis(&result)
	return result, nil
}

// normalizeAnalysis replaces nil slices so the payload always serializes
// with empty arrays, matching the fallback shape.
func normalizeAnalysis(a *JournalAnalysis) {
	if a.Keywords == nil {
		a.Keywords = []string{}
	}
	if a.CoreValues == nil {
		a.CoreValues = []string{}
	}
	if a.TopStrengths == nil {
		a.TopStrengths = []string{}
	}
}

func patternSchema() *gemini.Schema {
	stringArray := func(desc string) *gemini.Schema {
		return &gemini.Schema{Type: "ARRAY", Items: &gemini.Schema{Type: "STRING"}, Description: desc}
	}
	return &gemini.Schema{
		Type: "OBJECT",
		Properties: map[string]*gemini.Schema{
			"overall_insight": {Type: "STRING", Description: "Overall insight across all entries"},
			"monthly_theme":   {Type: "STRING", Description: "A short theme for the current month"},
			"keywords":        stringArray("Recurring keywords"),
			"core_values":     stringArray("Inferred core values"),
			"top_strengths":   stringArray("Top character strengths"),
			"personality_traits": {
				Type: "OBJECT",
				Properties: map[string]*gemini.Schema{
					"openness":          {Type: "NUMBER"},
					"conscientiousness": {Type: "NUMBER"},
					"extraversion":      {Type: "NUMBER"},
					"agreeableness":     {Type: "NUMBER"},
					"neuroticism":       {Type: "NUMBER"},
				},
				Required: []string{"openness", "conscientiousness", "extraversion", "agreeableness", "neuroticism"},
			},
			"comprehensive_report": {Type: "STRING", Description: "Comprehensive markdown report"},
			"mbti_type":            {Type: "STRING", Description: "Estimated MBTI type"},
			"mbti_scores": {
				Type: "OBJECT",
				Properties: map[string]*gemini.Schema{
					"ei": {Type: "NUMBER"},
					"sn": {Type: "NUMBER"},
					"tf": {Type: "NUMBER"},
					"jp": {Type: "NUMBER"},
				},
				Required: []string{"ei", "sn", "tf", "jp"},
			},
		},
		Required: []string{
			"overall_insight", "monthly_theme", "keywords", "core_values",
			"top_strengths", "personality_traits", "comprehensive_report",
			"mbti_type", "mbti_scores",
		},
	}
}
