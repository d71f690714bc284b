package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/shizuku/internal/gemini"
)

// ReportType selects which facet of a completed analysis a detailed
// report expands on.
type ReportType string

const (
	ReportMonthlyTheme    ReportType = "MONTHLY_THEME"
	ReportBigFive         ReportType = "BIG_FIVE"
	ReportMBTI            ReportType = "MBTI"
	ReportStrengthsValues ReportType = "STRENGTHS_VALUES"
	ReportKeywords        ReportType = "KEYWORDS"
	ReportSentimentTrend  ReportType = "SENTIMENT_TREND"
)

// ValidReportType reports whether t names a known report facet.
func ValidReportType(t ReportType) bool {
	switch t {
	case ReportMonthlyTheme, ReportBigFive, ReportMBTI,
		ReportStrengthsValues, ReportKeywords, ReportSentimentTrend:
		return true
	}
	return false
}

const reportTimeout = 60 * time.Second

// fallbackReport is shown when the provider cannot produce a report.
const fallbackReport = "### Report unavailable\nThe detailed report could not be generated right now. Please try again later."

var reportFocus = map[ReportType]string{
	ReportMonthlyTheme:    "the monthly theme: what it means, where it shows up in the entries, and how to build on it",
	ReportBigFive:         "the Big Five personality scores: what each score suggests and how the traits interact",
	ReportMBTI:            "the estimated MBTI type: what the axis scores indicate and where the estimate is uncertain",
	ReportStrengthsValues: "the top strengths and core values: how they reinforce each other in daily life",
	ReportKeywords:        "the recurring keywords: the patterns behind them and what they reveal",
	ReportSentimentTrend:  "the emotional trend over the recent entries: its direction and likely drivers",
}

// Reporter expands one facet of a JournalAnalysis into a longer markdown
// report.
type Reporter struct {
	client Generator
	model  string
}

// NewReporter creates a Reporter using the given provider client and model name.
func NewReporter(client Generator, model string) *Reporter {
	return &Reporter{client: client, model: model}
}

// Report generates a detailed markdown report for one facet of a completed
// analysis. On provider failure it returns a fixed retry-later text rather
// than an error so callers always have something to render.
func (r *Reporter) Report(ctx context.Context, t ReportType, a JournalAnalysis, summaries string) string {
	if !ValidReportType(t) {
		return fallbackReport
	}

	ctx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	prompt := buildReportPrompt(t, a, summaries)
	raw, err := r.client.Generate(ctx, r.model, "",
		[]gemini.Content{gemini.Text("user", prompt)}, nil)
	if err != nil {
		slog.Warn("detailed report call failed", "type", t, "error", err)
		return fallbackReport
	}
	return gemini.StripFences(raw)
}

func buildReportPrompt(t ReportType, a JournalAnalysis, summaries string) string {
	analysisJSON := fmt.Sprintf(
		"Monthly theme: %s\nOverall insight: %s\nKeywords: %v\nCore values: %v\nTop strengths: %v\n"+
			"Big Five (0-100): openness %d, conscientiousness %d, extraversion %d, agreeableness %d, neuroticism %d\n"+
			"MBTI: %s (ei %d, sn %d, tf %d, jp %d)",
		a.MonthlyTheme, a.OverallInsight, a.Keywords, a.CoreValues, a.TopStrengths,
		a.PersonalityTraits.Openness, a.PersonalityTraits.Conscientiousness,
		a.PersonalityTraits.Extraversion, a.PersonalityTraits.Agreeableness,
		a.PersonalityTraits.Neuroticism,
		a.MBTIType, a.MBTIScores.EI, a.MBTIScores.SN, a.MBTIScores.TF, a.MBTIScores.JP)

	return fmt.Sprintf(`You are an expert psychology AI. Using the analysis results and journal
summaries below, write a detailed markdown report focused on %s.
Write in a warm, encouraging tone and address the user directly.

Analysis results:
%s

Journal summaries:
---
%s
---`, reportFocus[t], analysisJSON, summaries)
}
