package analysis

import (
	"fmt"
	"strings"

	"github.com/kalambet/shizuku/internal/insights"
	"github.com/kalambet/shizuku/internal/profile"
	"github.com/kalambet/shizuku/internal/storage"
)

// buildEntryPrompt renders one entry's four form fields for per-entry analysis.
func buildEntryPrompt(e storage.Entry) string {
	fullText := fmt.Sprintf("Body: %s\nEmotion: %s\nAction: %s\nThought: %s",
		e.Body, e.Emotion, e.Action, e.Thought)

	return fmt.Sprintf(`Analyze the following journal entry.
1. Write a short 1-2 sentence summary in a positive, reflective tone.
2. Identify the one or two dominant emotions.
3. Suggest three or four keyword tags categorizing the content (e.g. work, relationships, personal growth).

Journal entry:
%s`, fullText)
}

// SummaryLines renders dated entry summaries, newest first, capped at limit.
// This is the journal context injected into pattern analysis and chat.
func SummaryLines(entries []storage.Entry, limit int) string {
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	lines := make([]string, 0, limit)
	for _, e := range entries[:limit] {
		summary := e.Summary
		if summary == "" {
			summary = e.Body
		}
		lines = append(lines, fmt.Sprintf("%s: %s", insights.DateKey(e.CreatedAt), summary))
	}
	return strings.Join(lines, "\n")
}

// buildPatternPrompt assembles the cross-entry analysis request from the
// user profile and the dated summary list.
func buildPatternPrompt(summaries string, p profile.Profile) string {
	return fmt.Sprintf(`You are an expert psychology AI. Based on the user information and the
list of journal summaries below, produce a multi-faceted analysis.

%s

Summary list:
---
%s
---

Extract and generate every field of the requested JSON structure: an overall
insight, a theme for the month, recurring keywords, inferred core values, top
character strengths, Big Five personality trait scores (0-100 each), a
comprehensive markdown report, and an estimated MBTI type with axis scores
(-100 to 100 each).`, p.PromptBlock(), summaries)
}
