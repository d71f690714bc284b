package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/shizuku/internal/gemini"
	"github.com/kalambet/shizuku/internal/profile"
	"github.com/kalambet/shizuku/internal/storage"
)

type mockGenerator struct {
	reply        string
	err          error
	calls        int
	lastSys      string
	lastContents []gemini.Content
}

func (m *mockGenerator) Generate(ctx context.Context, model string, system string, contents []gemini.Content, jsonSchema *gemini.Schema) (string, error) {
	m.calls++
	m.lastSys = system
	m.lastContents = contents
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

type fixedEntries struct {
	entries []storage.Entry
}

func (f fixedEntries) ListEntries(limit, offset int) ([]storage.Entry, error) {
	if limit > 0 && limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

type fixedProfiles struct {
	p profile.Profile
}

func (f fixedProfiles) GetProfile() (profile.Profile, error) {
	return f.p, nil
}

func TestSendReturnsReply(t *testing.T) {
	gen := &mockGenerator{reply: "That sounds like a good day. What made it feel that way?"}
	s := New(gen, "m", fixedEntries{}, fixedProfiles{})

	got := s.Send(context.Background(), nil, "I had a good day today.")
	if got != gen.reply {
		t.Errorf("reply = %q", got)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}
	last := gen.lastContents[len(gen.lastContents)-1]
	if last.Role != "user" || last.Parts[0].Text != "I had a good day today." {
		t.Errorf("final content = %+v", last)
	}
}

func TestSendFallsBackOnProviderError(t *testing.T) {
	gen := &mockGenerator{err: errors.New("timeout")}
	s := New(gen, "m", fixedEntries{}, fixedProfiles{})

	if got := s.Send(context.Background(), nil, "hello"); got != fallbackReply {
		t.Errorf("reply = %q, want fallback", got)
	}
}

func TestSendReplaysHistory(t *testing.T) {
	gen := &mockGenerator{reply: "ok"}
	s := New(gen, "m", fixedEntries{}, fixedProfiles{})

	history := []Message{
		{Role: "user", Text: "I feel tired."},
		{Role: "model", Text: "What is draining you most?"},
	}
	s.Send(context.Background(), history, "Work, mostly.")

	if len(gen.lastContents) != 3 {
		t.Fatalf("got %d contents, want 3", len(gen.lastContents))
	}
	if gen.lastContents[0].Role != "user" || gen.lastContents[1].Role != "model" {
		t.Errorf("history roles = %q/%q", gen.lastContents[0].Role, gen.lastContents[1].Role)
	}
}

func TestSendCapsHistory(t *testing.T) {
	gen := &mockGenerator{reply: "ok"}
	s := New(gen, "m", fixedEntries{}, fixedProfiles{})

	history := make([]Message, historyLimit+10)
	for i := range history {
		history[i] = Message{Role: "user", Text: "turn"}
	}
	s.Send(context.Background(), history, "latest")

	if len(gen.lastContents) != historyLimit+1 {
		t.Errorf("got %d contents, want %d", len(gen.lastContents), historyLimit+1)
	}
}

func TestSystemPromptCarriesContext(t *testing.T) {
	gen := &mockGenerator{reply: "ok"}
	entries := []storage.Entry{{
		CreatedAt: time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC),
		Summary:   "A quiet walk by the river.",
	}}
	s := New(gen, "m", fixedEntries{entries: entries}, fixedProfiles{p: profile.Profile{Name: "Mika"}})

	s.Send(context.Background(), nil, "hi")

	if !strings.Contains(gen.lastSys, "Shizuku") {
		t.Error("system prompt missing persona")
	}
	if !strings.Contains(gen.lastSys, "Mika") {
		t.Error("system prompt missing profile")
	}
	if !strings.Contains(gen.lastSys, "A quiet walk by the river.") {
		t.Error("system prompt missing journal summaries")
	}
}

func TestReportEmptyHistory(t *testing.T) {
	gen := &mockGenerator{reply: "should not be called"}
	s := New(gen, "m", fixedEntries{}, fixedProfiles{})

	if got := s.Report(context.Background(), nil); got != fallbackChatReport {
		t.Errorf("report = %q, want fallback", got)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for an empty history", gen.calls)
	}
}

func TestReportSummarizesTranscript(t *testing.T) {
	gen := &mockGenerator{reply: "```markdown\n### Reflection\nYou talked about rest.\n```"}
	s := New(gen, "m", fixedEntries{}, fixedProfiles{})

	history := []Message{
		{Role: "user", Text: "I want more rest."},
		{Role: "model", Text: "What would rest look like this week?"},
	}
	got := s.Report(context.Background(), history)

	if strings.Contains(got, "```") {
		t.Errorf("report fences not stripped: %q", got)
	}
	if !strings.Contains(got, "You talked about rest.") {
		t.Errorf("report = %q", got)
	}

	prompt := gen.lastContents[0].Parts[0].Text
	if !strings.Contains(prompt, "User: I want more rest.") {
		t.Error("transcript missing user turn")
	}
	if !strings.Contains(prompt, "Shizuku: What would rest look like this week?") {
		t.Error("transcript missing model turn")
	}
}

func TestReportFallsBackOnProviderError(t *testing.T) {
	gen := &mockGenerator{err: errors.New("unavailable")}
	s := New(gen, "m", fixedEntries{}, fixedProfiles{})

	history := []Message{{Role: "user", Text: "hi"}}
	if got := s.Report(context.Background(), history); got != fallbackChatReport {
		t.Errorf("report = %q, want fallback", got)
	}
}
