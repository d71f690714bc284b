// Package chat implements the conversational companion. The companion is a
// mindfulness partner persona named Shizuku that sees the user's profile and
// recent journal summaries as conversation context.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/shizuku/internal/analysis"
	"github.com/kalambet/shizuku/internal/gemini"
	"github.com/kalambet/shizuku/internal/profile"
	"github.com/kalambet/shizuku/internal/storage"
)

const (
	chatTimeout   = 60 * time.Second
	reportTimeout = 60 * time.Second

	// historyLimit caps how many prior turns are replayed to the provider.
	historyLimit = 40

	// contextEntries caps how many journal summaries seed the persona.
	contextEntries = 10
)

const fallbackReply = "Sorry, I could not respond just now. Could you say that again in a moment?"

const fallbackChatReport = "### Conversation report unavailable\nThe conversation report could not be generated right now. Please try again later."

// Message is one turn of a conversation. Role is "user" or "model".
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Generator is the slice of the Gemini client the chat service depends on.
type Generator interface {
	Generate(ctx context.Context, model string, system string, contents []gemini.Content, jsonSchema *gemini.Schema) (string, error)
}

// ChatStore is the slice of storage the chat service needs.
type ChatStore interface {
	ListEntries(limit, offset int) ([]storage.Entry, error)
}

// ProfileSource provides the profile injected into the persona prompt.
type ProfileSource interface {
	GetProfile() (profile.Profile, error)
}

// Service answers chat turns and summarizes finished conversations.
type Service struct {
	client   Generator
	model    string
	store    ChatStore
	profiles ProfileSource
}

// New creates a chat Service.
func New(client Generator, model string, store ChatStore, profiles ProfileSource) *Service {
	return &Service{client: client, model: model, store: store, profiles: profiles}
}

// Send answers one user message given the prior conversation. The persona
// system prompt is rebuilt on every call so profile edits and new entries
// show up mid-conversation. Provider failures degrade to a fixed apology
// reply instead of an error.
func (s *Service) Send(ctx context.Context, history []Message, message string) string {
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	contents := s.buildContents(history)
	contents = append(contents, gemini.Text("user", message))

	reply, err := s.client.Generate(ctx, s.model, s.systemPrompt(), contents, nil)
	if err != nil {
		slog.Warn("chat call failed", "history_len", len(history), "error", err)
		return fallbackReply
	}
	return reply
}

// Report condenses a finished conversation into a short markdown report
// suitable for attaching to a journal entry. Provider failures degrade to
// a fixed retry-later text.
func (s *Service) Report(ctx context.Context, history []Message) string {
	if len(history) == 0 {
		return fallbackChatReport
	}

	ctx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	transcript := ""
	for _, m := range trimHistory(history) {
		speaker := "User"
		if m.Role == "model" {
			speaker = "Shizuku"
		}
		transcript += fmt.Sprintf("%s: %s\n", speaker, m.Text)
	}

	prompt := fmt.Sprintf(`Summarize the conversation below as a short markdown report.
Cover: what the user talked about, how they seemed to feel, and one gentle
suggestion for them. Address the user directly and keep it under 200 words.

Conversation:
---
%s---`, transcript)

	report, err := s.client.Generate(ctx, s.model, "", []gemini.Content{gemini.Text("user", prompt)}, nil)
	if err != nil {
		slog.Warn("chat report call failed", "history_len", len(history), "error", err)
		return fallbackChatReport
	}
	return gemini.StripFences(report)
}

// buildContents converts prior turns into provider content, capped at
// historyLimit most recent turns.
func (s *Service) buildContents(history []Message) []gemini.Content {
	history = trimHistory(history)
	contents := make([]gemini.Content, 0, len(history)+1)
	for _, m := range history {
		role := m.Role
		if role != "user" && role != "model" {
			role = "user"
		}
		contents = append(contents, gemini.Text(role, m.Text))
	}
	return contents
}

func trimHistory(history []Message) []Message {
	if len(history) > historyLimit {
		return history[len(history)-historyLimit:]
	}
	return history
}

// systemPrompt renders the Shizuku persona with the current profile and
// recent journal summaries. Both lookups are best effort; the persona
// works with whatever context is available.
func (s *Service) systemPrompt() string {
	profileBlock := profile.Profile{}.PromptBlock()
	if s.profiles != nil {
		if p, err := s.profiles.GetProfile(); err == nil {
			profileBlock = p.PromptBlock()
		} else {
			slog.Warn("loading profile for chat failed", "error", err)
		}
	}

	summaries := "No journal entries yet."
	if s.store != nil {
		entries, err := s.store.ListEntries(contextEntries, 0)
		if err != nil {
			slog.Warn("loading entries for chat failed", "error", err)
		} else if len(entries) > 0 {
			summaries = analysis.SummaryLines(entries, contextEntries)
		}
	}

	return fmt.Sprintf(`You are Shizuku, a gentle mindfulness partner. You listen closely,
reflect feelings back, and ask one small question at a time. Keep replies
short and warm. Never give medical advice.

%s

Recent journal summaries:
---
%s
---`, profileBlock, summaries)
}
