package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/shizuku/internal/storage"
)

// sampleSeed is one pre-analyzed placeholder entry, offset in days from now.
type sampleSeed struct {
	daysAgo int
	body    string
	emotion string
	action  string
	thought string
	summary string
	labels  []string
	tags    []string
}

var sampleSeeds = []sampleSeed{
	{
		daysAgo: 1,
		body:    "Took a long walk in the park after work. The evening air felt great.",
		emotion: "Relaxed and a little proud of myself.",
		action:  "Walked for forty minutes without checking my phone.",
		thought: "Small breaks like this make the whole day feel lighter.",
		summary: "An evening walk brought a welcome sense of calm and a small spark of pride.",
		labels:  []string{"relief", "joy"},
		tags:    []string{"health", "routine"},
	},
	{
		daysAgo: 3,
		body:    "The project deadline moved up and the whole team scrambled.",
		emotion: "Stressed, but we pulled together.",
		action:  "Split the remaining work into small tasks with the team.",
		thought: "Pressure is easier to carry when it is shared.",
		summary: "A sudden deadline created stress, but teamwork turned it into steady progress.",
		labels:  []string{"anxiety", "gratitude"},
		tags:    []string{"work", "teamwork"},
	},
	{
		daysAgo: 5,
		body:    "Called an old friend for the first time in months.",
		emotion: "Warm and happy, like no time had passed.",
		action:  "Made plans to meet next month.",
		thought: "I should not wait so long between calls.",
		summary: "Reconnecting with an old friend brought warmth and a promise to stay in touch.",
		labels:  []string{"happiness"},
		tags:    []string{"relationships"},
	},
}

// SeedSamples inserts placeholder entries when the journal is empty, so a
// new install has something to render. Each carries IsPlaceholder so
// callers can exclude them from analysis and export.
func (s *Service) SeedSamples() error {
	n, err := s.store.CountEntries()
	if err != nil {
		return fmt.Errorf("counting entries: %w", err)
	}
	if n > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, seed := range sampleSeeds {
		e := storage.Entry{
			ID:            uuid.NewString(),
			CreatedAt:     now.AddDate(0, 0, -seed.daysAgo),
			Body:          seed.body,
			Emotion:       seed.emotion,
			Action:        seed.action,
			Thought:       seed.thought,
			Summary:       seed.summary,
			EmotionLabels: seed.labels,
			Tags:          seed.tags,
			IsPlaceholder: true,
		}
		if err := s.store.SaveEntry(e); err != nil {
			return fmt.Errorf("seeding sample entry: %w", err)
		}
	}
	return nil
}
