package insights

import (
	"fmt"
	"strings"
	"time"

	"github.com/kalambet/shizuku/internal/storage"
)

// TrendDays is the trailing window of the mood trend: today plus the 29
// days before it.
const TrendDays = 30

// labelScore maps one known emotion-label key to its per-day contribution.
// Declaration order matters: the first key contained in a label wins, so a
// compound label like "anxious joy" scores as its earliest dictionary hit.
type labelScore struct {
	key   string
	score int
}

var sentimentDictionary = []labelScore{
	{"joy", 1}, {"gratitude", 1}, {"fulfillment", 1}, {"anticipation", 1},
	{"happy", 1}, {"fun", 1}, {"happiness", 1}, {"relief", 1},
	{"anxiety", -1}, {"sad", -1}, {"anger", -1}, {"irritation", -1},
	{"fatigue", -1}, {"worry", -1}, {"regret", -1},
	{"calm", 0}, {"ordinary", 0}, {"relaxed", 0},
}

// ScoreLabel returns the sentiment contribution of a single emotion label.
// Matching is substring containment against the dictionary, case-insensitive;
// unrecognized labels contribute 0.
func ScoreLabel(label string) int {
	l := strings.ToLower(label)
	for _, ls := range sentimentDictionary {
		if strings.Contains(l, ls.key) {
			return ls.score
		}
	}
	return 0
}

// Trend is the 30-day cumulative sentiment series ("mental position").
type Trend struct {
	Labels     []string `json:"labels"` // "M/D" per day, oldest first
	Daily      []int    `json:"daily"`
	Cumulative []int    `json:"cumulative"`
	Current    int      `json:"current"` // last cumulative value
	Min        int      `json:"min"`     // display floor: min(0, series)
	Max        int      `json:"max"`     // display ceiling: max(5, series)
}

// ComputeTrend sums per-label scores into daily buckets over the 30-day
// window ending at today (civil dates; entries outside the window are
// ignored, not clipped) and accumulates them into a running series.
func ComputeTrend(entries []storage.Entry, today time.Time) Trend {
	start := today.AddDate(0, 0, -(TrendDays - 1))

	daily := make(map[string]int, TrendDays)
	labels := make([]string, 0, TrendDays)
	order := make([]string, 0, TrendDays)
	for i := 0; i < TrendDays; i++ {
		d := start.AddDate(0, 0, i)
		key := DateKey(d)
		order = append(order, key)
		labels = append(labels, fmt.Sprintf("%d/%d", int(d.Month()), d.Day()))
		daily[key] = 0
	}

	for _, e := range entries {
		key := DateKey(e.CreatedAt)
		if _, ok := daily[key]; !ok {
			continue
		}
		for _, label := range e.EmotionLabels {
			daily[key] += ScoreLabel(label)
		}
	}

	t := Trend{
		Labels:     labels,
		Daily:      make([]int, 0, TrendDays),
		Cumulative: make([]int, 0, TrendDays),
		Min:        0,
		Max:        5,
	}
	sum := 0
	for _, key := range order {
		sum += daily[key]
		t.Daily = append(t.Daily, daily[key])
		t.Cumulative = append(t.Cumulative, sum)
		if sum < t.Min {
			t.Min = sum
		}
		if sum > t.Max {
			t.Max = sum
		}
	}
	t.Current = t.Cumulative[len(t.Cumulative)-1]
	return t
}
