package insights

import (
	"testing"
	"time"

	"github.com/kalambet/shizuku/internal/storage"
)

func TestScoreLabel(t *testing.T) {
	cases := []struct {
		label string
		want  int
	}{
		{"joy", 1},
		{"gratitude", 1},
		{"relief", 1},
		{"anxiety", -1},
		{"sad", -1},
		{"fatigue", -1},
		{"calm", 0},
		{"ordinary", 0},
		{"", 0},
		{"unanalyzable", 0},
		{"totally made up emotion", 0},
		// Substring containment, not equality.
		{"quiet joy", 1},
		{"sadness", -1},
		{"JOY", 1},
	}
	for _, c := range cases {
		if got := ScoreLabel(c.label); got != c.want {
			t.Errorf("ScoreLabel(%q) = %d, want %d", c.label, got, c.want)
		}
	}
}

// A label containing several dictionary keys scores as the first declared
// key, not the first occurring in the text.
func TestScoreLabelFirstDeclaredKeyWins(t *testing.T) {
	// "sad joy" contains both "joy" (+1, declared earlier) and "sad" (-1).
	if got := ScoreLabel("sad joy"); got != 1 {
		t.Errorf("ScoreLabel(\"sad joy\") = %d, want 1", got)
	}
	// Substring semantics are deliberate, even when they look odd:
	// "unhappy" contains "happy" and scores +1.
	if got := ScoreLabel("unhappy"); got != 1 {
		t.Errorf("ScoreLabel(\"unhappy\") = %d, want 1 (substring match)", got)
	}
}

func entryWithLabels(t time.Time, labels ...string) storage.Entry {
	return storage.Entry{ID: "e-" + t.Format("0102"), CreatedAt: t, EmotionLabels: labels}
}

func TestComputeTrendWindowShape(t *testing.T) {
	today := time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
	trend := ComputeTrend(nil, today)

	if len(trend.Labels) != TrendDays || len(trend.Daily) != TrendDays || len(trend.Cumulative) != TrendDays {
		t.Fatalf("series lengths = %d/%d/%d, want %d", len(trend.Labels), len(trend.Daily), len(trend.Cumulative), TrendDays)
	}
	if trend.Labels[0] != "5/1" {
		t.Errorf("first label = %q, want 5/1", trend.Labels[0])
	}
	if trend.Labels[TrendDays-1] != "5/30" {
		t.Errorf("last label = %q, want 5/30", trend.Labels[TrendDays-1])
	}
	if trend.Current != 0 || trend.Min != 0 || trend.Max != 5 {
		t.Errorf("empty trend current/min/max = %d/%d/%d, want 0/0/5", trend.Current, trend.Min, trend.Max)
	}
}

func TestComputeTrendCumulativeDecomposition(t *testing.T) {
	today := time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
	entries := []storage.Entry{
		entryWithLabels(today.AddDate(0, 0, -2), "joy", "gratitude"), // +2
		entryWithLabels(today.AddDate(0, 0, -1), "anxiety"),          // -1
		entryWithLabels(today, "calm"),                               // 0
	}
	trend := ComputeTrend(entries, today)

	sum := 0
	for i, d := range trend.Daily {
		sum += d
		if trend.Cumulative[i] != sum {
			t.Fatalf("cumulative[%d] = %d, want running sum %d", i, trend.Cumulative[i], sum)
		}
	}
	if trend.Current != 1 {
		t.Errorf("current = %d, want 1", trend.Current)
	}
	if trend.Daily[TrendDays-3] != 2 || trend.Daily[TrendDays-2] != -1 || trend.Daily[TrendDays-1] != 0 {
		t.Errorf("last three daily values = %v, want [2 -1 0]", trend.Daily[TrendDays-3:])
	}
}

// Opposite labels written on the same day cancel out and leave the
// cumulative series flat.
func TestComputeTrendSameDayCancellation(t *testing.T) {
	today := time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
	day := today.AddDate(0, 0, -5)
	entries := []storage.Entry{
		entryWithLabels(day, "joy"),
		entryWithLabels(day.Add(4*time.Hour), "sad"),
	}
	trend := ComputeTrend(entries, today)

	for i, v := range trend.Cumulative {
		if v != 0 {
			t.Fatalf("cumulative[%d] = %d, want 0 after cancellation", i, v)
		}
	}
}

func TestComputeTrendIgnoresEntriesOutsideWindow(t *testing.T) {
	today := time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
	entries := []storage.Entry{
		entryWithLabels(today.AddDate(0, 0, -TrendDays), "joy"),       // one day too old
		entryWithLabels(today.AddDate(0, 0, 1), "joy"),                // tomorrow
		entryWithLabels(today.AddDate(0, 0, -(TrendDays - 1)), "joy"), // oldest in-window day
	}
	trend := ComputeTrend(entries, today)

	if trend.Daily[0] != 1 {
		t.Errorf("daily[0] = %d, want 1 (boundary day counts)", trend.Daily[0])
	}
	if trend.Current != 1 {
		t.Errorf("current = %d, want 1 (out-of-window entries ignored)", trend.Current)
	}
}

func TestComputeTrendDisplayRange(t *testing.T) {
	today := time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)

	// Deep negative stretch pushes the floor below zero.
	negative := []storage.Entry{
		entryWithLabels(today.AddDate(0, 0, -3), "anxiety", "worry", "fatigue"),
		entryWithLabels(today.AddDate(0, 0, -2), "anger", "regret"),
	}
	trend := ComputeTrend(negative, today)
	if trend.Min != -5 {
		t.Errorf("min = %d, want -5", trend.Min)
	}
	if trend.Max != 5 {
		t.Errorf("max = %d, want 5 (floor of display ceiling)", trend.Max)
	}

	// A long positive run raises the ceiling past 5.
	var positive []storage.Entry
	for i := 0; i < 7; i++ {
		positive = append(positive, entryWithLabels(today.AddDate(0, 0, -i), "joy"))
	}
	trend = ComputeTrend(positive, today)
	if trend.Max != 7 {
		t.Errorf("max = %d, want 7", trend.Max)
	}
	if trend.Min != 0 {
		t.Errorf("min = %d, want 0", trend.Min)
	}
}

func TestComputeTrendUnknownLabelsAreNeutral(t *testing.T) {
	today := time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
	entries := []storage.Entry{
		entryWithLabels(today, "unanalyzable", "perplexed", "???"),
	}
	trend := ComputeTrend(entries, today)
	if trend.Current != 0 {
		t.Errorf("current = %d, want 0 for unknown labels", trend.Current)
	}
}
