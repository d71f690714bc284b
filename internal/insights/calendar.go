// Package insights derives calendar and sentiment views from an in-memory
// snapshot of journal entries. Everything here is pure and deterministic:
// the caller passes the entry set and the reference date, and identical
// inputs always produce identical output.
package insights

import (
	"time"

	"github.com/kalambet/shizuku/internal/storage"
)

// GridCells is the fixed size of a month view: 6 rows of 7 weekdays,
// padded with days from the adjacent months.
const GridCells = 42

// Cell is one day slot in a month grid.
type Cell struct {
	Day     int            `json:"day"`
	Date    string         `json:"date"` // YYYY-MM-DD
	InMonth bool           `json:"in_month"`
	IsToday bool           `json:"is_today"`
	EntryID string         `json:"entry_id,omitempty"`
	Entry   *storage.Entry `json:"entry,omitempty"`
}

// DateKey formats t as its civil date, the bucketing key used throughout
// this package. Time-of-day and zone offsets are deliberately ignored.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// bucketByDate maps each civil date to its representative entry. When
// several entries share a date, the first one in input order wins; callers
// that want "latest first" ordering must sort before bucketing.
func bucketByDate(entries []storage.Entry) map[string]*storage.Entry {
	m := make(map[string]*storage.Entry, len(entries))
	for i := range entries {
		key := DateKey(entries[i].CreatedAt)
		if _, ok := m[key]; !ok {
			m[key] = &entries[i]
		}
	}
	return m
}

// MonthGrid lays out the given month as exactly 42 cells: leading days of
// the previous month (one per weekday before the 1st, Sunday-based), every
// day of the month, then days of the next month until the grid is full.
// Each cell carries the zero-or-one entry whose civil date matches it, and
// a today flag compared against the provided reference date.
func MonthGrid(entries []storage.Entry, year int, month time.Month, today time.Time) []Cell {
	byDate := bucketByDate(entries)
	todayKey := DateKey(today)

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	leading := int(first.Weekday())

	cells := make([]Cell, 0, GridCells)
	// Walk backwards from the 1st for the leading pad, then forward.
	start := first.AddDate(0, 0, -leading)
	for i := 0; i < GridCells; i++ {
		d := start.AddDate(0, 0, i)
		key := DateKey(d)
		cell := Cell{
			Day:     d.Day(),
			Date:    key,
			InMonth: d.Month() == month && d.Year() == year,
			IsToday: key == todayKey,
		}
		if e, ok := byDate[key]; ok {
			cell.Entry = e
			cell.EntryID = e.ID
		}
		cells = append(cells, cell)
	}
	return cells
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
