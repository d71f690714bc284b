package profile

import (
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeStore counts reads so cache behavior is observable.
type fakeStore struct {
	keys  map[string]string
	reads int
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]string{}}
}

func (s *fakeStore) SetProfileKey(key, value string) error {
	s.keys[key] = value
	return nil
}

func (s *fakeStore) GetProfileKey(key string) (string, error) {
	return s.keys[key], nil
}

func (s *fakeStore) GetAllProfileKeys() (map[string]string, error) {
	s.reads++
	out := make(map[string]string, len(s.keys))
	for k, v := range s.keys {
		out[k] = v
	}
	return out, nil
}

func TestGetProfileEmptyStore(t *testing.T) {
	m := NewManager(newFakeStore())

	p, err := m.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Name != "" || p.Bio != "" || len(p.Values) != 0 {
		t.Errorf("profile = %+v, want zero value", p)
	}
}

func TestSetFieldRoundTrip(t *testing.T) {
	m := NewManager(newFakeStore())

	if err := m.SetField("name", "Mika"); err != nil {
		t.Fatalf("SetField name: %v", err)
	}
	if err := m.SetField("values", []string{"honesty", "curiosity"}); err != nil {
		t.Fatalf("SetField values: %v", err)
	}

	p, err := m.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Name != "Mika" {
		t.Errorf("name = %q", p.Name)
	}
	if len(p.Values) != 2 || p.Values[0] != "honesty" {
		t.Errorf("values = %v", p.Values)
	}
}

func TestSetFieldRejectsUnknownKey(t *testing.T) {
	m := NewManager(newFakeStore())

	if err := m.SetField("favorite_color", "blue"); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestGetProfileCachesWithinTTL(t *testing.T) {
	store := newFakeStore()
	clock := &fakeClock{now: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManagerWithClock(store, clock, time.Minute)

	if _, err := m.GetProfile(); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	clock.advance(30 * time.Second)
	if _, err := m.GetProfile(); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if store.reads != 1 {
		t.Errorf("store reads = %d, want 1 (second call served from cache)", store.reads)
	}

	clock.advance(31 * time.Second)
	if _, err := m.GetProfile(); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if store.reads != 2 {
		t.Errorf("store reads = %d, want 2 after TTL expiry", store.reads)
	}
}

func TestSetFieldInvalidatesCache(t *testing.T) {
	store := newFakeStore()
	clock := &fakeClock{now: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManagerWithClock(store, clock, time.Hour)

	if _, err := m.GetProfile(); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if err := m.SetField("bio", "Engineer in Kyoto."); err != nil {
		t.Fatalf("SetField: %v", err)
	}

	p, err := m.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Bio != "Engineer in Kyoto." {
		t.Errorf("bio = %q, want fresh value after invalidation", p.Bio)
	}
}

func TestGetProfileReturnsCopy(t *testing.T) {
	m := NewManager(newFakeStore())
	if err := m.SetField("interests", []string{"tea"}); err != nil {
		t.Fatalf("SetField: %v", err)
	}

	p1, _ := m.GetProfile()
	p1.Interests[0] = "mutated"

	p2, _ := m.GetProfile()
	if p2.Interests[0] != "tea" {
		t.Error("cached profile leaked through a shared slice")
	}
}

func TestGetProfileSkipsMalformedListKey(t *testing.T) {
	store := newFakeStore()
	store.keys["values"] = "not a json array"
	store.keys["name"] = "Mika"
	m := NewManager(store)

	p, err := m.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Name != "Mika" {
		t.Errorf("name = %q", p.Name)
	}
	if len(p.Values) != 0 {
		t.Errorf("values = %v, want malformed key skipped", p.Values)
	}
}

func TestPromptBlock(t *testing.T) {
	empty := Profile{}.PromptBlock()
	if !strings.Contains(empty, "Name: not set") {
		t.Errorf("empty block = %q", empty)
	}
	if !strings.Contains(empty, "Values: not set") {
		t.Errorf("empty block = %q", empty)
	}

	full := Profile{
		Name:      "Mika",
		Bio:       "Engineer in Kyoto.",
		Values:    []string{"honesty", "curiosity"},
		Interests: []string{"tea"},
		Goals:     "Sleep more.",
	}.PromptBlock()
	for _, want := range []string{"Name: Mika", "Values: honesty, curiosity", "Interests: tea", "Goals: Sleep more."} {
		if !strings.Contains(full, want) {
			t.Errorf("block missing %q:\n%s", want, full)
		}
	}
}
