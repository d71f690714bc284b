package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ProfileStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type ProfileStore interface {
	SetProfileKey(key, value string) error
	GetProfileKey(key string) (string, error)
	GetAllProfileKeys() (map[string]string, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager provides cached, structured access to the user profile stored in SQLite.
type Manager struct {
	store ProfileStore
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *Profile
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store ProfileStore) *Manager {
	return &Manager{
		store: store,
		clock: realClock{},
		ttl:   60 * time.Second,
	}
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store ProfileStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// GetProfile reads all profile keys from storage (or cache) and assembles
// a structured Profile. Returns a zero-value Profile on empty store.
func (m *Manager) GetProfile() (Profile, error) {
	// Fast path: read lock for cache hit.
	m.mu.RLock()
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		p := copyProfile(m.cached)
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	// Slow path: write lock for cache miss.
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		return copyProfile(m.cached), nil
	}

	keys, err := m.store.GetAllProfileKeys()
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile keys: %w", err)
	}

	p := buildProfile(keys)
	m.cached = &p
	m.cachedAt = m.clock.Now()
	return copyProfile(&p), nil
}

// SetField persists a profile key and invalidates the cache.
func (m *Manager) SetField(key string, value interface{}) error {
	if !validKey(key) {
		return fmt.Errorf("unknown profile key %q", key)
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling value for key %q: %w", key, err)
		}
		str = string(b)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetProfileKey(key, str); err != nil {
		return fmt.Errorf("setting profile key %q: %w", key, err)
	}

	m.cached = nil
	return nil
}

func validKey(key string) bool {
	switch key {
	case "name", "bio", "values", "interests", "goals":
		return true
	}
	return false
}

// PromptBlock renders the profile as the block of lines injected into
// analysis and chat prompts. Missing fields render as "not set" so the
// model never sees an empty section.
func (p Profile) PromptBlock() string {
	orNotSet := func(s string) string {
		if s == "" {
			return "not set"
		}
		return s
	}
	listOrNotSet := func(list []string) string {
		if len(list) == 0 {
			return "not set"
		}
		return strings.Join(list, ", ")
	}
	return strings.Join([]string{
		"User profile:",
		"Name: " + orNotSet(p.Name),
		"Bio: " + orNotSet(p.Bio),
		"Values: " + listOrNotSet(p.Values),
		"Interests: " + listOrNotSet(p.Interests),
		"Goals: " + orNotSet(p.Goals),
	}, "\n")
}

func copyProfile(p *Profile) Profile {
	if p == nil {
		return Profile{}
	}
	cp := *p
	if p.Values != nil {
		cp.Values = make([]string, len(p.Values))
		copy(cp.Values, p.Values)
	}
	if p.Interests != nil {
		cp.Interests = make([]string, len(p.Interests))
		copy(cp.Interests, p.Interests)
	}
	return cp
}

// buildProfile assembles a Profile from flat key-value pairs. List values
// ("values", "interests") are stored as JSON arrays.
func buildProfile(keys map[string]string) Profile {
	var p Profile

	if v, ok := keys["name"]; ok {
		p.Name = v
	}
	if v, ok := keys["bio"]; ok {
		p.Bio = v
	}
	if v, ok := keys["goals"]; ok {
		p.Goals = v
	}

	unmarshalProfileKey(keys, "values", &p.Values)
	unmarshalProfileKey(keys, "interests", &p.Interests)

	return p
}

// unmarshalProfileKey unmarshals a JSON value from keys into target, logging
// a warning if the value is present but malformed.
func unmarshalProfileKey(keys map[string]string, key string, target interface{}) {
	v, ok := keys[key]
	if !ok {
		return
	}
	if err := json.Unmarshal([]byte(v), target); err != nil {
		slog.Warn("malformed profile key, skipping", "key", key, "error", err)
	}
}
