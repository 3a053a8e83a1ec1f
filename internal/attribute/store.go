// Package attribute holds the live key/value state reported by an appliance.
//
// Values arrive from device pushes (MQTT, polling) and from local echoes of
// sent commands. A local echo shields its key for a short period so that a
// stale device push arriving in the meantime does not overwrite it.
package attribute

import (
	"sort"
	"sync"
	"time"

	"github.com/s-dimaio/JavahOn-sub000/internal/parameter"
)

// DefaultShield is how long a local echo protects its key.
const DefaultShield = 10 * time.Second

// Attribute is one live value.
type Attribute struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	LastUpdate  time.Time `json:"last_update"`
	ShieldUntil time.Time `json:"-"`
}

// Float parses the value as a number.
func (a Attribute) Float() (float64, bool) {
	f, err := parameter.ParseNumber(a.Value)
	return f, err == nil
}

// Change describes an accepted update.
type Change struct {
	Key      string
	Value    string
	Previous string
	Shielded bool
}

// Store is a concurrency-safe attribute map.
type Store struct {
	mu     sync.RWMutex
	attrs  map[string]*Attribute
	shield time.Duration
	now    func() time.Time
}

// NewStore creates an empty store. A non-positive shield uses DefaultShield.
func NewStore(shield time.Duration) *Store {
	if shield <= 0 {
		shield = DefaultShield
	}
	return &Store{
		attrs:  make(map[string]*Attribute),
		shield: shield,
		now:    time.Now,
	}
}

// Get returns the current value for key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attrs[key]
	if !ok {
		return "", false
	}
	return a.Value, true
}

// Lookup returns a copy of the attribute stored under key.
func (s *Store) Lookup(key string) (Attribute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attrs[key]
	if !ok {
		return Attribute{}, false
	}
	return *a, true
}

// Update stores value under key.
//
// A shielded update always wins and protects the key for the shield
// duration. An unshielded update to a protected key is dropped and Update
// returns false.
func (s *Store) Update(key, value string, shield bool) bool {
	_, ok := s.update(key, value, time.Time{}, shield)
	return ok
}

func (s *Store) update(key, value string, at time.Time, shield bool) (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if at.IsZero() {
		at = now
	}
	a, ok := s.attrs[key]
	if !ok {
		a = &Attribute{Key: key}
		s.attrs[key] = a
	} else if !shield && now.Before(a.ShieldUntil) {
		return Change{}, false
	}

	change := Change{Key: key, Value: value, Previous: a.Value, Shielded: shield}
	a.Value = value
	a.LastUpdate = at
	if shield {
		a.ShieldUntil = now.Add(s.shield)
	}
	return change, true
}

// Apply merges a vendor attribute payload. Entries are either plain values
// or objects carrying "parNewVal" and an optional "lastUpdate". It returns
// the accepted changes whose value differs from the previous one, sorted
// by key.
func (s *Store) Apply(entries map[string]any) []Change {
	var changes []Change
	for key, raw := range entries {
		value, at := decodeEntry(raw)
		change, ok := s.update(key, value, at, false)
		if ok && change.Value != change.Previous {
			changes = append(changes, change)
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })
	return changes
}

func decodeEntry(raw any) (string, time.Time) {
	m, ok := raw.(map[string]any)
	if !ok {
		return parameter.Stringify(raw), time.Time{}
	}
	value := parameter.Stringify(m["parNewVal"])
	var at time.Time
	if ts, ok := m["lastUpdate"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			at = t.UTC()
		}
	}
	return value, at
}

// Shielded reports whether key is currently protected.
func (s *Store) Shielded(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attrs[key]
	return ok && s.now().Before(a.ShieldUntil)
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.attrs))
	for k := range s.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of every attribute.
func (s *Store) Snapshot() map[string]Attribute {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Attribute, len(s.attrs))
	for k, a := range s.attrs {
		out[k] = *a
	}
	return out
}

// Values returns key → value for every attribute.
func (s *Store) Values() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.attrs))
	for k, a := range s.attrs {
		out[k] = a.Value
	}
	return out
}

// Len returns the number of attributes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attrs)
}
