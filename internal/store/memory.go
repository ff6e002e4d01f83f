package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/weatherpro/weather-ensemble/internal/weather"
)

// ErrNotFound is returned when nothing has been cached for a location.
var ErrNotFound = errors.New("no cached bundle for location")

// Entry is one cached merge result together with when it was produced.
type Entry struct {
	At     time.Time      `json:"at"`
	Bundle weather.Bundle `json:"bundle"`
}

type history struct {
	entries []Entry
}

// MemoryStore is a concurrency-safe in-memory cache of merged bundles per
// location, bounded by count and age. The scheduler writes it on every
// refresh; the API reads it when a caller asks for cached data.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*history

	maxHistory int           // max entries per location, <=0 means unlimited
	maxAge     time.Duration // max entry age, <=0 means unlimited
	clock      clockwork.Clock
}

// NewMemoryStore creates a MemoryStore with the given retention limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return NewMemoryStoreWithClock(maxHistory, maxAge, clockwork.NewRealClock())
}

// NewMemoryStoreWithClock is NewMemoryStore with an injectable time source,
// so retention can be tested against a fake clock.
func NewMemoryStoreWithClock(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*history),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// SaveBundle appends a merge result for a location and enforces retention.
func (s *MemoryStore) SaveBundle(loc weather.Location, bundle weather.Bundle) {
	key := loc.Key()
	now := s.clock.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.data[key]
	if !ok {
		h = &history{}
		s.data[key] = h
	}

	h.entries = append(h.entries, Entry{At: now, Bundle: bundle})

	if s.maxHistory > 0 && len(h.entries) > s.maxHistory {
		over := len(h.entries) - s.maxHistory
		h.entries = h.entries[over:]
	}

	if s.maxAge > 0 {
		cutoff := now.Add(-s.maxAge)
		i := 0
		for ; i < len(h.entries); i++ {
			if !h.entries[i].At.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			h.entries = h.entries[i:]
		}
	}
}

// GetLatest returns the most recent cached bundle for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[loc.Key()]
	if !ok || len(h.entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return h.entries[len(h.entries)-1], nil
}

// GetRange returns all cached entries for a location between from and to
// inclusive, oldest first.
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[loc.Key()]
	if !ok || len(h.entries) == 0 {
		return nil, ErrNotFound
	}

	var out []Entry
	for _, e := range h.entries {
		if !e.At.Before(from) && !e.At.After(to) {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}
