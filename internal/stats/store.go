// Package stats holds the counter store shared by the simulation loop and
// the metrics pull path.
package stats

import (
	"sync"
	"time"
)

// EntityCounters is one entity's cumulative state. LastSeen is only
// maintained for sources.
type EntityCounters struct {
	Name     string
	Packets  uint64
	Bytes    uint64
	LastSeen int64 // epoch seconds
}

// Store tracks per-entity cumulative counters plus the global packet
// totals. One mutex guards the whole store so snapshots never observe
// torn writes. Entities are registered once at construction and never
// removed.
type Store struct {
	mu           sync.Mutex
	sourceNames  []string
	destNames    []string
	sources      map[string]*EntityCounters
	destinations map[string]*EntityCounters
	packetsIn    uint64
	packetsOut   uint64
}

// NewStore registers the given source and destination entities with zeroed
// counters.
func NewStore(sources, destinations []string) *Store {
	s := &Store{
		sources:      make(map[string]*EntityCounters, len(sources)),
		destinations: make(map[string]*EntityCounters, len(destinations)),
	}
	for _, name := range sources {
		s.sourceNames = append(s.sourceNames, name)
		s.sources[name] = &EntityCounters{Name: name}
	}
	for _, name := range destinations {
		s.destNames = append(s.destNames, name)
		s.destinations[name] = &EntityCounters{Name: name}
	}
	return s
}

// AddTotals increments the global packet totals. Called from the
// simulation loop once per processed item.
func (s *Store) AddTotals(in, out uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packetsIn += in
	s.packetsOut += out
}

// Totals returns the current global packet totals.
func (s *Store) Totals() (in, out uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packetsIn, s.packetsOut
}

// IncrementSource adds non-negative deltas to a source's counters and
// refreshes its last-seen timestamp. The name is always pre-registered.
func (s *Store) IncrementSource(name string, packets, bytes uint64, seen time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.sources[name]
	e.Packets += packets
	e.Bytes += bytes
	e.LastSeen = seen.Unix()
}

// IncrementDestination adds non-negative deltas to a destination's counters.
func (s *Store) IncrementDestination(name string, packets, bytes uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.destinations[name]
	e.Packets += packets
	e.Bytes += bytes
}

// SourceNames returns the registered source names in registration order.
func (s *Store) SourceNames() []string {
	names := make([]string, len(s.sourceNames))
	copy(names, s.sourceNames)
	return names
}

// DestinationNames returns the registered destination names in
// registration order.
func (s *Store) DestinationNames() []string {
	names := make([]string, len(s.destNames))
	copy(names, s.destNames)
	return names
}

// SnapshotSources returns a consistent copy of all source counters in
// registration order.
func (s *Store) SnapshotSources() []EntityCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EntityCounters, 0, len(s.sourceNames))
	for _, name := range s.sourceNames {
		out = append(out, *s.sources[name])
	}
	return out
}

// SnapshotDestinations returns a consistent copy of all destination
// counters in registration order.
func (s *Store) SnapshotDestinations() []EntityCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EntityCounters, 0, len(s.destNames))
	for _, name := range s.destNames {
		out = append(out, *s.destinations[name])
	}
	return out
}
