package conversation

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"roundtable-hq/roundtable/pkg/persona"
)

// Strategy picks a speaker when no mention-derived hint exists.
// Implementations must be thread-safe; one strategy instance serves all
// turns of a conversation.
type Strategy interface {
	// Next selects the next speaker from the roster.
	// Returns an error if the roster is empty.
	Next(roster *persona.Roster) (persona.Persona, error)

	// Record notes that a persona has just spoken, so stateful strategies
	// can take speaking history into account.
	Record(personaID string)

	// GetName returns the strategy name for logging.
	GetName() string
}

// RoundRobinStrategy cycles through the roster in joining order.
// It uses an atomic counter so concurrent turns never pick the same slot.
type RoundRobinStrategy struct {
	counter atomic.Int64
}

// NewRoundRobinStrategy creates a round-robin strategy.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Next selects the next persona in roster order.
func (s *RoundRobinStrategy) Next(roster *persona.Roster) (persona.Persona, error) {
	if roster == nil || roster.Len() == 0 {
		return persona.Persona{}, fmt.Errorf("no personas available for round-robin selection")
	}

	count := s.counter.Add(1) - 1
	if count >= 1_000_000_000 {
		s.counter.CompareAndSwap(count+1, 0)
		count = 0
	}

	personas := roster.Personas()
	return personas[int(count%int64(len(personas)))], nil
}

// Record is a no-op; round-robin ignores speaking history.
func (s *RoundRobinStrategy) Record(personaID string) {}

// GetName returns the strategy name.
func (s *RoundRobinStrategy) GetName() string {
	return "round-robin"
}

// LeastRecentStrategy picks the persona that has gone longest without
// speaking. Personas that have never spoken are preferred, in roster order.
type LeastRecentStrategy struct {
	lastSpoke map[string]time.Time
	mu        sync.Mutex
}

// NewLeastRecentStrategy creates a least-recently-spoken strategy.
func NewLeastRecentStrategy() *LeastRecentStrategy {
	return &LeastRecentStrategy{
		lastSpoke: make(map[string]time.Time),
	}
}

// Next selects the persona that spoke least recently.
func (s *LeastRecentStrategy) Next(roster *persona.Roster) (persona.Persona, error) {
	if roster == nil || roster.Len() == 0 {
		return persona.Persona{}, fmt.Errorf("no personas available for least-recent selection")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var chosen persona.Persona
	var chosenAt time.Time
	found := false

	for _, p := range roster.Personas() {
		at, spoke := s.lastSpoke[p.ID]
		if !spoke {
			// Never spoke: wins immediately, roster order breaks ties.
			return p, nil
		}
		if !found || at.Before(chosenAt) {
			chosen = p
			chosenAt = at
			found = true
		}
	}

	return chosen, nil
}

// Record notes the time a persona spoke.
func (s *LeastRecentStrategy) Record(personaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSpoke[personaID] = time.Now()
}

// GetName returns the strategy name.
func (s *LeastRecentStrategy) GetName() string {
	return "least-recent"
}
