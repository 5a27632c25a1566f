// Package persona defines the conversational identities taking part in a
// conversation and the roster mentions resolve against.
package persona

import "strings"

// Persona is a configured conversational identity bound to one
// provider/model pair. It is immutable for the duration of one call.
type Persona struct {
	// ID uniquely identifies the persona
	ID string `json:"id"`

	// Name is the key mentions resolve against within one conversation's
	// roster. Uniqueness within a roster is a caller-enforced invariant;
	// the engine assumes nothing about global uniqueness.
	Name string `json:"name"`

	// Provider is the backend this persona speaks through
	Provider string `json:"provider"`

	// Model is the model identifier used for this persona
	Model string `json:"model"`

	// Temperature controls randomness for this persona's calls
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens caps generation length for this persona's calls
	MaxTokens int `json:"max_tokens,omitempty"`

	// SystemPrompt is the persona's standing instruction
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// Roster is the set of personas currently valid as mention targets within
// one conversation. Order is the joining order and is meaningful to
// fallback turn strategies.
type Roster struct {
	personas []Persona
	byName   map[string]int // lowercased name -> index
}

// NewRoster builds a roster from the given personas. Later entries with a
// duplicate name (case-insensitive) do not displace earlier ones.
func NewRoster(personas []Persona) *Roster {
	r := &Roster{
		personas: make([]Persona, 0, len(personas)),
		byName:   make(map[string]int, len(personas)),
	}
	for _, p := range personas {
		key := strings.ToLower(p.Name)
		if _, exists := r.byName[key]; exists {
			continue
		}
		r.byName[key] = len(r.personas)
		r.personas = append(r.personas, p)
	}
	return r
}

// Names returns the persona names in roster order.
func (r *Roster) Names() []string {
	names := make([]string, len(r.personas))
	for i, p := range r.personas {
		names[i] = p.Name
	}
	return names
}

// Personas returns the personas in roster order.
func (r *Roster) Personas() []Persona {
	out := make([]Persona, len(r.personas))
	copy(out, r.personas)
	return out
}

// Len returns the number of personas in the roster.
func (r *Roster) Len() int {
	return len(r.personas)
}

// ByName looks up a persona by name, case-insensitively.
func (r *Roster) ByName(name string) (Persona, bool) {
	idx, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return Persona{}, false
	}
	return r.personas[idx], true
}

// ByID looks up a persona by ID.
func (r *Roster) ByID(id string) (Persona, bool) {
	for _, p := range r.personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}
