package conversation

import (
	"sync"

	"roundtable-hq/roundtable/pkg/persona"
)

// Router decides which persona responds next. It combines the
// mention-derived hint, the conversation mode, and a caller-supplied
// fallback strategy; the hint always has highest precedence, and the
// router never hardcodes a fallback of its own.
//
// A router belongs to one conversation and is safe for concurrent use.
type Router struct {
	mode  Mode
	state State
	mu    sync.Mutex
}

// NewRouter creates a router for an active conversation in the given mode.
func NewRouter(mode Mode) *Router {
	return &Router{
		mode:  mode,
		state: StateActive,
	}
}

// Mode returns the conversation mode.
func (r *Router) Mode() Mode {
	return r.mode
}

// State returns the current conversation state.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// End transitions the conversation to the ended state. Ending twice is a
// no-op; there is no way back to active.
func (r *Router) End() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateEnded
}

// NextTurn resolves the next speaker for the conversation.
//
// In manual mode the mention-derived hint is returned verbatim, empty or
// not; the caller decides what to do when it is absent. In automatic mode
// the hint is honored when present, otherwise the fallback strategy picks.
//
// Calling NextTurn on an ended conversation fails with InvalidStateError;
// it never silently no-ops.
func (r *Router) NextTurn(decision *TurnDecision, roster *persona.Roster, fallback Strategy) (string, error) {
	r.mu.Lock()
	if r.state != StateActive {
		state := r.state
		r.mu.Unlock()
		return "", &InvalidStateError{State: state, Op: "route next turn"}
	}
	r.mu.Unlock()

	var hint string
	if decision != nil {
		hint = decision.NextPersonaID
	}

	if r.mode == ModeManual {
		return hint, nil
	}

	if hint != "" {
		return hint, nil
	}

	if fallback == nil {
		return "", nil
	}

	next, err := fallback.Next(roster)
	if err != nil {
		return "", err
	}
	return next.ID, nil
}
