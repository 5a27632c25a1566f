package conversation

import "fmt"

// Mode controls how the next speaker is chosen.
type Mode string

const (
	// ModeAutomatic lets the engine pick the next speaker: a mention-derived
	// hint first, the fallback strategy otherwise.
	ModeAutomatic Mode = "automatic"

	// ModeManual surfaces the hint verbatim and leaves the decision to the
	// caller.
	ModeManual Mode = "manual"
)

// State is the conversation lifecycle state.
type State string

const (
	StateActive State = "active"
	StateEnded  State = "ended"
)

// TurnDecision is the outcome of parsing one assistant message: who was
// mentioned, and who should speak next if anyone. It is derived per message
// and never persisted by the engine.
type TurnDecision struct {
	// NextPersonaID is the ID of the persona that should respond next,
	// empty when no mention qualified.
	NextPersonaID string `json:"next_persona_id,omitempty"`

	// Mentions lists mentioned persona names, deduplicated, in first-seen
	// document order.
	Mentions []string `json:"mentions"`

	// Content is the message text with mention directives rewritten to
	// @Name form.
	Content string `json:"content"`

	// Reasoning carries the reason string from a mention directive, if one
	// was present.
	Reasoning string `json:"reasoning,omitempty"`
}

// InvalidStateError reports an operation attempted in a conversation state
// that does not permit it, e.g. routing a turn after the conversation ended.
type InvalidStateError struct {
	// State is the conversation state at the time of the call
	State State

	// Op is the attempted operation
	Op string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("conversation is %s: cannot %s", e.State, e.Op)
}
