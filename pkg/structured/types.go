package structured

// Response is the canonical structured response every call resolves to,
// whichever backend produced it.
//
// Invariant: Speaker always equals the requesting persona's name. The
// normalizer overwrites it after extraction; no adapter is trusted to
// enforce this on its own.
type Response struct {
	// Speaker is the persona name this response is attributed to
	Speaker string `json:"speaker"`

	// Content is the response text; never empty after normalization
	Content string `json:"content"`

	// Confidence is an optional self-assessment in [0, 1]
	Confidence *float64 `json:"confidence,omitempty"`

	// Reasoning optionally explains the response
	Reasoning string `json:"reasoning,omitempty"`

	// Metadata carries optional annotations passed through from the model
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Metadata holds optional annotations the model may attach. Absence of any
// field is not an error.
type Metadata struct {
	Tone              string   `json:"tone,omitempty"`
	IsFollowUp        bool     `json:"isFollowUp,omitempty"`
	MentionedSpeakers []string `json:"mentionedSpeakers,omitempty"`
	Topics            []string `json:"topics,omitempty"`
}
