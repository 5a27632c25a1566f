package orchestrator

import (
	"errors"
	"fmt"
)

// ErrStreamAbandoned is returned when the caller's sink stopped accepting
// chunks before the stream completed. The underlying provider connection
// is closed before this is returned.
var ErrStreamAbandoned = errors.New("stream abandoned by caller")

// UnsupportedProviderError indicates the persona references a provider no
// adapter is registered for. Fatal for the call; never retried.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider %q", e.Provider)
}
