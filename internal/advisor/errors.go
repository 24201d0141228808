package advisor

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Every error leaving this package
// wraps exactly one of these, so the HTTP boundary can map failures to the
// right status code with errors.Is.
var (
	// ErrValidation is a missing or empty input; no network call was made.
	ErrValidation = errors.New("invalid input")

	// ErrDecode is a malformed transport encoding or undecodable image.
	ErrDecode = errors.New("image decode failed")

	// ErrTimeout is a provider call that exceeded its budget.
	ErrTimeout = errors.New("model call timed out")

	// ErrMalformedResponse is provider output that is not valid JSON after
	// sanitization, or contains no text at all.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrNoContext is a refinement request with no resumable session.
	ErrNoContext = errors.New("no active session")

	// ErrProvider is any other failure from the model provider.
	ErrProvider = errors.New("model provider failure")
)

// classifySendError maps a session send failure onto the taxonomy. A deadline
// hit on our own budget is a timeout; everything else is the provider's fault.
func classifySendError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrProvider, err)
}
