package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)

// Classify maps transport-level provider errors to sentinel errors. Timeouts
// and unreachable providers are retryable by policy; an invalid response never is.
func Classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
