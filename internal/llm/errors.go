package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Error classes used by the retry policy.
var (
	// ErrTransient covers rate limiting, unavailable upstreams and network
	// failures. Retried with backoff.
	ErrTransient = errors.New("transient api error")

	// ErrMalformedResponse means the model answered but the text could not be
	// turned into the expected JSON shape. Retried like ErrTransient.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrPermanent covers every other non-success status. Not retried.
	ErrPermanent = errors.New("permanent api error")

	// ErrEmptyResponse is returned when a call succeeds without any text.
	ErrEmptyResponse = errors.New("empty model response")
)

// StatusError carries a non-success HTTP status from a backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Code)
	}
	return fmt.Sprintf("api status %d: %s", e.Code, e.Message)
}

// Is lets errors.Is match a StatusError against the class sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrTransient:
		return isTransientStatus(e.Code)
	case ErrPermanent:
		return !isTransientStatus(e.Code)
	}
	return false
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// Malformed wraps a parse failure so it classifies as ErrMalformedResponse.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether err belongs to a class the retry policy
// repeats: transient api failures and malformed responses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrMalformedResponse)
}

// Classify maps a raw backend error onto the taxonomy. Errors that already
// carry a class are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrPermanent) || errors.Is(err, ErrMalformedResponse) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}

	// Some SDKs only expose the status in the message text.
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "503", "resource_exhausted", "unavailable", "rate limit", "connection reset", "unexpected eof"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}
