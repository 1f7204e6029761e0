package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrValidation marks a permanently malformed payload. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrCapability marks a failed external capability call. Recovery relies
	// on transport-level redelivery of the whole stage invocation.
	ErrCapability = errors.New("capability error")
	// ErrNotConfigured marks an operation against an unconfigured transport
	// or publisher. Callers must degrade to an error response, not panic.
	ErrNotConfigured = errors.New("not configured")
	// ErrNotFound marks an absent or expired result entry.
	ErrNotFound = errors.New("not found")
	// ErrDelivery marks a failure on the terminal delivery path. Upstream
	// stage work is never unwound.
	ErrDelivery = errors.New("delivery error")
	// ErrTimeout marks a polling ceiling reached without completion.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrCapability
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a classified error to the response code a stage handler
// should return to its caller.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCapability):
		return http.StatusBadGateway
	case errors.Is(err, ErrNotConfigured), errors.Is(err, ErrDelivery):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable reports whether transport-level redelivery can recover from the
// error. Validation failures are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrValidation) && !errors.Is(err, ErrNotFound)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
