package booking

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("booking modified concurrently")
	ErrServiceNotFound   = errors.New("service not found")
	ErrServiceInactive   = errors.New("service is not active")
	ErrWorkerNotFound    = errors.New("worker not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrRateLimited       = errors.New("rate limited")
)

// ValidationError rejects malformed input before any mutation. The field
// and reason are reported to the caller verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
