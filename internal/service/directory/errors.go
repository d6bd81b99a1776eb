package directory

import (
	"errors"
	"fmt"
)

var (
	ErrServiceConflict  = errors.New("service already exists")
	ErrWorkerNotFound   = errors.New("worker not found")
	ErrCustomerConflict = errors.New("customer already exists")
)

// ValidationError rejects malformed admin input before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
