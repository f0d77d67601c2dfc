package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrLineNotResolvable is returned when a decrement targets a line whose
	// server id is unknown because its add is still in flight. Nothing is sent.
	ErrLineNotResolvable = errors.New("cart line not yet resolvable")
	ErrMutationFailed    = errors.New("cart mutation failed")
)

// MutationError is a failed backend call behind Increment, Decrement or Clear.
// It matches ErrMutationFailed and the underlying cause.
type MutationError struct {
	Op     string
	MenuID int64
	Err    error
}

func (e *MutationError) Error() string {
	if e.MenuID == 0 {
		return fmt.Sprintf("cart %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cart %s of menu %d failed: %v", e.Op, e.MenuID, e.Err)
}

func (e *MutationError) Unwrap() []error {
	return []error{ErrMutationFailed, e.Err}
}
