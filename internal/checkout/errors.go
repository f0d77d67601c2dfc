package checkout

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound means there is no staged checkout or receipt for the session.
	// Callers turn it into navigation, not an error page.
	ErrNotFound          = errors.New("checkout record not found")
	ErrEmptyCheckout     = errors.New("nothing to checkout")
	ErrLineNotStaged     = errors.New("line is not part of the staged checkout")
	ErrIllegalTransition = errors.New("illegal transition of checkout status")
	ErrInvalidDetails    = errors.New("invalid checkout details")
)

// DetailsError lists the delivery or payment fields that failed validation.
type DetailsError struct {
	Fields map[string]string
}

func (e *DetailsError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return ErrInvalidDetails.Error() + ": " + strings.Join(names, ", ")
}

func (e *DetailsError) Unwrap() error {
	return ErrInvalidDetails
}
