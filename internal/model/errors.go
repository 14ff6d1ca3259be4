package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means no strategy located the requested element.
	ErrNotFound = errors.New("element not found")
	// ErrBindingLost means the bound wizard window is gone and could not be
	// re-acquired; callers degrade to pixel-only strategies.
	ErrBindingLost = errors.New("window binding lost")
	// ErrActionRejected means an action was delivered but its effect was not
	// observed (for example, a text field that did not take the value).
	ErrActionRejected = errors.New("action rejected")
	// ErrVerificationInconclusive means post-install verification could not
	// confirm the install either way.
	ErrVerificationInconclusive = errors.New("verification inconclusive")
)

// NotFoundError reports which strategies were tried for a query.
type NotFoundError struct {
	Query string
	Tried []string
}

func (e *NotFoundError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("%s: %s (no strategies applicable)", ErrNotFound, e.Query)
	}
	return fmt.Sprintf("%s: %s (tried %s)", ErrNotFound, e.Query, strings.Join(e.Tried, ", "))
}

// Is makes errors.Is(err, ErrNotFound) hold for any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
