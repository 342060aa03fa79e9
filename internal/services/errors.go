package services

import "errors"

// ErrNotFound signals that the referenced entity does not exist (404-equivalent).
var ErrNotFound = errors.New("not_found")

// InvalidOperationError signals a business-rule violation (400-equivalent).
// Carries a human-readable reason; never retried automatically.
type InvalidOperationError struct {
	Reason string
}

func (e *InvalidOperationError) Error() string { return e.Reason }

func invalidOp(reason string) error { return &InvalidOperationError{Reason: reason} }

// IsInvalidOperation reports whether err is a business-rule violation and
// returns its reason when it is.
func IsInvalidOperation(err error) (string, bool) {
	var inv *InvalidOperationError
	if errors.As(err, &inv) {
		return inv.Reason, true
	}
	return "", false
}
