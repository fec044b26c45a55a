package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrDataIntegrity marks a mohalla whose ward id has no ward row
	ErrDataIntegrity = errors.New("data integrity fault")
	// ErrUpstream marks a failed or timed out reference store call
	ErrUpstream = errors.New("reference store failure")
	// ErrInvalidInput marks a malformed resolution request
	ErrInvalidInput = errors.New("invalid input")
)

// WrapError preserves the error kind together with operation context
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", operation, kind)
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// IsKind reports whether err is of the given kind
func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
