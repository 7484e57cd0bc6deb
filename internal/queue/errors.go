package queue

import "errors"

// ErrNotFound is returned when a job, collection, or wanted id does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned when a requested status change is not
// present in the state graph, or violates a guard such as the single
// global encode / single per-drive rip invariants.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrorClassifier lets errors declare a classification for structured
// logging and diagnostics without dictating how the caller reacts to them.
type ErrorClassifier interface {
	// ErrorKind returns a short classification: "not_found",
	// "invalid_transition", "disc_read", "rip", "encode", "move",
	// "catalog_unavailable", "notifier_unavailable".
	ErrorKind() string
}

type classifiedError struct {
	kind string
	err  error
}

func (c *classifiedError) Error() string { return c.err.Error() }
func (c *classifiedError) Unwrap() error { return c.err }
func (c *classifiedError) ErrorKind() string { return c.kind }

// Classify wraps err with a kind label for structured logging. It leaves
// errors.Is/errors.As working against the original error via Unwrap.
func Classify(kind string, err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{kind: kind, err: err}
}
