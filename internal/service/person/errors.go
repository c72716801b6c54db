package person

import (
	"errors"
	"strings"
)

// Sentinel errors for the person service layer.
var (
	ErrNotFound       = errors.New("person not found")
	ErrEmailLocked    = errors.New("email address is being registered by another request")
	ErrDuplicateEmail = errors.New("email address already exists")
)

// FieldError describes a single rule violation on a Person payload.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries every rule violation found for a payload.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages returns the human-readable message of each violation in order.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		out = append(out, fe.Message)
	}
	return out
}

// Has reports whether the given field failed the given rule.
func (e *ValidationError) Has(field, rule string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field && fe.Rule == rule {
			return true
		}
	}
	return false
}

// StoreError wraps a failure reported by the underlying store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// storeErr wraps err as a StoreError unless it already is one or is one of
// the package's own outcome errors.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	var ve *ValidationError
	if errors.As(err, &se) || errors.As(err, &ve) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmailLocked) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
