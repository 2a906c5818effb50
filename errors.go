package hydrate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownField is returned from Hydrate when strict mode meets an
	// input key with no matching rule. Options.StrictError substitutes a
	// caller-chosen error kind.
	ErrUnknownField = errors.New("undefined property")
)

// SchemaError reports a schema which cannot be built or resolved: an
// explicit rule naming no declared field, duplicate source or target names,
// or an unresolvable bound class.
type SchemaError struct {
	Class   string
	Message string
	Err     error
}

func (e *SchemaError) Error() string {
	if e.Class != "" {
		return fmt.Sprintf("schema error for %s: %s", e.Class, e.Message)
	}
	return e.Message
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// classNotFound builds the schema error for a bound class name with no
// registered type.
func classNotFound(name string) *SchemaError {
	return &SchemaError{Message: fmt.Sprintf("Class not found: %s", name)}
}

// ValidationError reports a value rejected by a rule's validator.
type ValidationError struct {
	Property string
	Message  string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("invalid value for %q: %v", e.Property, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DuplicateKeyError reports an array-key collision. The colliding element
// is dropped, the rest of the array is still processed.
type DuplicateKeyError struct {
	Property string
	Key      string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q", e.Key)
}

// ConstructionError reports a failed constructor invocation. The message
// is uniformly prefixed so callers can pattern-match on it.
type ConstructionError struct {
	Class   string
	Message string
	Err     error
}

func (e *ConstructionError) Error() string {
	return "Unable to construct: " + e.Message
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// RequiredFieldError lists the required source names absent from one
// hydration input.
type RequiredFieldError struct {
	Missing []string
}

func (e *RequiredFieldError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		quoted[i] = fmt.Sprintf("%q", m)
	}
	return "no value provided for " + strings.Join(quoted, ", ")
}

// propertyErrorPrefix is the wrapper line logged before the cause lines of
// a failed property assignment.
func propertyErrorPrefix(name string) string {
	return fmt.Sprintf("Unable to configure property %q:", name)
}
