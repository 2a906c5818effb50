package hydrate

import (
	"github.com/confkit/hydrate/format"
)

// Options configure one hydration call and are threaded through every
// recursive descent, so nested objects inherit the source and strict
// policy by default.
type Options struct {
	// Source selects the decode path for textual input. ObjectFormat means
	// the config is already decoded.
	Source format.Format

	// Strict rejects input keys with no matching rule. When a strict
	// violation occurs the remaining iteration of the current call is
	// abandoned.
	Strict bool

	// StrictError, when non-nil, is the error returned to the caller on a
	// strict-mode violation instead of ErrUnknownField.
	StrictError error

	// Parent is a back reference to the enclosing object being hydrated.
	// It is contextual only: nested rules may consult it, nothing retains
	// it beyond the call.
	Parent any

	h *Hydrator
}

// NewOptions returns the defaults: JSON source, strict mode on.
func NewOptions() *Options {
	return &Options{
		Source: format.JSONFormat,
		Strict: true,
	}
}

func (o *Options) WithSource(f format.Format) *Options {
	o.Source = f
	return o
}

func (o *Options) WithStrict(v bool) *Options {
	o.Strict = v
	return o
}

func (o *Options) WithStrictError(err error) *Options {
	o.StrictError = err
	return o
}

func (o *Options) WithParent(p any) *Options {
	o.Parent = p
	return o
}

// child derives the options passed to a nested hydration: same policy,
// with the parent back reference pointing at the enclosing target.
func (o *Options) child(parent any) *Options {
	c := *o
	c.Parent = parent
	return &c
}

// hydrator returns the session this option set belongs to, creating a
// standalone one when the options were never pushed by a Hydrate call.
func (o *Options) hydrator() *Hydrator {
	if o.h == nil {
		o.h = New()
	}
	return o.h
}
