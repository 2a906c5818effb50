package hydrate

import (
	"fmt"
	"reflect"

	"github.com/confkit/hydrate/debug"
	"github.com/confkit/hydrate/decode"
	"github.com/confkit/hydrate/format"
	"github.com/confkit/hydrate/ir"
)

// Hydratable is the capability a nested type exposes to be auto-wired as
// a bound-object field and to control its own hydration.
type Hydratable interface {
	Hydrate(value *ir.Node, opts *Options) (bool, error)
}

// Hydrator orchestrates hydration calls. It holds the per-session option
// stack and the ordered error log; both are instance state, so concurrent
// hydrations need one Hydrator each.
type Hydrator struct {
	optStack []*Options
	log      []string
	encoders map[reflect.Type]*Encoder
}

func New() *Hydrator {
	return &Hydrator{
		encoders: map[reflect.Type]*Encoder{},
	}
}

// Errors returns the ordered diagnostics of the most recent top-level
// Hydrate call. Each entry is either a leaf diagnostic or a wrapper line
// of the form `Unable to configure property "<name>":` followed by the
// nested cause's own lines.
func (h *Hydrator) Errors() []string {
	return h.log
}

// Hydrate populates target's fields from config under target's schema.
// config is text ([]byte or string, decoded per opts.Source), an *ir.Node,
// or a plain Go value for the object source. The returned bool is the
// overall result: false means at least one diagnostic was logged, while
// fields that assigned cleanly keep their values (partial success). The
// returned error is non-nil only for conditions that abort the call: an
// undecodable input, an unbindable schema, or a strict-mode unknown key.
func (h *Hydrator) Hydrate(target any, config any, opts *Options) (bool, error) {
	if opts == nil {
		opts = NewOptions()
	}
	opts.h = h
	// the error log survives nested calls, resetting only at top level
	if len(h.optStack) == 0 {
		h.log = h.log[:0]
	}
	h.optStack = append(h.optStack, opts)
	defer func() {
		h.optStack = h.optStack[:len(h.optStack)-1]
	}()

	node, err := h.decodeConfig(config, opts)
	if err != nil {
		h.log = append(h.log, err.Error())
		return false, err
	}
	return h.hydrateNode(target, node, opts)
}

func (h *Hydrator) decodeConfig(config any, opts *Options) (*ir.Node, error) {
	switch c := config.(type) {
	case *ir.Node:
		return c, nil
	case []byte:
		if opts.Source == format.ObjectFormat {
			return decode.FromAny(config)
		}
		return decode.Decode(c, opts.Source)
	case string:
		if opts.Source == format.ObjectFormat {
			return decode.FromAny(config)
		}
		return decode.Decode([]byte(c), opts.Source)
	default:
		return decode.FromAny(config)
	}
}

func (h *Hydrator) hydrateNode(target any, node *ir.Node, opts *Options) (bool, error) {
	if node.Type != ir.MappingType {
		h.log = append(h.log, fmt.Sprintf("cannot hydrate %T from %s value", target, node.Type))
		return false, nil
	}
	sch, err := SchemaFor(target)
	if err != nil {
		h.log = append(h.log, err.Error())
		return false, err
	}
	if debug.Decode() {
		debug.Logf("hydrating %T from %v\n", target, node)
	}

	result := true
	seen := make(map[string]bool, len(node.Fields))
	for i, field := range node.Fields {
		key := field.String
		rule := sch.bySource[key]
		if rule == nil {
			if !opts.Strict {
				continue
			}
			// the one non-recoverable condition: abort the remaining
			// iteration and raise the configured kind
			h.log = append(h.log, fmt.Sprintf("undefined property %q", key))
			if opts.StrictError != nil {
				return false, opts.StrictError
			}
			return false, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		seen[key] = true

		mark := len(h.log)
		ok, err := rule.Assign(target, node.Values[i], opts)
		if err != nil {
			h.insertLog(mark, propertyErrorPrefix(rule.Source()))
			h.log = append(h.log, rule.Errors()...)
			return false, err
		}
		if !ok {
			// nested descents already appended their lines after mark;
			// the wrapper goes in front so chains read in encounter order
			h.insertLog(mark, propertyErrorPrefix(rule.Source()))
			h.log = append(h.log, rule.Errors()...)
			result = false
		}
	}

	var missing []string
	for _, rule := range sch.rules {
		if rule.Required() && !seen[rule.Source()] {
			missing = append(missing, rule.Source())
		}
	}
	if len(missing) > 0 {
		h.log = append(h.log, (&RequiredFieldError{Missing: missing}).Error())
		result = false
	}
	return result, nil
}

func (h *Hydrator) insertLog(at int, msg string) {
	h.log = append(h.log, "")
	copy(h.log[at+1:], h.log[at:])
	h.log[at] = msg
}

// Nested hydrates target with the enclosing call's session, letting a
// type's Hydrate method delegate to the engine:
//
//	func (c *Conn) Hydrate(value *ir.Node, opts *hydrate.Options) (bool, error) {
//	    return hydrate.Nested(c, value, opts)
//	}
func Nested(target any, value *ir.Node, opts *Options) (bool, error) {
	if opts == nil {
		opts = NewOptions()
	}
	return opts.hydrator().Hydrate(target, value, opts)
}

// Hydrate runs a one-shot hydration with a throwaway Hydrator, returning
// the result together with its diagnostics.
func Hydrate(target any, config any, opts *Options) (bool, []string, error) {
	h := New()
	ok, err := h.Hydrate(target, config, opts)
	return ok, h.Errors(), err
}
