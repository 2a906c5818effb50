package hydrate

import (
	"fmt"
	"reflect"

	"github.com/confkit/hydrate/ir"
)

// Encoder performs dehydration: producing a decoded tree from a typed
// object under the same target-name-indexed rule set used for hydration,
// so hydrate and encode stay symmetric over one schema.
type Encoder struct {
	schema *Schema
}

func NewEncoder(sample any) (*Encoder, error) {
	sch, err := SchemaFor(sample)
	if err != nil {
		return nil, err
	}
	return &Encoder{schema: sch}, nil
}

// Encoder returns the per-type encoder of this session, building it on
// first use.
func (h *Hydrator) Encoder(sample any) (*Encoder, error) {
	t, err := structTypeOf(sample)
	if err != nil {
		return nil, err
	}
	if enc, ok := h.encoders[t]; ok {
		return enc, nil
	}
	enc, err := NewEncoder(sample)
	if err != nil {
		return nil, err
	}
	h.encoders[t] = enc
	return enc, nil
}

// Encode is shorthand for building the source type's encoder and encoding
// in one step.
func (h *Hydrator) Encode(source any, extra ...*PropertyRule) (*ir.Node, error) {
	enc, err := h.Encoder(source)
	if err != nil {
		return nil, err
	}
	return enc.Encode(source, extra...)
}

// Encode reads source's fields through the schema's accessor table and
// emits them under their source names, undoing any renaming. Blocked and
// ignored rules are skipped, as are rules routed through a setter with no
// backing field. extra rules are layered on top of the schema defaults by
// target name.
func (e *Encoder) Encode(source any, extra ...*PropertyRule) (*ir.Node, error) {
	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, &SchemaError{Message: "cannot encode nil"}
		}
		rv = rv.Elem()
	}
	if rv.Type() != e.schema.typ {
		return nil, &SchemaError{
			Class:   e.schema.typ.Name(),
			Message: fmt.Sprintf("cannot encode %T", source),
		}
	}

	rules, err := e.layer(extra)
	if err != nil {
		return nil, err
	}
	res := &ir.Node{Type: ir.MappingType}
	for _, r := range rules {
		if r.blocked || r.ignored || r.field == nil {
			continue
		}
		node, err := toNode(rv.FieldByIndex(r.field.Index))
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", r.target, err)
		}
		ir.Put(res, r.source, node)
	}
	return res, nil
}

// layer merges ad-hoc per-property rules over the schema's by target
// name, keeping schema rule order.
func (e *Encoder) layer(extra []*PropertyRule) ([]*PropertyRule, error) {
	if len(extra) == 0 {
		return e.schema.rules, nil
	}
	overrides := make(map[string]*PropertyRule, len(extra))
	for _, r := range extra {
		fi := e.schema.info.byName[r.Target()]
		if fi == nil {
			return nil, &SchemaError{
				Class:   e.schema.typ.Name(),
				Message: fmt.Sprintf("rule targets no declared field %q", r.Target()),
			}
		}
		r.field = fi
		overrides[r.Target()] = r
	}
	rules := make([]*PropertyRule, 0, len(e.schema.rules))
	for _, r := range e.schema.rules {
		if o, ok := overrides[r.Target()]; ok {
			rules = append(rules, o)
			delete(overrides, r.Target())
			continue
		}
		rules = append(rules, r)
	}
	for _, r := range extra {
		if _, ok := overrides[r.Target()]; ok {
			rules = append(rules, r)
		}
	}
	return rules, nil
}

// toNode converts a Go value into a tree node.
func toNode(v reflect.Value) (*ir.Node, error) {
	if !v.IsValid() {
		return ir.Null(), nil
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return ir.Null(), nil
		}
		if v.Type() == nodePtrType {
			return v.Interface().(*ir.Node).Clone(), nil
		}
		return toNode(v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			return ir.Null(), nil
		}
		return toNode(v.Elem())
	case reflect.String:
		return ir.FromString(v.String()), nil
	case reflect.Bool:
		return ir.FromBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ir.FromInt(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > 1<<63-1 {
			return nil, fmt.Errorf("value %d overflows int64", u)
		}
		return ir.FromInt(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return ir.FromFloat(v.Float()), nil
	case reflect.Slice, reflect.Array:
		vals := make([]*ir.Node, v.Len())
		for i := range v.Len() {
			node, err := toNode(v.Index(i))
			if err != nil {
				return nil, err
			}
			vals[i] = node
		}
		return ir.FromValues(vals), nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", v.Type().Key())
		}
		yMap := make(map[string]*ir.Node, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			node, err := toNode(iter.Value())
			if err != nil {
				return nil, err
			}
			yMap[iter.Key().String()] = node
		}
		return ir.FromMap(yMap), nil
	case reflect.Struct:
		info := infoFor(v.Type())
		res := &ir.Node{Type: ir.MappingType}
		for _, fi := range info.fields {
			if !fi.Exported {
				continue
			}
			node, err := toNode(v.FieldByIndex(fi.Index))
			if err != nil {
				return nil, err
			}
			ir.Put(res, fi.Name, node)
		}
		return res, nil
	default:
		return nil, fmt.Errorf("unsupported value of kind %s", v.Kind())
	}
}
