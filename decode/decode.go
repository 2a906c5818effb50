// Package decode converts JSON or YAML text, or already-decoded Go values,
// into ir.Node trees.
package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/confkit/hydrate/format"
	"github.com/confkit/hydrate/ir"
)

// Decode parses data in the named format into an ir tree. ObjectFormat
// carries no text and is rejected; callers with pre-decoded values use
// FromAny instead.
func Decode(data []byte, f format.Format) (*ir.Node, error) {
	switch f {
	case format.JSONFormat:
		return decodeJSON(data)
	case format.YAMLFormat:
		return decodeYAML(data)
	case format.ObjectFormat:
		return nil, &FormatError{
			Format: f,
			Input:  data,
			Err:    fmt.Errorf("object source is already decoded"),
		}
	default:
		return nil, &FormatError{Format: f, Input: data, Err: format.ErrBadFormat}
	}
}

func decodeJSON(data []byte) (*ir.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	node, err := readJSONValue(dec)
	if err != nil {
		return nil, &FormatError{Format: format.JSONFormat, Input: data, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &FormatError{
			Format: format.JSONFormat,
			Input:  data,
			Err:    fmt.Errorf("trailing data after value"),
		}
	}
	return node, nil
}

func readJSONValue(dec *json.Decoder) (*ir.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return readJSONMapping(dec)
		case '[':
			return readJSONSequence(dec)
		default:
			return nil, fmt.Errorf("unexpected %q", t)
		}
	case string:
		return ir.FromString(t), nil
	case bool:
		return ir.FromBool(t), nil
	case json.Number:
		return numberNode(t.String()), nil
	case nil:
		return ir.Null(), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func readJSONMapping(dec *json.Decoder) (*ir.Node, error) {
	res := &ir.Node{Type: ir.MappingType}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("non-string key %v", keyTok)
		}
		val, err := readJSONValue(dec)
		if err != nil {
			return nil, err
		}
		ir.Put(res, key, val)
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return res, nil
}

func readJSONSequence(dec *json.Decoder) (*ir.Node, error) {
	var vals []*ir.Node
	for dec.More() {
		val, err := readJSONValue(dec)
		if err != nil {
			return nil, err
		}
		vals = append(vals, val)
	}
	// closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return ir.FromValues(vals), nil
}

func decodeYAML(data []byte) (*ir.Node, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, &FormatError{Format: format.YAMLFormat, Input: data, Err: err}
	}
	node, err := FromAny(v)
	if err != nil {
		return nil, &FormatError{Format: format.YAMLFormat, Input: data, Err: err}
	}
	return node, nil
}

// FromAny converts an already-decoded Go value (maps, slices, scalars, or
// an *ir.Node passed through as-is) into an ir tree.
func FromAny(v any) (*ir.Node, error) {
	switch x := v.(type) {
	case nil:
		return ir.Null(), nil
	case *ir.Node:
		return x, nil
	case bool:
		return ir.FromBool(x), nil
	case string:
		return ir.FromString(x), nil
	case int:
		return ir.FromInt(int64(x)), nil
	case int32:
		return ir.FromInt(int64(x)), nil
	case int64:
		return ir.FromInt(x), nil
	case uint64:
		if x > 1<<63-1 {
			return numberNode(strconv.FormatUint(x, 10)), nil
		}
		return ir.FromInt(int64(x)), nil
	case float32:
		return ir.FromFloat(float64(x)), nil
	case float64:
		return ir.FromFloat(x), nil
	case json.Number:
		return numberNode(x.String()), nil
	case map[string]any:
		yMap := make(map[string]*ir.Node, len(x))
		for k, xv := range x {
			node, err := FromAny(xv)
			if err != nil {
				return nil, err
			}
			yMap[k] = node
		}
		return ir.FromMap(yMap), nil
	case map[any]any:
		yMap := make(map[string]*ir.Node, len(x))
		for k, xv := range x {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string mapping key %v", k)
			}
			node, err := FromAny(xv)
			if err != nil {
				return nil, err
			}
			yMap[ks] = node
		}
		return ir.FromMap(yMap), nil
	case []any:
		vals := make([]*ir.Node, len(x))
		for i, xv := range x {
			node, err := FromAny(xv)
			if err != nil {
				return nil, err
			}
			vals[i] = node
		}
		return ir.FromValues(vals), nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

// numberNode keeps the literal text and fills the int or float
// representation, whichever parses.
func numberNode(lit string) *ir.Node {
	res := &ir.Node{Type: ir.NumberType, Number: lit}
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		res.Int64 = &i
		return res
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil {
		res.Float64 = &f
	}
	return res
}
