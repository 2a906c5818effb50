// Package encode renders ir.Node trees as JSON or YAML text.
package encode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/confkit/hydrate/ir"
)

// MarshalJSON renders node as compact JSON, preserving mapping field order.
func MarshalJSON(node *ir.Node) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := writeJSON(node, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(node *ir.Node, w io.Writer) error {
	switch node.Type {
	case ir.MappingType:
		if err := writeString(w, "{"); err != nil {
			return err
		}
		for i, field := range node.Fields {
			if i > 0 {
				if err := writeString(w, ","); err != nil {
					return err
				}
			}
			if err := writeJSONString(field.String, w); err != nil {
				return err
			}
			if err := writeString(w, ":"); err != nil {
				return err
			}
			if err := writeJSON(node.Values[i], w); err != nil {
				return err
			}
		}
		return writeString(w, "}")
	case ir.SequenceType:
		if err := writeString(w, "["); err != nil {
			return err
		}
		for i, val := range node.Values {
			if i > 0 {
				if err := writeString(w, ","); err != nil {
					return err
				}
			}
			if err := writeJSON(val, w); err != nil {
				return err
			}
		}
		return writeString(w, "]")
	case ir.StringType:
		return writeJSONString(node.String, w)
	case ir.NumberType:
		return writeString(w, jsonNumber(node))
	case ir.BoolType:
		return writeString(w, strconv.FormatBool(node.Bool))
	case ir.NullType:
		return writeString(w, "null")
	default:
		return fmt.Errorf("cannot encode node of type %s", node.Type)
	}
}

// jsonNumber prefers the decoded literal so unusual representations
// survive a round trip byte for byte.
func jsonNumber(node *ir.Node) string {
	if node.Number != "" {
		return node.Number
	}
	if node.Int64 != nil {
		return strconv.FormatInt(*node.Int64, 10)
	}
	if node.Float64 != nil {
		return strconv.FormatFloat(*node.Float64, 'g', -1, 64)
	}
	return "0"
}

func writeJSONString(s string, w io.Writer) error {
	d, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = w.Write(d)
	return err
}

func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

// MarshalYAML renders node as YAML, preserving mapping field order via
// yaml.MapSlice.
func MarshalYAML(node *ir.Node) ([]byte, error) {
	v, err := toYAML(node)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(v)
}

func toYAML(node *ir.Node) (any, error) {
	switch node.Type {
	case ir.MappingType:
		ms := make(yaml.MapSlice, 0, len(node.Fields))
		for i, field := range node.Fields {
			v, err := toYAML(node.Values[i])
			if err != nil {
				return nil, err
			}
			ms = append(ms, yaml.MapItem{Key: field.String, Value: v})
		}
		return ms, nil
	case ir.SequenceType:
		vs := make([]any, len(node.Values))
		for i, val := range node.Values {
			v, err := toYAML(val)
			if err != nil {
				return nil, err
			}
			vs[i] = v
		}
		return vs, nil
	default:
		return scalarAny(node)
	}
}

// ToAny converts a tree into plain Go values: map[string]any for mappings,
// []any for sequences and Go scalars for the rest.
func ToAny(node *ir.Node) (any, error) {
	switch node.Type {
	case ir.MappingType:
		res := make(map[string]any, len(node.Fields))
		for i, field := range node.Fields {
			v, err := ToAny(node.Values[i])
			if err != nil {
				return nil, err
			}
			res[field.String] = v
		}
		return res, nil
	case ir.SequenceType:
		res := make([]any, len(node.Values))
		for i, val := range node.Values {
			v, err := ToAny(val)
			if err != nil {
				return nil, err
			}
			res[i] = v
		}
		return res, nil
	default:
		return scalarAny(node)
	}
}

func scalarAny(node *ir.Node) (any, error) {
	switch node.Type {
	case ir.StringType:
		return node.String, nil
	case ir.BoolType:
		return node.Bool, nil
	case ir.NullType:
		return nil, nil
	case ir.NumberType:
		if node.Int64 != nil {
			return *node.Int64, nil
		}
		if node.Float64 != nil {
			return *node.Float64, nil
		}
		return json.Number(node.Number), nil
	default:
		return nil, fmt.Errorf("cannot encode node of type %s", node.Type)
	}
}
