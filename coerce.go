package hydrate

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/confkit/hydrate/ir"
)

var nodePtrType = reflect.TypeOf((*ir.Node)(nil))

// coerceNode writes a raw tree value into a typed destination, converting
// scalars, recursing through slices, maps and structs. fieldPath names the
// destination in diagnostics.
func coerceNode(node *ir.Node, val reflect.Value, fieldPath string) error {
	if node == nil {
		return fmt.Errorf("nil value for %q", fieldPath)
	}
	typ := val.Type()

	// *ir.Node destinations take the tree itself; bare mappings are
	// defensively copied so later mutation of the source tree cannot
	// corrupt hydrated state
	if typ == nodePtrType {
		if node.Type == ir.MappingType {
			node = node.Clone()
		}
		val.Set(reflect.ValueOf(node))
		return nil
	}

	if typ.Kind() == reflect.Pointer {
		if node.Type == ir.NullType {
			val.Set(reflect.Zero(typ))
			return nil
		}
		if val.IsNil() {
			val.Set(reflect.New(typ.Elem()))
		}
		return coerceNode(node, val.Elem(), fieldPath)
	}
	if node.Type == ir.NullType {
		val.Set(reflect.Zero(typ))
		return nil
	}

	switch typ.Kind() {
	case reflect.String:
		if node.Type != ir.StringType {
			return fmt.Errorf("%q: expected string, got %s", fieldPath, node.Type)
		}
		val.SetString(node.String)
		return nil

	case reflect.Bool:
		if node.Type != ir.BoolType {
			return fmt.Errorf("%q: expected bool, got %s", fieldPath, node.Type)
		}
		val.SetBool(node.Bool)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return coerceInt(node, val, fieldPath)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return coerceUint(node, val, fieldPath)

	case reflect.Float32, reflect.Float64:
		return coerceFloat(node, val, fieldPath)

	case reflect.Slice:
		return coerceSlice(node, val, fieldPath)

	case reflect.Map:
		return coerceMap(node, val, fieldPath)

	case reflect.Struct:
		return coerceStruct(node, val, fieldPath)

	case reflect.Interface:
		return coerceInterface(node, val, fieldPath)

	default:
		return fmt.Errorf("%q: unsupported destination type %s", fieldPath, typ)
	}
}

func coerceInt(node *ir.Node, val reflect.Value, fieldPath string) error {
	var intVal int64
	switch node.Type {
	case ir.NumberType:
		switch {
		case node.Int64 != nil:
			intVal = *node.Int64
		case node.Number != "":
			parsed, err := strconv.ParseInt(node.Number, 10, 64)
			if err != nil {
				return fmt.Errorf("%q: invalid number %q", fieldPath, node.Number)
			}
			intVal = parsed
		default:
			return fmt.Errorf("%q: number has no integral value", fieldPath)
		}
	case ir.StringType:
		parsed, err := strconv.ParseInt(node.String, 10, 64)
		if err != nil {
			return fmt.Errorf("%q: cannot convert string %q to int", fieldPath, node.String)
		}
		intVal = parsed
	default:
		return fmt.Errorf("%q: expected number, got %s", fieldPath, node.Type)
	}
	if val.OverflowInt(intVal) {
		return fmt.Errorf("%q: value %d overflows %s", fieldPath, intVal, val.Type())
	}
	val.SetInt(intVal)
	return nil
}

func coerceUint(node *ir.Node, val reflect.Value, fieldPath string) error {
	var uintVal uint64
	switch node.Type {
	case ir.NumberType:
		switch {
		case node.Int64 != nil:
			if *node.Int64 < 0 {
				return fmt.Errorf("%q: negative value %d for unsigned destination", fieldPath, *node.Int64)
			}
			uintVal = uint64(*node.Int64)
		case node.Number != "":
			parsed, err := strconv.ParseUint(node.Number, 10, 64)
			if err != nil {
				return fmt.Errorf("%q: invalid unsigned number %q", fieldPath, node.Number)
			}
			uintVal = parsed
		default:
			return fmt.Errorf("%q: number has no integral value", fieldPath)
		}
	case ir.StringType:
		parsed, err := strconv.ParseUint(node.String, 10, 64)
		if err != nil {
			return fmt.Errorf("%q: cannot convert string %q to uint", fieldPath, node.String)
		}
		uintVal = parsed
	default:
		return fmt.Errorf("%q: expected number, got %s", fieldPath, node.Type)
	}
	if val.OverflowUint(uintVal) {
		return fmt.Errorf("%q: value %d overflows %s", fieldPath, uintVal, val.Type())
	}
	val.SetUint(uintVal)
	return nil
}

func coerceFloat(node *ir.Node, val reflect.Value, fieldPath string) error {
	var floatVal float64
	switch node.Type {
	case ir.NumberType:
		switch {
		case node.Float64 != nil:
			floatVal = *node.Float64
		case node.Int64 != nil:
			floatVal = float64(*node.Int64)
		case node.Number != "":
			parsed, err := strconv.ParseFloat(node.Number, 64)
			if err != nil {
				return fmt.Errorf("%q: invalid float %q", fieldPath, node.Number)
			}
			floatVal = parsed
		default:
			return fmt.Errorf("%q: number has no value", fieldPath)
		}
	case ir.StringType:
		parsed, err := strconv.ParseFloat(node.String, 64)
		if err != nil {
			return fmt.Errorf("%q: cannot convert string %q to float", fieldPath, node.String)
		}
		floatVal = parsed
	default:
		return fmt.Errorf("%q: expected number, got %s", fieldPath, node.Type)
	}
	val.SetFloat(floatVal)
	return nil
}

func coerceSlice(node *ir.Node, val reflect.Value, fieldPath string) error {
	if node.Type != ir.SequenceType {
		return fmt.Errorf("%q: expected sequence, got %s", fieldPath, node.Type)
	}
	res := reflect.MakeSlice(val.Type(), len(node.Values), len(node.Values))
	for i, el := range node.Values {
		elPath := fmt.Sprintf("%s[%d]", fieldPath, i)
		if err := coerceNode(el, res.Index(i), elPath); err != nil {
			return err
		}
	}
	val.Set(res)
	return nil
}

func coerceMap(node *ir.Node, val reflect.Value, fieldPath string) error {
	if node.Type != ir.MappingType {
		return fmt.Errorf("%q: expected mapping, got %s", fieldPath, node.Type)
	}
	typ := val.Type()
	if typ.Key().Kind() != reflect.String {
		return fmt.Errorf("%q: unsupported map key type %s", fieldPath, typ.Key())
	}
	res := reflect.MakeMapWithSize(typ, len(node.Fields))
	for i, field := range node.Fields {
		elPath := fieldPath + "." + field.String
		ev := reflect.New(typ.Elem()).Elem()
		if err := coerceNode(node.Values[i], ev, elPath); err != nil {
			return err
		}
		res.SetMapIndex(reflect.ValueOf(field.String).Convert(typ.Key()), ev)
	}
	val.Set(res)
	return nil
}

// coerceStruct fills a struct destination by field name through its
// accessor table. Unknown input keys are skipped here; strictness is the
// hydrator's concern, not the coercion layer's.
func coerceStruct(node *ir.Node, val reflect.Value, fieldPath string) error {
	if node.Type != ir.MappingType {
		return fmt.Errorf("%q: expected mapping, got %s", fieldPath, node.Type)
	}
	info := infoFor(val.Type())
	for i, field := range node.Fields {
		fi := info.byName[field.String]
		if fi == nil || !fi.Exported {
			continue
		}
		elPath := fieldPath + "." + field.String
		if err := coerceNode(node.Values[i], val.FieldByIndex(fi.Index), elPath); err != nil {
			return err
		}
	}
	return nil
}

func coerceInterface(node *ir.Node, val reflect.Value, fieldPath string) error {
	if val.Type().NumMethod() != 0 {
		return fmt.Errorf("%q: unsupported destination type %s", fieldPath, val.Type())
	}
	v, err := nodeAny(node)
	if err != nil {
		return fmt.Errorf("%q: %v", fieldPath, err)
	}
	if v == nil {
		val.Set(reflect.Zero(val.Type()))
		return nil
	}
	val.Set(reflect.ValueOf(v))
	return nil
}

// nodeAny converts a tree into plain Go values. The result shares no
// structure with the input.
func nodeAny(node *ir.Node) (any, error) {
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
		if intVal, err := strconv.ParseInt(node.Number, 10, 64); err == nil {
			return intVal, nil
		}
		if floatVal, err := strconv.ParseFloat(node.Number, 64); err == nil {
			return floatVal, nil
		}
		return nil, fmt.Errorf("invalid number %q", node.Number)
	case ir.SequenceType:
		res := make([]any, len(node.Values))
		for i, el := range node.Values {
			v, err := nodeAny(el)
			if err != nil {
				return nil, err
			}
			res[i] = v
		}
		return res, nil
	case ir.MappingType:
		res := make(map[string]any, len(node.Fields))
		for i, field := range node.Fields {
			v, err := nodeAny(node.Values[i])
			if err != nil {
				return nil, err
			}
			res[field.String] = v
		}
		return res, nil
	default:
		return nil, fmt.Errorf("unsupported node type %s", node.Type)
	}
}
