package hydrate

import (
	"fmt"
	"reflect"
	"sync"
)

// The registries below are process wide, like the schema cache: written
// during setup, read-only during hydration. The mutex guards the first
// build race for multi-threaded hosts; steady-state reads take the read
// lock only.
var (
	regMu         sync.RWMutex
	classesByName = map[string]reflect.Type{}
	constructors  = map[reflect.Type]reflect.Value{}
	ruleOverrides = map[reflect.Type][]*PropertyRule{}

	// schemaCache maps a struct type to its bound schema. Populated at
	// most once per type and thereafter read-only; RegisterRules drops
	// the entry so the next lookup re-derives both indexes.
	schemaCache sync.Map // reflect.Type -> *Schema
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// RegisterClass makes a type resolvable by name for BoundObject and
// Construct rules. sample is a value or pointer of the type.
func RegisterClass(name string, sample any) error {
	t, err := structTypeOf(sample)
	if err != nil {
		return err
	}
	regMu.Lock()
	defer regMu.Unlock()
	if prev, ok := classesByName[name]; ok && prev != t {
		return &SchemaError{
			Class:   name,
			Message: fmt.Sprintf("already registered as %s", prev),
		}
	}
	classesByName[name] = t
	return nil
}

// RegisterConstructor installs the Construct-mode constructor for a type.
// fn must be a func returning the type (value or pointer), optionally with
// a trailing error result. Its declared parameter count is what Construct
// rules pre-check supplied arguments against.
func RegisterConstructor(sample any, fn any) error {
	t, err := structTypeOf(sample)
	if err != nil {
		return err
	}
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if fv.Kind() != reflect.Func {
		return &SchemaError{
			Class:   t.Name(),
			Message: fmt.Sprintf("constructor must be a func, got %T", fn),
		}
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errType {
			return &SchemaError{
				Class:   t.Name(),
				Message: "constructor's second result must be error",
			}
		}
	default:
		return &SchemaError{
			Class:   t.Name(),
			Message: "constructor must return the instance, optionally with an error",
		}
	}
	rt, err := structTypeOfType(ft.Out(0))
	if err != nil || rt != t {
		return &SchemaError{
			Class:   t.Name(),
			Message: fmt.Sprintf("constructor returns %s", ft.Out(0)),
		}
	}
	regMu.Lock()
	defer regMu.Unlock()
	constructors[t] = fv
	return nil
}

// RegisterRules records explicit rules for a type, overriding the default
// per-field rules the binder would synthesize. The type's cached schema is
// re-derived on next use.
func RegisterRules(sample any, rules ...*PropertyRule) error {
	t, err := structTypeOf(sample)
	if err != nil {
		return err
	}
	for _, r := range rules {
		if err := r.check(); err != nil {
			return err
		}
	}
	regMu.Lock()
	ruleOverrides[t] = append(ruleOverrides[t], rules...)
	regMu.Unlock()
	schemaCache.Delete(t)
	return nil
}

func classFor(name string) (reflect.Type, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	t, ok := classesByName[name]
	return t, ok
}

func constructorFor(t reflect.Type) (reflect.Value, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	fv, ok := constructors[t]
	return fv, ok
}

func overridesFor(t reflect.Type) []*PropertyRule {
	regMu.RLock()
	defer regMu.RUnlock()
	return ruleOverrides[t]
}

// SchemaFor returns the cached schema for sample's type, binding exported
// fields on first use.
func SchemaFor(sample any) (*Schema, error) {
	t, err := structTypeOf(sample)
	if err != nil {
		return nil, err
	}
	if sch, ok := schemaCache.Load(t); ok {
		return sch.(*Schema), nil
	}
	sch, err := bindType(t, Exported)
	if err != nil {
		return nil, err
	}
	actual, _ := schemaCache.LoadOrStore(t, sch)
	return actual.(*Schema), nil
}

func structTypeOf(sample any) (reflect.Type, error) {
	t := reflect.TypeOf(sample)
	if t == nil {
		return nil, &SchemaError{Message: "cannot bind nil"}
	}
	return structTypeOfType(t)
}

func structTypeOfType(t reflect.Type) (reflect.Type, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &SchemaError{Message: fmt.Sprintf("cannot bind non-struct type %s", t)}
	}
	return t, nil
}
