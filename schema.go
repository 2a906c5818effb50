package hydrate

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/confkit/hydrate/debug"
)

// Visibility selects which declared fields the binder enumerates.
type Visibility int

const (
	Exported Visibility = 1 << iota
	Unexported
)

// fieldInfo is one entry of a type's accessor table: assignments go
// through the recorded index path, never by-name mutation at assign time.
type fieldInfo struct {
	Name     string
	Index    []int
	Type     reflect.Type
	Exported bool
}

type typeInfo struct {
	typ    reflect.Type
	fields []*fieldInfo
	byName map[string]*fieldInfo
}

// typeInfos caches per-type accessor tables. Reflection runs once per
// type, at registration/bind time.
var typeInfos sync.Map // reflect.Type -> *typeInfo

func infoFor(t reflect.Type) *typeInfo {
	if ti, ok := typeInfos.Load(t); ok {
		return ti.(*typeInfo)
	}
	ti := &typeInfo{
		typ:    t,
		byName: map[string]*fieldInfo{},
	}
	collectFields(t, nil, ti)
	actual, _ := typeInfos.LoadOrStore(t, ti)
	return actual.(*typeInfo)
}

func collectFields(t reflect.Type, index []int, ti *typeInfo) {
	n := t.NumField()
	for i := range n {
		f := t.Field(i)
		if f.Anonymous {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && f.IsExported() {
				collectFields(ft, append(append([]int{}, index...), i), ti)
				continue
			}
		}
		if _, ok := ti.byName[f.Name]; ok {
			// shadowed by an outer field
			continue
		}
		fi := &fieldInfo{
			Name:     f.Name,
			Index:    append(append([]int{}, index...), i),
			Type:     f.Type,
			Exported: f.IsExported(),
		}
		ti.fields = append(ti.fields, fi)
		ti.byName[f.Name] = fi
	}
}

// Schema is the full set of field-mapping rules for one type, indexed by
// both source name (input routing) and target name (programmatic lookup
// and encoding).
type Schema struct {
	typ      reflect.Type
	rules    []*PropertyRule
	bySource map[string]*PropertyRule
	byTarget map[string]*PropertyRule
	info     *typeInfo
}

func (s *Schema) Type() reflect.Type { return s.typ }

func (s *Schema) Rules() []*PropertyRule { return s.rules }

// RuleFor returns the rule whose target name is given, nil if none.
func (s *Schema) RuleFor(target string) *PropertyRule {
	return s.byTarget[target]
}

// RuleForSource returns the rule whose source name is given, nil if none.
func (s *Schema) RuleForSource(source string) *PropertyRule {
	return s.bySource[source]
}

// Bind builds the rule set for sample's type: explicit registered rules
// first, then a default Simple rule per declared field matching vis.
// Fields whose type exposes the Hydratable capability are upgraded to
// BoundObject at bind time.
func Bind(sample any, vis Visibility) (*Schema, error) {
	t, err := structTypeOf(sample)
	if err != nil {
		return nil, err
	}
	return bindType(t, vis)
}

func bindType(t reflect.Type, vis Visibility) (*Schema, error) {
	info := infoFor(t)
	sch := &Schema{
		typ:      t,
		bySource: map[string]*PropertyRule{},
		byTarget: map[string]*PropertyRule{},
		info:     info,
	}
	for _, r := range overridesFor(t) {
		fi := info.byName[r.Target()]
		if fi == nil && r.setter == "" {
			return nil, &SchemaError{
				Class:   t.Name(),
				Message: fmt.Sprintf("rule targets no declared field %q", r.Target()),
			}
		}
		if err := sch.addRule(r, fi); err != nil {
			return nil, err
		}
	}
	for _, fi := range info.fields {
		if fi.Exported && vis&Exported == 0 {
			continue
		}
		if !fi.Exported && vis&Unexported == 0 {
			continue
		}
		if sch.byTarget[fi.Name] != nil {
			continue
		}
		r := NewRule(fi.Name)
		if err := sch.addRule(r, fi); err != nil {
			return nil, err
		}
	}
	if debug.Bind() {
		debug.Logf("bound %s with %d rules\n", t, len(sch.rules))
	}
	return sch, nil
}

func (sch *Schema) addRule(r *PropertyRule, fi *fieldInfo) error {
	t := sch.typ
	if err := r.check(); err != nil {
		return err
	}
	if prev := sch.bySource[r.Source()]; prev != nil {
		return &SchemaError{
			Class:   t.Name(),
			Message: fmt.Sprintf("duplicate source name %q", r.Source()),
		}
	}
	if prev := sch.byTarget[r.Target()]; prev != nil {
		return &SchemaError{
			Class:   t.Name(),
			Message: fmt.Sprintf("duplicate target name %q", r.Target()),
		}
	}
	if fi != nil && !fi.Exported && r.setter == "" {
		return &SchemaError{
			Class:   t.Name(),
			Message: fmt.Sprintf("unexported field %q needs a setter", fi.Name),
		}
	}
	if r.setter != "" {
		if _, ok := reflect.PointerTo(t).MethodByName(r.setter); !ok {
			return &SchemaError{
				Class:   t.Name(),
				Message: fmt.Sprintf("no method %q for rule %q", r.setter, r.Target()),
			}
		}
	}
	// bind-time schema inference: a field whose type can hydrate itself
	// becomes a bound object unless the rule pins another mode.
	if fi != nil && !r.modeSet && hydratableField(fi.Type) {
		r.mode = BoundObject
		r.classType = boundElemType(fi.Type)
	}
	r.field = fi
	sch.rules = append(sch.rules, r)
	sch.bySource[r.Source()] = r
	sch.byTarget[r.Target()] = r
	return nil
}

var hydratableType = reflect.TypeOf((*Hydratable)(nil)).Elem()

func hydratableField(t reflect.Type) bool {
	et := boundElemType(t)
	if et == nil {
		return false
	}
	return reflect.PointerTo(et).Implements(hydratableType) ||
		et.Implements(hydratableType)
}

// boundElemType unwraps pointers, slices and string-keyed maps down to the
// struct type a bound-object rule instantiates.
func boundElemType(t reflect.Type) reflect.Type {
	for {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice:
			t = t.Elem()
		case reflect.Map:
			if t.Key().Kind() != reflect.String {
				return nil
			}
			t = t.Elem()
		case reflect.Struct:
			return t
		default:
			return nil
		}
	}
}
