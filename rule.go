package hydrate

import (
	"fmt"
	"reflect"

	"github.com/confkit/hydrate/debug"
	"github.com/confkit/hydrate/ir"
)

// Mode is a rule's binding mode.
type Mode int

const (
	// Simple assigns the raw value (or array of values) directly.
	Simple Mode = iota
	// BoundObject instantiates a class and hydrates it recursively.
	BoundObject
	// Construct instantiates a class by passing the value to its
	// registered constructor. The constructor is the hydration; no
	// post-construction hydrate call happens.
	Construct
)

func (m Mode) String() string {
	s, ok := map[Mode]string{
		Simple:      "Simple",
		BoundObject: "BoundObject",
		Construct:   "Construct",
	}[m]
	if ok {
		return s
	}
	return "<unknown mode>"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Validator is the per-rule validation predicate. A non-nil result rejects
// the value and aborts its assignment.
type Validator func(value *ir.Node) error

// KeyFunc derives a collection key from an element and its container.
type KeyFunc func(container, elem *ir.Node) (string, error)

// ClassFunc computes a bound class name from the raw value.
type ClassFunc func(value *ir.Node) (string, error)

// PropertyRule is one field's binding, validation and construction policy.
// Rules are immutable during hydration except for the private error
// buffer, which is cleared at the start of each Assign call.
type PropertyRule struct {
	source  string
	target  string
	mode    Mode
	modeSet bool

	arrayMode    bool
	keyField     string
	keyFunc      KeyFunc
	allowDupKeys bool

	required     bool
	blocked      bool
	blockMessage string
	ignored      bool

	validator Validator
	setter    string

	className string
	classType reflect.Type
	classFunc ClassFunc
	unpack    bool

	field *fieldInfo
	errs  []string
}

// NewRule starts a rule whose source and target name are both name.
func NewRule(name string) *PropertyRule {
	return &PropertyRule{source: name, target: name}
}

func (r *PropertyRule) Source() string { return r.source }
func (r *PropertyRule) Target() string { return r.target }
func (r *PropertyRule) Mode() Mode     { return r.mode }
func (r *PropertyRule) Required() bool { return r.required }

// Errors returns the buffer of the most recent Assign call.
func (r *PropertyRule) Errors() []string { return r.errs }

func (r *PropertyRule) WithTarget(name string) *PropertyRule {
	r.target = name
	return r
}

func (r *PropertyRule) WithSource(name string) *PropertyRule {
	r.source = name
	return r
}

func (r *PropertyRule) WithMode(m Mode) *PropertyRule {
	r.mode = m
	r.modeSet = true
	return r
}

func (r *PropertyRule) WithArray(v bool) *PropertyRule {
	r.arrayMode = v
	return r
}

// WithKeyField keys array elements by the named field of each element.
func (r *PropertyRule) WithKeyField(name string) *PropertyRule {
	r.keyField = name
	return r
}

func (r *PropertyRule) WithKeyFunc(f KeyFunc) *PropertyRule {
	r.keyFunc = f
	return r
}

func (r *PropertyRule) WithAllowDuplicateKeys(v bool) *PropertyRule {
	r.allowDupKeys = v
	return r
}

func (r *PropertyRule) WithRequired(v bool) *PropertyRule {
	r.required = v
	return r
}

func (r *PropertyRule) WithBlocked(v bool) *PropertyRule {
	r.blocked = v
	return r
}

func (r *PropertyRule) WithBlockMessage(msg string) *PropertyRule {
	r.blocked = true
	r.blockMessage = msg
	return r
}

func (r *PropertyRule) WithIgnored(v bool) *PropertyRule {
	r.ignored = v
	return r
}

func (r *PropertyRule) WithValidator(v Validator) *PropertyRule {
	r.validator = v
	return r
}

// WithSetter routes values through the named mutator method instead of a
// direct field write.
func (r *PropertyRule) WithSetter(name string) *PropertyRule {
	r.setter = name
	return r
}

// WithClass binds to the registered class of the given name.
func (r *PropertyRule) WithClass(name string) *PropertyRule {
	r.className = name
	return r
}

// WithClassOf binds to sample's type directly.
func (r *PropertyRule) WithClassOf(sample any) *PropertyRule {
	t, err := structTypeOf(sample)
	if err == nil {
		r.classType = t
	}
	return r
}

func (r *PropertyRule) WithClassFunc(f ClassFunc) *PropertyRule {
	r.classFunc = f
	return r
}

// WithUnpack spreads a sequence value as separate positional constructor
// arguments. A scalar is wrapped into a single-element argument list.
func (r *PropertyRule) WithUnpack(v bool) *PropertyRule {
	r.unpack = v
	return r
}

// check enforces the rule invariants which are independent of any bound
// type.
func (r *PropertyRule) check() error {
	if r.source == "" || r.target == "" {
		return &SchemaError{Message: "rule needs source and target names"}
	}
	if r.arrayMode && r.mode == Construct {
		return &SchemaError{
			Message: fmt.Sprintf("rule %q: array mode is incompatible with construct mode", r.target),
		}
	}
	if r.keyField != "" && r.keyFunc != nil {
		return &SchemaError{
			Message: fmt.Sprintf("rule %q: at most one key strategy", r.target),
		}
	}
	if r.blocked && r.ignored {
		return &SchemaError{
			Message: fmt.Sprintf("rule %q: blocked and ignored are exclusive", r.target),
		}
	}
	return nil
}

func (r *PropertyRule) keyed() bool {
	return r.keyField != "" || r.keyFunc != nil
}

// Assign applies the rule to one raw value. It reports whether the
// assignment fully succeeded; diagnostics are buffered and readable via
// Errors. The returned error is non-nil only for conditions which must
// abort the enclosing hydration (a nested strict-mode violation).
func (r *PropertyRule) Assign(target any, value *ir.Node, opts *Options) (bool, error) {
	r.errs = r.errs[:0]
	if opts == nil {
		opts = NewOptions()
	}
	if r.blocked {
		msg := r.blockMessage
		if msg == "" {
			msg = fmt.Sprintf("property %q cannot be set", r.target)
		}
		r.errs = append(r.errs, msg)
		return false, nil
	}
	if r.ignored {
		return true, nil
	}
	if debug.Assign() {
		debug.Logf("assign %s mode=%s value=%v\n", r.target, r.mode, value)
	}
	switch r.mode {
	case Simple:
		return r.assignSimple(target, value, opts)
	case BoundObject:
		return r.assignBound(target, value, opts)
	case Construct:
		return r.assignConstruct(target, value)
	}
	r.errs = append(r.errs, fmt.Sprintf("unknown mode %d", r.mode))
	return false, nil
}

func (r *PropertyRule) assignSimple(target any, value *ir.Node, opts *Options) (bool, error) {
	if !r.arrayMode {
		if r.validator != nil {
			if err := r.validator(value); err != nil {
				r.bufferErr(&ValidationError{Property: r.target, Err: err})
				return false, nil
			}
		}
		if err := r.deliverNode(target, value); err != nil {
			r.errs = append(r.errs, err.Error())
			return false, nil
		}
		return true, nil
	}

	elems := r.sequenceOf(value)
	ok := true
	seen := map[string]bool{}
	var accepted []*ir.Node
	var keys []string
	for _, el := range elems {
		// a validator rejection aborts the entire array assignment;
		// nothing accepted so far is committed
		if r.validator != nil {
			if err := r.validator(el); err != nil {
				r.bufferErr(&ValidationError{Property: r.target, Err: err})
				return false, nil
			}
		}
		if !r.keyed() {
			accepted = append(accepted, el)
			continue
		}
		key, err := r.deriveKey(value, el)
		if err != nil {
			r.errs = append(r.errs, err.Error())
			ok = false
			continue
		}
		if seen[key] && !r.allowDupKeys {
			// duplicates are recoverable per element: drop this one,
			// keep going
			r.bufferErr(&DuplicateKeyError{Property: r.target, Key: key})
			ok = false
			continue
		}
		seen[key] = true
		keys = append(keys, key)
		accepted = append(accepted, el)
	}

	collection := r.collect(accepted, keys)
	if err := r.deliverNode(target, collection); err != nil {
		r.errs = append(r.errs, err.Error())
		return false, nil
	}
	return ok, nil
}

// sequenceOf coerces a non-sequence value into a single-element sequence.
func (r *PropertyRule) sequenceOf(value *ir.Node) []*ir.Node {
	if value.Type == ir.SequenceType {
		return value.Values
	}
	return []*ir.Node{value}
}

// collect assembles accepted elements into a fresh mapping (keyed) or
// sequence node. Elements are cloned so the assembled collection never
// aliases the source tree.
func (r *PropertyRule) collect(accepted []*ir.Node, keys []string) *ir.Node {
	if !r.keyed() {
		cloned := make([]*ir.Node, len(accepted))
		for i, el := range accepted {
			cloned[i] = el.Clone()
		}
		return ir.FromValues(cloned)
	}
	res := &ir.Node{Type: ir.MappingType}
	for i, el := range accepted {
		ir.Put(res, keys[i], el.Clone())
	}
	return res
}

func (r *PropertyRule) deriveKey(container, el *ir.Node) (string, error) {
	if r.keyFunc != nil {
		return r.keyFunc(container, el)
	}
	if el.Type != ir.MappingType {
		return "", fmt.Errorf("no key field %q in %s element", r.keyField, el.Type)
	}
	kn := ir.Get(el, r.keyField)
	if kn == nil {
		return "", fmt.Errorf("no key field %q in element", r.keyField)
	}
	return kn.ScalarString(), nil
}

func (r *PropertyRule) assignBound(target any, value *ir.Node, opts *Options) (bool, error) {
	if value.Type != ir.SequenceType {
		inst, ok, err := r.instantiate(value, target, opts)
		if err != nil {
			return false, err
		}
		if !inst.IsValid() {
			return false, nil
		}
		if derr := r.deliverInstance(target, inst); derr != nil {
			r.errs = append(r.errs, derr.Error())
			return false, nil
		}
		return ok, nil
	}

	elems := value.Values
	ok := true
	seen := map[string]bool{}
	var accepted []reflect.Value
	var keys []string
	for _, el := range elems {
		if r.validator != nil {
			if err := r.validator(el); err != nil {
				r.bufferErr(&ValidationError{Property: r.target, Err: err})
				return false, nil
			}
		}
		var key string
		if r.keyed() {
			var err error
			key, err = r.deriveKey(value, el)
			if err != nil {
				r.errs = append(r.errs, err.Error())
				ok = false
				continue
			}
			if seen[key] && !r.allowDupKeys {
				r.bufferErr(&DuplicateKeyError{Property: r.target, Key: key})
				ok = false
				continue
			}
			seen[key] = true
		}
		inst, elOk, err := r.instantiate(el, target, opts)
		if err != nil {
			return false, err
		}
		if !inst.IsValid() {
			ok = false
			continue
		}
		if !elOk {
			ok = false
		}
		keys = append(keys, key)
		accepted = append(accepted, inst)
	}

	if r.setter != "" {
		// setter delivery replaces positional collection placement:
		// each instance goes through the mutator
		for _, inst := range accepted {
			if err := r.deliverInstance(target, inst); err != nil {
				r.errs = append(r.errs, err.Error())
				ok = false
			}
		}
		return ok, nil
	}
	if err := r.commitInstances(target, accepted, keys); err != nil {
		r.errs = append(r.errs, err.Error())
		return false, nil
	}
	return ok, nil
}

// instantiate resolves the bound class for one raw value, creates an
// instance and hydrates it recursively. An invalid returned value means
// the failure was buffered.
func (r *PropertyRule) instantiate(el *ir.Node, parent any, opts *Options) (reflect.Value, bool, error) {
	t, err := r.resolveClass(el)
	if err != nil {
		r.errs = append(r.errs, err.Error())
		return reflect.Value{}, false, nil
	}
	inst := reflect.New(t)
	copts := opts.child(parent)
	var ok bool
	var herr error
	if hy, isHy := inst.Interface().(Hydratable); isHy {
		ok, herr = hy.Hydrate(el, copts)
	} else {
		ok, herr = opts.hydrator().Hydrate(inst.Interface(), el, copts)
	}
	if herr != nil {
		return inst, false, herr
	}
	return inst, ok, nil
}

func (r *PropertyRule) resolveClass(el *ir.Node) (reflect.Type, error) {
	if r.classFunc != nil {
		name, err := r.classFunc(el)
		if err != nil {
			return nil, err
		}
		t, ok := classFor(name)
		if !ok {
			return nil, classNotFound(name)
		}
		return t, nil
	}
	if r.classType != nil {
		return r.classType, nil
	}
	if r.className != "" {
		t, ok := classFor(r.className)
		if !ok {
			return nil, classNotFound(r.className)
		}
		return t, nil
	}
	if r.field != nil {
		if et := boundElemType(r.field.Type); et != nil {
			return et, nil
		}
	}
	return nil, &SchemaError{
		Message: fmt.Sprintf("no class resolver for property %q", r.target),
	}
}

func (r *PropertyRule) assignConstruct(target any, value *ir.Node) (bool, error) {
	t, err := r.resolveClass(value)
	if err != nil {
		r.errs = append(r.errs, err.Error())
		return false, nil
	}
	fn, ok := constructorFor(t)
	if !ok {
		r.bufferErr(&ConstructionError{
			Class:   t.Name(),
			Message: fmt.Sprintf("no constructor registered for %s", t.Name()),
		})
		return false, nil
	}

	var args []*ir.Node
	if r.unpack {
		switch value.Type {
		case ir.SequenceType, ir.MappingType:
			args = value.Values
		default:
			args = []*ir.Node{value}
		}
	} else {
		args = []*ir.Node{value}
	}

	// arity is pre-checked against the declared parameter count; a
	// mismatch never reaches the call
	ft := fn.Type()
	want := ft.NumIn()
	minArgs := want
	if ft.IsVariadic() {
		minArgs = want - 1
	}
	if len(args) < minArgs {
		r.bufferErr(&ConstructionError{
			Class:   t.Name(),
			Message: fmt.Sprintf("Too few arguments: have %d, want %d", len(args), minArgs),
		})
		return false, nil
	}
	if !ft.IsVariadic() && len(args) > want {
		r.bufferErr(&ConstructionError{
			Class:   t.Name(),
			Message: fmt.Sprintf("Too many arguments: have %d, want %d", len(args), want),
		})
		return false, nil
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= want-1 {
			pt = ft.In(want - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		av := reflect.New(pt).Elem()
		if cerr := coerceNode(a, av, r.target); cerr != nil {
			r.bufferErr(&ConstructionError{Class: t.Name(), Message: cerr.Error()})
			return false, nil
		}
		in[i] = av
	}

	out := fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		r.bufferErr(&ConstructionError{
			Class:   t.Name(),
			Message: out[1].Interface().(error).Error(),
		})
		return false, nil
	}
	inst := out[0]
	if inst.Kind() != reflect.Pointer {
		p := reflect.New(inst.Type())
		p.Elem().Set(inst)
		inst = p
	}
	if derr := r.deliverInstance(target, inst); derr != nil {
		r.errs = append(r.errs, derr.Error())
		return false, nil
	}
	return true, nil
}

// deliverNode writes a raw value into the target, through the setter when
// one is configured, otherwise through the bound field accessor.
func (r *PropertyRule) deliverNode(target any, value *ir.Node) error {
	if r.setter != "" {
		m, err := r.setterMethod(target)
		if err != nil {
			return err
		}
		pt := m.Type().In(0)
		av := reflect.New(pt).Elem()
		if err := coerceNode(value, av, r.target); err != nil {
			return err
		}
		return callSetter(m, av)
	}
	fv, err := r.fieldValue(target)
	if err != nil {
		return err
	}
	return coerceNode(value, fv, r.target)
}

// deliverInstance writes an instantiated *T into the target.
func (r *PropertyRule) deliverInstance(target any, inst reflect.Value) error {
	if r.setter != "" {
		m, err := r.setterMethod(target)
		if err != nil {
			return err
		}
		av, err := conformInstance(inst, m.Type().In(0))
		if err != nil {
			return err
		}
		return callSetter(m, av)
	}
	fv, err := r.fieldValue(target)
	if err != nil {
		return err
	}
	av, err := conformInstance(inst, fv.Type())
	if err != nil {
		return err
	}
	fv.Set(av)
	return nil
}

// commitInstances places hydrated instances into a slice or keyed map
// field as a single write.
func (r *PropertyRule) commitInstances(target any, insts []reflect.Value, keys []string) error {
	fv, err := r.fieldValue(target)
	if err != nil {
		return err
	}
	ft := fv.Type()
	switch ft.Kind() {
	case reflect.Slice:
		res := reflect.MakeSlice(ft, 0, len(insts))
		for _, inst := range insts {
			av, err := conformInstance(inst, ft.Elem())
			if err != nil {
				return err
			}
			res = reflect.Append(res, av)
		}
		fv.Set(res)
		return nil
	case reflect.Map:
		if !r.keyed() {
			return fmt.Errorf("map field %q needs a key strategy", r.target)
		}
		res := reflect.MakeMapWithSize(ft, len(insts))
		for i, inst := range insts {
			av, err := conformInstance(inst, ft.Elem())
			if err != nil {
				return err
			}
			res.SetMapIndex(reflect.ValueOf(keys[i]), av)
		}
		fv.Set(res)
		return nil
	default:
		return fmt.Errorf("field %q of type %s cannot hold a collection", r.target, ft)
	}
}

// conformInstance adapts an instantiated *T to the destination type, which
// may be *T or T.
func conformInstance(inst reflect.Value, dst reflect.Type) (reflect.Value, error) {
	if inst.Type() == dst {
		return inst, nil
	}
	if inst.Type().Elem() == dst {
		return inst.Elem(), nil
	}
	if inst.Type().AssignableTo(dst) {
		return inst, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot place %s into %s", inst.Type(), dst)
}

func (r *PropertyRule) setterMethod(target any) (reflect.Value, error) {
	m := reflect.ValueOf(target).MethodByName(r.setter)
	if !m.IsValid() {
		return reflect.Value{}, fmt.Errorf("no method %q on %T", r.setter, target)
	}
	if m.Type().NumIn() != 1 {
		return reflect.Value{}, fmt.Errorf("method %q must take one argument", r.setter)
	}
	return m, nil
}

func callSetter(m, arg reflect.Value) error {
	out := m.Call([]reflect.Value{arg})
	if len(out) == 1 && m.Type().Out(0) == errType && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

func (r *PropertyRule) fieldValue(target any) (reflect.Value, error) {
	if r.field == nil {
		return reflect.Value{}, fmt.Errorf("property %q has no bound field", r.target)
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("target must be a non-nil pointer, got %T", target)
	}
	ev := rv.Elem()
	if ev.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("target must point at a struct, got %T", target)
	}
	return ev.FieldByIndex(r.field.Index), nil
}

func (r *PropertyRule) bufferErr(err error) {
	r.errs = append(r.errs, err.Error())
}
