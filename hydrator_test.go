package hydrate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/confkit/hydrate/format"
	"github.com/confkit/hydrate/ir"
)

type endpoint struct {
	Host  string
	Port  int
	Debug bool
	Tags  []string
}

func TestHydrateSimple(t *testing.T) {
	h := New()
	var e endpoint
	ok, err := h.Hydrate(&e, []byte(`{"Host":"db","Port":5432,"Debug":true,"Tags":["a","b"]}`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("not ok: %v", h.Errors())
	}
	want := endpoint{Host: "db", Port: 5432, Debug: true, Tags: []string{"a", "b"}}
	if d := cmp.Diff(want, e); d != "" {
		t.Errorf("hydrated value mismatch (-want +got):\n%s", d)
	}
}

func TestHydrateStringConfig(t *testing.T) {
	h := New()
	var e endpoint
	ok, err := h.Hydrate(&e, `{"Host":"x"}`, nil)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	if e.Host != "x" {
		t.Errorf("Host = %q", e.Host)
	}
}

func TestHydrateYAMLSource(t *testing.T) {
	h := New()
	var e endpoint
	opts := NewOptions().WithSource(format.YAMLFormat)
	ok, err := h.Hydrate(&e, "Host: db\nPort: 5432\n", opts)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	if e.Host != "db" || e.Port != 5432 {
		t.Errorf("got %+v", e)
	}
}

func TestHydrateObjectSource(t *testing.T) {
	h := New()
	var e endpoint
	cfg := map[string]any{"Host": "db", "Port": 5432}
	ok, err := h.Hydrate(&e, cfg, nil)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	if e.Port != 5432 {
		t.Errorf("Port = %d", e.Port)
	}
}

func TestHydrateScalarLeniency(t *testing.T) {
	h := New()
	var e endpoint
	// numeric strings convert to numeric destinations
	ok, err := h.Hydrate(&e, `{"Port":"5432"}`, nil)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	if e.Port != 5432 {
		t.Errorf("Port = %d", e.Port)
	}
	// but numbers never convert to strings
	ok, err = h.Hydrate(&e, `{"Host":80}`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("number into string field should fail")
	}
}

func TestHydrateBadInput(t *testing.T) {
	h := New()
	var e endpoint
	ok, err := h.Hydrate(&e, `{`, nil)
	if ok || err == nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if len(h.Errors()) == 0 {
		t.Errorf("bad input should be logged")
	}
}

func TestHydrateNonMapping(t *testing.T) {
	h := New()
	var e endpoint
	ok, err := h.Hydrate(&e, `[1,2]`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("sequence input should not hydrate a struct")
	}
	if len(h.Errors()) != 1 {
		t.Errorf("log = %v", h.Errors())
	}
}

func TestStrictUnknownKey(t *testing.T) {
	h := New()
	var e endpoint
	ok, err := h.Hydrate(&e, `{"Host":"a","Bogus":1,"Port":5432}`, nil)
	if ok {
		t.Fatalf("strict hydration of unknown key should fail")
	}
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
	want := []string{`undefined property "Bogus"`}
	if d := cmp.Diff(want, h.Errors()); d != "" {
		t.Errorf("log mismatch (-want +got):\n%s", d)
	}
	// assignments before the violation stick; iteration after it is
	// abandoned
	if e.Host != "a" {
		t.Errorf("Host = %q", e.Host)
	}
	if e.Port != 0 {
		t.Errorf("Port = %d, want 0", e.Port)
	}
}

func TestStrictErrorOverride(t *testing.T) {
	sentinel := errors.New("config rejected")
	h := New()
	var e endpoint
	_, err := h.Hydrate(&e, `{"Bogus":1}`, NewOptions().WithStrictError(sentinel))
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want sentinel", err)
	}
}

func TestNonStrictSkipsUnknown(t *testing.T) {
	h := New()
	var e endpoint
	ok, err := h.Hydrate(&e, `{"Host":"a","Bogus":1,"Port":5432}`, NewOptions().WithStrict(false))
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	if e.Host != "a" || e.Port != 5432 {
		t.Errorf("got %+v", e)
	}
}

type creds struct {
	User string
	Pass string
}

func TestRequiredMissing(t *testing.T) {
	if err := RegisterRules(creds{},
		NewRule("User").WithRequired(true),
		NewRule("Pass").WithRequired(true),
	); err != nil {
		t.Fatal(err)
	}
	h := New()
	var c creds
	ok, err := h.Hydrate(&c, `{"User":"u"}`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("missing required field should fail")
	}
	want := []string{`no value provided for "Pass"`}
	if d := cmp.Diff(want, h.Errors()); d != "" {
		t.Errorf("log mismatch (-want +got):\n%s", d)
	}
	if c.User != "u" {
		t.Errorf("User = %q", c.User)
	}
}

type boundClass struct {
	W any
}

func TestClassNotFound(t *testing.T) {
	if err := RegisterRules(boundClass{},
		NewRule("W").WithMode(BoundObject).WithClass("Widget"),
	); err != nil {
		t.Fatal(err)
	}
	h := New()
	var b boundClass
	ok, err := h.Hydrate(&b, `{"W":{"x":1}}`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("unregistered class should fail")
	}
	want := []string{
		`Unable to configure property "W":`,
		"Class not found: Widget",
	}
	if d := cmp.Diff(want, h.Errors()); d != "" {
		t.Errorf("log mismatch (-want +got):\n%s", d)
	}
}

type pair struct {
	A, B int
}

type engine struct {
	Pair *pair
}

func (e *engine) Hydrate(value *ir.Node, opts *Options) (bool, error) {
	return Nested(e, value, opts)
}

type car struct {
	Engine *engine
}

func TestNestedErrorChain(t *testing.T) {
	if err := RegisterConstructor(pair{}, func(a, b int) *pair {
		return &pair{A: a, B: b}
	}); err != nil {
		t.Fatal(err)
	}
	if err := RegisterRules(engine{},
		NewRule("pair").WithTarget("Pair").
			WithMode(Construct).WithClassOf(pair{}).WithUnpack(true),
	); err != nil {
		t.Fatal(err)
	}

	h := New()
	var c car
	ok, err := h.Hydrate(&c, `{"Engine":{"pair":1}}`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("nested construction failure should propagate")
	}
	// wrapper lines precede their causes, outermost first
	want := []string{
		`Unable to configure property "Engine":`,
		`Unable to configure property "pair":`,
		"Unable to construct: Too few arguments: have 1, want 2",
	}
	if d := cmp.Diff(want, h.Errors()); d != "" {
		t.Errorf("log mismatch (-want +got):\n%s", d)
	}
	// the partially hydrated nested object is still delivered
	if c.Engine == nil {
		t.Fatalf("Engine not delivered")
	}
	if c.Engine.Pair != nil {
		t.Errorf("Pair = %+v, want nil", c.Engine.Pair)
	}

	// the same session resets its log at the next top-level call
	ok, err = h.Hydrate(&c, `{"Engine":{"pair":[3,4]}}`, nil)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	if len(h.Errors()) != 0 {
		t.Errorf("log not reset: %v", h.Errors())
	}
	if c.Engine.Pair == nil || c.Engine.Pair.A != 3 || c.Engine.Pair.B != 4 {
		t.Errorf("Pair = %+v", c.Engine.Pair)
	}
	if len(h.optStack) != 0 {
		t.Errorf("option stack not drained: %d", len(h.optStack))
	}
}

func TestOneShotHydrate(t *testing.T) {
	var e endpoint
	ok, log, err := Hydrate(&e, `{"Host":80}`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("should fail")
	}
	if len(log) != 2 || log[0] != `Unable to configure property "Host":` {
		t.Errorf("log = %v", log)
	}
}
