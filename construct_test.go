package hydrate

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type point struct {
	X, Y int
}

type shape struct {
	Center *point
}

var (
	shapeOnce sync.Once
	shapeErr  error
)

func registerShape(t *testing.T) {
	t.Helper()
	shapeOnce.Do(func() {
		if shapeErr = RegisterClass("point", point{}); shapeErr != nil {
			return
		}
		if shapeErr = RegisterConstructor(point{}, func(x, y int) *point {
			return &point{X: x, Y: y}
		}); shapeErr != nil {
			return
		}
		shapeErr = RegisterRules(shape{},
			NewRule("Center").WithMode(Construct).WithClass("point").WithUnpack(true),
		)
	})
	if shapeErr != nil {
		t.Fatal(shapeErr)
	}
}

func TestConstruct(t *testing.T) {
	registerShape(t)
	h := New()
	var s shape
	ok, err := h.Hydrate(&s, `{"Center":[3,4]}`, nil)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	if s.Center == nil || *s.Center != (point{X: 3, Y: 4}) {
		t.Errorf("Center = %+v", s.Center)
	}
}

func TestConstructArity(t *testing.T) {
	registerShape(t)
	for _, tc := range []struct {
		name  string
		input string
		want  []string
	}{
		{
			// a scalar unpacks to a single-argument list, pre-checked
			// against the declared parameter count before any call
			name:  "scalar too few",
			input: `{"Center":3}`,
			want: []string{
				`Unable to configure property "Center":`,
				"Unable to construct: Too few arguments: have 1, want 2",
			},
		},
		{
			name:  "sequence too few",
			input: `{"Center":[3]}`,
			want: []string{
				`Unable to configure property "Center":`,
				"Unable to construct: Too few arguments: have 1, want 2",
			},
		},
		{
			name:  "too many",
			input: `{"Center":[1,2,3]}`,
			want: []string{
				`Unable to configure property "Center":`,
				"Unable to construct: Too many arguments: have 3, want 2",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := New()
			var s shape
			ok, err := h.Hydrate(&s, tc.input, nil)
			if err != nil {
				t.Fatal(err)
			}
			if ok {
				t.Fatalf("arity mismatch should fail")
			}
			if d := cmp.Diff(tc.want, h.Errors()); d != "" {
				t.Errorf("log mismatch (-want +got):\n%s", d)
			}
			if s.Center != nil {
				t.Errorf("Center = %+v, want nil", s.Center)
			}
		})
	}
}

type port struct {
	N int
}

type listener struct {
	Port *port
}

func TestConstructorError(t *testing.T) {
	if err := RegisterConstructor(port{}, func(n int) (*port, error) {
		if n < 1 || n > 65535 {
			return nil, fmt.Errorf("port %d out of range", n)
		}
		return &port{N: n}, nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := RegisterRules(listener{},
		NewRule("Port").WithMode(Construct).WithClassOf(port{}).WithUnpack(true),
	); err != nil {
		t.Fatal(err)
	}
	h := New()
	var l listener

	ok, err := h.Hydrate(&l, `{"Port":8080}`, nil)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	if l.Port == nil || l.Port.N != 8080 {
		t.Errorf("Port = %+v", l.Port)
	}

	ok, err = h.Hydrate(&l, `{"Port":99999}`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("constructor rejection should fail")
	}
	want := []string{
		`Unable to configure property "Port":`,
		"Unable to construct: port 99999 out of range",
	}
	if d := cmp.Diff(want, h.Errors()); d != "" {
		t.Errorf("log mismatch (-want +got):\n%s", d)
	}
}

type label struct {
	S string
}

type tagged struct {
	Label label
}

func TestConstructValueResult(t *testing.T) {
	// a constructor may return the value type; the engine adapts it to
	// the field
	if err := RegisterConstructor(label{}, func(s string) label {
		return label{S: strings.ToLower(s)}
	}); err != nil {
		t.Fatal(err)
	}
	if err := RegisterRules(tagged{},
		NewRule("Label").WithMode(Construct).WithClassOf(label{}).WithUnpack(true),
	); err != nil {
		t.Fatal(err)
	}
	h := New()
	var g tagged
	ok, err := h.Hydrate(&g, `{"Label":"LOUD"}`, nil)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	if g.Label.S != "loud" {
		t.Errorf("Label = %+v", g.Label)
	}
}

type missing struct {
	V *point2
}

type point2 struct {
	X int
}

func TestConstructNoConstructor(t *testing.T) {
	if err := RegisterRules(missing{},
		NewRule("V").WithMode(Construct).WithClassOf(point2{}),
	); err != nil {
		t.Fatal(err)
	}
	h := New()
	var m missing
	ok, err := h.Hydrate(&m, `{"V":1}`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("construct without a registered constructor should fail")
	}
	log := h.Errors()
	if len(log) != 2 || !strings.HasPrefix(log[1], "Unable to construct: no constructor registered") {
		t.Errorf("log = %v", log)
	}
}

type varargs struct {
	Sum *summed
}

type summed struct {
	Total int
}

func TestConstructVariadic(t *testing.T) {
	if err := RegisterConstructor(summed{}, func(base int, more ...int) *summed {
		s := &summed{Total: base}
		for _, m := range more {
			s.Total += m
		}
		return s
	}); err != nil {
		t.Fatal(err)
	}
	if err := RegisterRules(varargs{},
		NewRule("Sum").WithMode(Construct).WithClassOf(summed{}).WithUnpack(true),
	); err != nil {
		t.Fatal(err)
	}
	h := New()
	var v varargs
	ok, err := h.Hydrate(&v, `{"Sum":[1,2,3]}`, nil)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	if v.Sum == nil || v.Sum.Total != 6 {
		t.Errorf("Sum = %+v", v.Sum)
	}
}
