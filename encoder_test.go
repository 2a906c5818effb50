package hydrate

import (
	"testing"

	"github.com/confkit/hydrate/decode"
	"github.com/confkit/hydrate/format"
	"github.com/confkit/hydrate/ir"
)

type service struct {
	Host  string
	Port  int
	Debug bool
	Tags  []string
	Limit float64
}

func TestEncodeRoundTrip(t *testing.T) {
	in := `{"Host":"db","Port":5432,"Debug":true,"Tags":["a","b"],"Limit":0.5}`
	node, err := decode.Decode([]byte(in), format.JSONFormat)
	if err != nil {
		t.Fatal(err)
	}
	h := New()
	var s service
	ok, err := h.Hydrate(&s, node, nil)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	out, err := h.Encode(&s)
	if err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(node, out) {
		t.Errorf("round trip changed the tree:\nin  %v\nout %v", node, out)
	}
}

type renamedOut struct {
	Host string
	Port int
}

func TestEncodeReversesRename(t *testing.T) {
	if err := RegisterRules(renamedOut{},
		NewRule("host_name").WithTarget("Host"),
	); err != nil {
		t.Fatal(err)
	}
	h := New()
	var r renamedOut
	ok, err := h.Hydrate(&r, `{"host_name":"db","Port":1}`, nil)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v log=%v", ok, err, h.Errors())
	}
	out, err := h.Encode(&r)
	if err != nil {
		t.Fatal(err)
	}
	if got := ir.Get(out, "host_name"); got == nil || got.String != "db" {
		t.Errorf("host_name = %v", got)
	}
	if ir.Get(out, "Host") != nil {
		t.Errorf("declared name leaked into output")
	}
}

type redacted struct {
	Name   string
	Secret string
}

func TestEncodeSkipsBlocked(t *testing.T) {
	if err := RegisterRules(redacted{},
		NewRule("Secret").WithBlocked(true),
	); err != nil {
		t.Fatal(err)
	}
	h := New()
	out, err := h.Encode(&redacted{Name: "a", Secret: "hush"})
	if err != nil {
		t.Fatal(err)
	}
	if ir.Get(out, "Secret") != nil {
		t.Errorf("blocked property encoded")
	}
	if got := ir.Get(out, "Name"); got == nil || got.String != "a" {
		t.Errorf("Name = %v", got)
	}
}

func TestEncodeExtraRules(t *testing.T) {
	type extras struct {
		Host string
		Port int
	}
	h := New()
	src := &extras{Host: "db", Port: 1}
	out, err := h.Encode(src, NewRule("Host").WithIgnored(true))
	if err != nil {
		t.Fatal(err)
	}
	if ir.Get(out, "Host") != nil {
		t.Errorf("ignored-by-extra property encoded")
	}
	if ir.Get(out, "Port") == nil {
		t.Errorf("Port missing")
	}

	// an extra rule naming no declared field is a schema error
	if _, err := h.Encode(src, NewRule("Nope")); err == nil {
		t.Errorf("bogus extra rule accepted")
	}
}

func TestEncodeNested(t *testing.T) {
	type leafT struct {
		N int
	}
	type rootT struct {
		Leaf  *leafT
		Items map[string]int
	}
	h := New()
	out, err := h.Encode(&rootT{
		Leaf:  &leafT{N: 3},
		Items: map[string]int{"a": 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	leaf := ir.Get(out, "Leaf")
	if leaf == nil || leaf.Type != ir.MappingType {
		t.Fatalf("Leaf = %v", leaf)
	}
	if n := ir.Get(leaf, "N"); n == nil || n.Int64 == nil || *n.Int64 != 3 {
		t.Errorf("Leaf.N = %v", n)
	}
	if a := ir.Get(ir.Get(out, "Items"), "a"); a == nil || *a.Int64 != 1 {
		t.Errorf("Items.a = %v", a)
	}
}

func TestEncodeTypeMismatch(t *testing.T) {
	type aT struct{ A int }
	type bT struct{ B int }
	enc, err := NewEncoder(aT{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Encode(&bT{}); err == nil {
		t.Errorf("encoder accepted a foreign type")
	}
	if _, err := enc.Encode((*aT)(nil)); err == nil {
		t.Errorf("encoder accepted nil")
	}
}
