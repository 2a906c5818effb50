package encode_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/confkit/hydrate/decode"
	"github.com/confkit/hydrate/encode"
	"github.com/confkit/hydrate/format"
	"github.com/confkit/hydrate/ir"
)

func TestMarshalJSON(t *testing.T) {
	node := &ir.Node{Type: ir.MappingType}
	ir.Put(node, "b", ir.FromInt(1))
	ir.Put(node, "a", ir.FromValues([]*ir.Node{ir.FromBool(true), ir.Null()}))
	ir.Put(node, "s", ir.FromString(`say "hi"`))

	d, err := encode.MarshalJSON(node)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"b":1,"a":[true,null],"s":"say \"hi\""}`
	if string(d) != want {
		t.Errorf("got  %s\nwant %s", d, want)
	}
}

func TestMarshalJSONKeepsLiteral(t *testing.T) {
	node, err := decode.Decode([]byte(`{"big":12345678901234567890123}`), format.JSONFormat)
	if err != nil {
		t.Fatal(err)
	}
	d, err := encode.MarshalJSON(node)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(d), "12345678901234567890123") {
		t.Errorf("literal lost: %s", d)
	}
}

func TestMarshalYAML(t *testing.T) {
	node := &ir.Node{Type: ir.MappingType}
	ir.Put(node, "host", ir.FromString("a"))
	ir.Put(node, "port", ir.FromInt(80))
	ir.Put(node, "tags", ir.FromValues([]*ir.Node{ir.FromString("x")}))

	d, err := encode.MarshalYAML(node)
	if err != nil {
		t.Fatal(err)
	}
	s := string(d)
	for _, want := range []string{"host: a", "port: 80", "- x"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
	// field order survives
	if strings.Index(s, "host") > strings.Index(s, "port") {
		t.Errorf("field order lost:\n%s", s)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := `{"a":1,"b":[1.5,"x",{"c":null}],"d":{"e":false}}`
	node, err := decode.Decode([]byte(in), format.JSONFormat)
	if err != nil {
		t.Fatal(err)
	}
	d, err := encode.MarshalJSON(node)
	if err != nil {
		t.Fatal(err)
	}
	back, err := decode.Decode(d, format.JSONFormat)
	if err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(node, back) {
		t.Errorf("round trip changed the tree:\nin  %s\nout %s", in, d)
	}
}

func TestToAny(t *testing.T) {
	node, err := decode.Decode([]byte(`{"n":3,"f":1.5,"s":"x","xs":[true,null]}`), format.JSONFormat)
	if err != nil {
		t.Fatal(err)
	}
	v, err := encode.ToAny(node)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("ToAny = %T, want map", v)
	}
	if m["n"] != int64(3) {
		t.Errorf("n = %v (%T)", m["n"], m["n"])
	}
	if m["f"] != 1.5 {
		t.Errorf("f = %v", m["f"])
	}
	xs, ok := m["xs"].([]any)
	if !ok || len(xs) != 2 || xs[0] != true || xs[1] != nil {
		t.Errorf("xs = %v", m["xs"])
	}
}

func TestEncodeColor(t *testing.T) {
	node, err := decode.Decode([]byte(`{"a":1,"b":["x"]}`), format.JSONFormat)
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	if err := encode.EncodeColor(node, &sb, &encode.Colors{Default: fmt.Sprintf}); err != nil {
		t.Fatal(err)
	}
	s := sb.String()
	for _, want := range []string{"a: 1", "- x"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}
