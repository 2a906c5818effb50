package ir

import (
	"testing"
)

func TestCloneIndependence(t *testing.T) {
	orig := FromMap(map[string]*Node{
		"name": FromString("a"),
		"nums": FromValues([]*Node{FromInt(1), FromInt(2)}),
	})
	cl := orig.Clone()
	if !Equal(orig, cl) {
		t.Fatalf("clone not equal to original")
	}

	// mutate the original; the clone must not move
	Get(orig, "name").String = "b"
	Get(orig, "nums").Values[0] = FromInt(9)

	if got := Get(cl, "name").String; got != "a" {
		t.Errorf("clone name = %q, want a", got)
	}
	if got := *Get(cl, "nums").Values[0].Int64; got != 1 {
		t.Errorf("clone nums[0] = %d, want 1", got)
	}
}

func TestEqualOrderInsensitive(t *testing.T) {
	a := &Node{Type: MappingType}
	Put(a, "x", FromInt(1))
	Put(a, "y", FromInt(2))
	b := &Node{Type: MappingType}
	Put(b, "y", FromInt(2))
	Put(b, "x", FromInt(1))
	if !Equal(a, b) {
		t.Errorf("mappings with same entries in different order should be equal")
	}
	Put(b, "x", FromInt(3))
	if Equal(a, b) {
		t.Errorf("mappings with different values should not be equal")
	}
}

func TestEqualNumberRepresentation(t *testing.T) {
	withLit := &Node{Type: NumberType, Number: "80"}
	i := int64(80)
	withLit.Int64 = &i
	if !Equal(withLit, FromInt(80)) {
		t.Errorf("number equality should ignore the literal text")
	}
	if Equal(FromInt(80), FromFloat(80)) {
		t.Errorf("int and float representations rank differently")
	}
}

func TestPutReplaces(t *testing.T) {
	m := &Node{Type: MappingType}
	Put(m, "k", FromInt(1))
	Put(m, "k", FromInt(2))
	if len(m.Fields) != 1 {
		t.Fatalf("len(Fields) = %d, want 1", len(m.Fields))
	}
	if got := *Get(m, "k").Int64; got != 2 {
		t.Errorf("k = %d, want 2", got)
	}
}

func TestToMapFromMap(t *testing.T) {
	m := FromMap(map[string]*Node{
		"a": FromBool(true),
		"b": Null(),
	})
	back := ToMap(m)
	if len(back) != 2 {
		t.Fatalf("len = %d, want 2", len(back))
	}
	if !back["a"].Bool {
		t.Errorf("a = false, want true")
	}
	if back["b"].Type != NullType {
		t.Errorf("b type = %s, want Null", back["b"].Type)
	}
	if ToMap(FromInt(1)) != nil {
		t.Errorf("ToMap of a scalar should be nil")
	}
}

func TestScalarString(t *testing.T) {
	for _, tc := range []struct {
		node *Node
		want string
	}{
		{FromString("x"), "x"},
		{FromInt(42), "42"},
		{FromBool(true), "true"},
		{Null(), "null"},
	} {
		if got := tc.node.ScalarString(); got != tc.want {
			t.Errorf("ScalarString(%s) = %q, want %q", tc.node.Type, got, tc.want)
		}
	}
}
