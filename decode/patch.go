package decode

import (
	jsonpatch "github.com/evanphx/json-patch"

	"github.com/confkit/hydrate/encode"
	"github.com/confkit/hydrate/format"
	"github.com/confkit/hydrate/ir"
)

// Patch applies an RFC 6902 JSON patch document to doc and returns the
// patched tree. Both trees round-trip through their JSON rendering.
func Patch(doc, patch *ir.Node) (*ir.Node, error) {
	d, err := encode.MarshalJSON(doc)
	if err != nil {
		return nil, err
	}
	p, err := encode.MarshalJSON(patch)
	if err != nil {
		return nil, err
	}
	ops, err := jsonpatch.DecodePatch(p)
	if err != nil {
		return nil, err
	}
	out, err := ops.Apply(d)
	if err != nil {
		return nil, err
	}
	return Decode(out, format.JSONFormat)
}

// MergePatch applies an RFC 7386 merge patch to doc.
func MergePatch(doc, patch *ir.Node) (*ir.Node, error) {
	d, err := encode.MarshalJSON(doc)
	if err != nil {
		return nil, err
	}
	p, err := encode.MarshalJSON(patch)
	if err != nil {
		return nil, err
	}
	out, err := jsonpatch.MergePatch(d, p)
	if err != nil {
		return nil, err
	}
	return Decode(out, format.JSONFormat)
}
