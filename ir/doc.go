// Package ir provides the intermediate representation for decoded
// configuration trees.
//
// A decoded configuration value is one of Mapping (string keyed),
// Sequence (ordered), or a scalar (string, number, bool, null). All inputs
// to the hydration engine, whether parsed from JSON or YAML text or
// supplied directly by the caller, are represented as ir.Node trees.
//
// The IR works as a recursive tagged union structure, where values are
// placed in fields depending on the node type.
//
// # Creating Nodes
//
// Use constructor functions to create nodes:
//
//	node := ir.FromString("hello")
//	num := ir.FromInt(42)
//	flag := ir.FromBool(true)
//	obj := ir.FromMap(map[string]*ir.Node{
//	    "key": ir.FromString("value"),
//	})
//	seq := ir.FromValues([]*ir.Node{
//	    ir.FromInt(1),
//	    ir.FromInt(2),
//	})
//
// # Navigating Nodes
//
// Nodes maintain parent-child relationships:
//
//   - Parent: parent node (nil for root)
//   - ParentIndex: index in parent's sequence/mapping
//   - ParentField: field name if parent is a mapping
//   - Fields: field key nodes (for MappingType)
//   - Values: child values (for MappingType and SequenceType)
//
// # Thread Safety
//
// Node structures are not thread-safe. If you need to access nodes from
// multiple goroutines, you must synchronize access yourself or clone nodes
// for each goroutine.
//
// # Related Packages
//
//   - github.com/confkit/hydrate/decode - Decodes text into IR nodes
//   - github.com/confkit/hydrate/encode - Encodes IR nodes to text
//   - github.com/confkit/hydrate - Schema-driven hydration of Go values
package ir
