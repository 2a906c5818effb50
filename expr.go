package hydrate

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/confkit/hydrate/ir"
)

// ExprValidator compiles an expression into a rule Validator. The
// expression sees the raw value as `value` (plain Go shape) and must be
// truthy for the value to be accepted:
//
//	v, err := hydrate.ExprValidator(`value > 0 && value < 65536`)
//	rule := hydrate.NewRule("port").WithValidator(v)
func ExprValidator(src string) (Validator, error) {
	program, err := expr.Compile(src)
	if err != nil {
		return nil, err
	}
	return func(value *ir.Node) error {
		v, err := nodeAny(value)
		if err != nil {
			return err
		}
		out, err := vm.Run(program, map[string]any{"value": v})
		if err != nil {
			return err
		}
		if truthy(out) {
			return nil
		}
		return fmt.Errorf("expression %q rejected value", src)
	}, nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case nil:
		return false
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
