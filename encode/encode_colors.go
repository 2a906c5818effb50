package encode

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/confkit/hydrate/ir"
)

type Colorable struct {
	Type ir.Type
	Attr ColorAttr
}

type ColorAttr int

const (
	FieldColor ColorAttr = iota
	ValueColor
	SepColor
)

type Colors struct {
	Default func(string, ...any) string
	Map     map[Colorable]func(string, ...any) string
}

func NewColors() *Colors {
	colors := &Colors{
		Default: colorDefault,
		Map:     map[Colorable]func(string, ...any) string{},
	}
	for _, t := range ir.Types() {
		able := Colorable{
			Type: t,
			Attr: SepColor,
		}
		colors.Map[able] = color.RGB(255, 0, 196).SprintfFunc()
		able.Attr = FieldColor
		colors.Map[able] = color.RGB(196, 96, 16).SprintfFunc()
	}
	able := Colorable{Attr: ValueColor}

	able.Type = ir.NumberType
	colors.Map[able] = color.RGB(128, 216, 236).SprintfFunc()

	able.Type = ir.NullType
	colors.Map[able] = color.HiBlackString

	able.Type = ir.BoolType
	colors.Map[able] = color.MagentaString

	able.Type = ir.StringType
	colors.Map[able] = color.GreenString
	return colors
}

func colorDefault(s string, args ...any) string {
	return fmt.Sprintf(s, args...)
}

func (c *Colors) Color(t ir.Type, attr ColorAttr, s string) string {
	f, ok := c.Map[Colorable{Type: t, Attr: attr}]
	if !ok {
		f = c.Default
	}
	return f("%s", s)
}

// EncodeColor renders node as indented YAML-style text with per-type colors
// for terminal viewing.
func EncodeColor(node *ir.Node, w io.Writer, colors *Colors) error {
	return encodeColor(node, w, colors, 0)
}

func encodeColor(node *ir.Node, w io.Writer, colors *Colors, depth int) error {
	indent := strings.Repeat("  ", depth)
	switch node.Type {
	case ir.MappingType:
		if len(node.Fields) == 0 {
			return writeString(w, colors.Color(node.Type, SepColor, "{}")+"\n")
		}
		for i, field := range node.Fields {
			key := colors.Color(node.Type, FieldColor, field.String)
			sep := colors.Color(node.Type, SepColor, ":")
			val := node.Values[i]
			if val.Type.IsScalar() {
				line := fmt.Sprintf("%s%s%s %s\n", indent, key, sep,
					colors.Color(val.Type, ValueColor, val.ScalarString()))
				if err := writeString(w, line); err != nil {
					return err
				}
				continue
			}
			if err := writeString(w, fmt.Sprintf("%s%s%s\n", indent, key, sep)); err != nil {
				return err
			}
			if err := encodeColor(val, w, colors, depth+1); err != nil {
				return err
			}
		}
		return nil
	case ir.SequenceType:
		if len(node.Values) == 0 {
			return writeString(w, colors.Color(node.Type, SepColor, "[]")+"\n")
		}
		for _, val := range node.Values {
			dash := colors.Color(node.Type, SepColor, "-")
			if val.Type.IsScalar() {
				line := fmt.Sprintf("%s%s %s\n", indent, dash,
					colors.Color(val.Type, ValueColor, val.ScalarString()))
				if err := writeString(w, line); err != nil {
					return err
				}
				continue
			}
			if err := writeString(w, fmt.Sprintf("%s%s\n", indent, dash)); err != nil {
				return err
			}
			if err := encodeColor(val, w, colors, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeString(w, indent+colors.Color(node.Type, ValueColor, node.ScalarString())+"\n")
	}
}
