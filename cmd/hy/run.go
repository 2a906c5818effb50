package main

import (
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/confkit/hydrate/decode"
	"github.com/confkit/hydrate/encode"
	"github.com/confkit/hydrate/format"
	"github.com/confkit/hydrate/ir"
)

func view(cfg *ViewConfig, cc *cli.Context, args []string) error {
	args, err := cfg.View.Parse(cc, args)
	if err != nil {
		cfg.View.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	return eachInput(cfg.MainConfig, args, func(arg string, node *ir.Node) error {
		colors := outColors(cfg.MainConfig, cc.Out)
		if colors == nil {
			colors = encode.NewColors()
		}
		return encode.EncodeColor(node, cc.Out, colors)
	})
}

func convert(cfg *ConvertConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Convert.Parse(cc, args)
	if err != nil {
		cfg.Convert.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	return eachInput(cfg.MainConfig, args, func(arg string, node *ir.Node) error {
		return writeNode(cfg.MainConfig, cc.Out, node)
	})
}

func patch(cfg *PatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Patch.Parse(cc, args)
	if err != nil {
		cfg.Patch.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: patch requires a patch file argument", cli.ErrUsage)
	}
	patchNode, err := readInput(cfg.MainConfig, args[0])
	if err != nil {
		return err
	}
	args = args[1:]
	return eachInput(cfg.MainConfig, args, func(arg string, node *ir.Node) error {
		var res *ir.Node
		var perr error
		if cfg.Merge {
			res, perr = decode.MergePatch(node, patchNode)
		} else {
			res, perr = decode.Patch(node, patchNode)
		}
		if perr != nil {
			return fmt.Errorf("error patching %s: %w", arg, perr)
		}
		return writeNode(cfg.MainConfig, cc.Out, res)
	})
}

func check(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		cfg.Check.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	failed := false
	for _, arg := range inputArgs(args) {
		_, err := readInput(cfg.MainConfig, arg)
		if err != nil {
			failed = true
			if !cfg.Quiet {
				fmt.Fprintf(cc.Out, "%s: %v\n", arg, err)
			}
			continue
		}
		if !cfg.Quiet {
			fmt.Fprintf(cc.Out, "%s: ok\n", arg)
		}
	}
	if failed {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func inputArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"-"}
	}
	return args
}

func eachInput(cfg *MainConfig, args []string, f func(arg string, node *ir.Node) error) error {
	for _, arg := range inputArgs(args) {
		node, err := readInput(cfg, arg)
		if err != nil {
			return err
		}
		if err := f(arg, node); err != nil {
			return err
		}
	}
	return nil
}

func readInput(cfg *MainConfig, arg string) (*ir.Node, error) {
	var rd io.Reader
	if arg == "-" {
		rd = os.Stdin
	} else {
		f, err := os.Open(arg)
		if err != nil {
			return nil, fmt.Errorf("error opening %s: %w", arg, err)
		}
		defer f.Close()
		rd = f
	}
	d, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	node, err := decode.Decode(d, cfg.inFormat())
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", arg, err)
	}
	return node, nil
}

func writeNode(cfg *MainConfig, w io.Writer, node *ir.Node) error {
	var d []byte
	var err error
	switch cfg.outFormat() {
	case format.YAMLFormat:
		d, err = encode.MarshalYAML(node)
	default:
		d, err = encode.MarshalJSON(node)
		d = append(d, '\n')
	}
	if err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	_, err = w.Write(d)
	return err
}

func outColors(cfg *MainConfig, w io.Writer) *encode.Colors {
	f, ok := w.(*os.File)
	if !ok {
		return cfg.colors(nil)
	}
	return cfg.colors(f)
}
