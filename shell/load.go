package shell

import (
	"errors"
	"fmt"

	"github.com/abiosoft/ishell"
	flag "github.com/ogier/pflag"

	"github.com/juruen/inkmath/encoding/drawing"
)

func loadCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "load",
		Help:      "load a drawing, usage: load [--raw] <file>",
		Completer: createFsEntryCompleter(),
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("load", flag.ContinueOnError)
			var raw bool
			flagSet.BoolVarP(&raw, "raw", "r", false, "keep strokes too small for the canvas")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}

			argRest := flagSet.Args()
			if len(argRest) == 0 {
				c.Err(errors.New("missing drawing file"))
				return
			}

			msg, err := loadDrawing(ctx, argRest[0], raw)
			if err != nil {
				c.Err(err)
				return
			}
			c.SetPrompt(ctx.prompt())
			c.Println(msg)
		},
	}
}

func loadDrawing(ctx *ShellCtxt, path string, raw bool) (string, error) {
	d, err := drawing.Load(path)
	if err != nil {
		return "", err
	}

	total := len(d.Strokes)
	if !raw {
		d.Strokes = d.Filtered(ctx.Config.MinStrokeDivisor)
	}

	ctx.Drawing = d
	ctx.Path = path
	ctx.Last = nil
	return fmt.Sprintf("loaded %s: %.0fx%.0f, %d strokes (%d dropped)",
		path, d.Width, d.Height, len(d.Strokes), total-len(d.Strokes)), nil
}
