package shell

import (
	"errors"
	"fmt"

	"github.com/abiosoft/ishell"
	flag "github.com/ogier/pflag"

	"github.com/juruen/inkmath/annotations"
)

func reportCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "report",
		Help:      "write a PDF with the ink, the clusters and the answer, usage: report [-n] <file.pdf>",
		Completer: createFsEntryCompleter(),
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("report", flag.ContinueOnError)
			var pageNumbers, inkOnly bool
			flagSet.BoolVarP(&pageNumbers, "number", "n", false, "add page numbers")
			flagSet.BoolVar(&inkOnly, "ink-only", false, "skip cluster boxes")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}

			argRest := flagSet.Args()
			if len(argRest) == 0 {
				c.Err(errors.New("missing output file"))
				return
			}

			answer, err := lastAnswer(ctx)
			if err != nil {
				c.Err(err)
				return
			}

			opts := annotations.ReportOptions{
				Title:          ctx.Path,
				AddPageNumbers: pageNumbers,
				InkOnly:        inkOnly,
			}
			page := annotations.Page{
				Width:   float64(ctx.Drawing.Width),
				Height:  float64(ctx.Drawing.Height),
				Strokes: ctx.Drawing.Strokes,
				Answer:  answer,
			}
			if err := annotations.CreateReportGenerator(argRest[0], opts).Generate(page); err != nil {
				c.Err(fmt.Errorf("report failed: %v", err))
				return
			}
			c.Println("OK")
		},
	}
}
