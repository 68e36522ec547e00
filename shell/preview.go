package shell

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/charmbracelet/lipgloss"
	flag "github.com/ogier/pflag"

	"github.com/juruen/inkmath/ink"
	"github.com/juruen/inkmath/recognizer"
)

var (
	borderCol = lipgloss.Color("#243141")
	okCol     = lipgloss.Color("#10B981")
	failCol   = lipgloss.Color("#EF4444")
	accentFg  = lipgloss.Color("#7C3AED")

	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(okCol).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(failCol)
)

const previewThreshold = 0x40

func previewCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "preview",
		Help: "draw the loaded ink, or with --digits the classifier inputs",
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("preview", flag.ContinueOnError)
			var width int
			var digits bool
			flagSet.IntVarP(&width, "width", "w", 60, "width in terminal cells")
			flagSet.BoolVarP(&digits, "digits", "d", false, "show normalized digits")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}

			strokes, err := ctx.strokes()
			if err != nil {
				c.Err(err)
				return
			}

			if !digits {
				c.Println(renderInk(ctx.Path, strokes, width))
				return
			}

			var results []recognizer.DigitResult
			if ctx.Last != nil {
				results = ctx.Last.Results
			} else {
				results = ctx.Recognizer.Normalize(ctx.Recognizer.Clusters(strokes))
			}
			c.Println(renderDigits(results, ctx.Last != nil))
		},
	}
}

func renderInk(title string, strokes []ink.Stroke, width int) string {
	b := inkToBraille(strokes, width)
	body := strings.Join(b.lines(), "\n")
	if title == "" {
		return boxStyle.Render(body)
	}
	return boxStyle.Render(titleStyle.Render(title) + "\n" + body)
}

// renderDigits boxes every normalized cluster; labelled tells whether
// the results come from a prediction
func renderDigits(results []recognizer.DigitResult, labelled bool) string {
	if len(results) == 0 {
		return boxStyle.Render("no ink")
	}

	boxes := make([]string, 0, len(results))
	for _, r := range results {
		var caption string
		switch {
		case r.Err != nil:
			caption = failStyle.Render("?")
		case labelled:
			caption = okStyle.Render(fmt.Sprint(r.Label))
		default:
			caption = titleStyle.Render(fmt.Sprintf("#%d", r.Index))
		}

		body := failStyle.Render(shortError(r.Err))
		if r.Image != nil {
			body = strings.Join(grayToBraille(r.Image, previewThreshold).lines(), "\n")
		}
		boxes = append(boxes, boxStyle.Render(caption+"\n"+body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func shortError(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if len(s) > 14 {
		s = s[:13] + "…"
	}
	return s
}
