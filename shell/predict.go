package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/abiosoft/ishell"
	flag "github.com/ogier/pflag"

	"github.com/juruen/inkmath/recognizer"
)

type DigitJSON struct {
	Index       int     `json:"index"`
	Label       *int    `json:"label,omitempty"`
	Probability float64 `json:"probability,omitempty"`
	Error       string  `json:"error,omitempty"`
}

type AnswerJSON struct {
	Value  *int        `json:"value,omitempty"`
	Digits string      `json:"digits"`
	Result []DigitJSON `json:"clusters"`
	Error  string      `json:"error,omitempty"`
}

func AnswerToJSON(a recognizer.Answer) AnswerJSON {
	out := AnswerJSON{Digits: a.Digits, Result: make([]DigitJSON, len(a.Results))}
	if a.OK {
		v := a.Value
		out.Value = &v
	}
	if a.Err != nil {
		out.Error = a.Err.Error()
	}
	for i, r := range a.Results {
		d := DigitJSON{Index: r.Index}
		if r.OK() {
			label := r.Label
			d.Label = &label
			d.Probability = r.Probabilities[r.Label]
		} else {
			d.Error = r.Err.Error()
		}
		out.Result[i] = d
	}
	return out
}

func predictCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "predict",
		Help: "recognize the number written in the loaded drawing",
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("predict", flag.ContinueOnError)
			var jsonOutput, verbose bool
			flagSet.BoolVarP(&jsonOutput, "json", "j", false, "json output")
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "show top candidates per digit")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}

			answer, err := predict(ctx)
			if err != nil {
				c.Err(err)
				return
			}

			var buf bytes.Buffer
			if jsonOutput {
				err = displayAnswerJSON(&buf, answer)
			} else {
				displayAnswer(&buf, answer, verbose)
			}
			if err != nil {
				c.Err(err)
				return
			}
			c.Print(buf.String())
		},
	}
}

// predict runs a pass and remembers its answer
func predict(ctx *ShellCtxt) (recognizer.Answer, error) {
	strokes, err := ctx.strokes()
	if err != nil {
		return recognizer.Answer{}, err
	}
	answer, err := ctx.Recognizer.Predict(context.Background(), strokes)
	if err != nil {
		return answer, err
	}
	ctx.Last = &answer
	return answer, nil
}

// lastAnswer reuses the latest prediction for the loaded ink
func lastAnswer(ctx *ShellCtxt) (recognizer.Answer, error) {
	if ctx.Last != nil {
		return *ctx.Last, nil
	}
	return predict(ctx)
}

type candidate struct {
	label int
	p     float64
}

func topCandidates(probs map[int]float64, n int) []candidate {
	out := make([]candidate, 0, len(probs))
	for l, p := range probs {
		out = append(out, candidate{l, p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].p != out[j].p {
			return out[i].p > out[j].p
		}
		return out[i].label < out[j].label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func displayAnswer(w io.Writer, a recognizer.Answer, verbose bool) {
	for _, r := range a.Results {
		if !r.OK() {
			fmt.Fprintf(w, "%2d  %-28s failed: %v\n", r.Index, r.Cluster.Bounds, r.Err)
			continue
		}
		fmt.Fprintf(w, "%2d  %-28s %d", r.Index, r.Cluster.Bounds, r.Label)
		if verbose {
			for _, cand := range topCandidates(r.Probabilities, 3) {
				fmt.Fprintf(w, "  %d:%.2f", cand.label, cand.p)
			}
		}
		fmt.Fprintln(w)
	}
	if a.OK {
		fmt.Fprintf(w, "answer: %d\n", a.Value)
	} else {
		fmt.Fprintf(w, "no answer: %v\n", a.Err)
	}
}

func displayAnswerJSON(w io.Writer, a recognizer.Answer) error {
	b, err := json.MarshalIndent(AnswerToJSON(a), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(b))
	return nil
}
