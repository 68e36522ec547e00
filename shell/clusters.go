package shell

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/abiosoft/ishell"
	flag "github.com/ogier/pflag"

	"github.com/juruen/inkmath/ink"
)

type ClusterJSON struct {
	Index   int      `json:"index"`
	Strokes []string `json:"strokes"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
}

func ClusterToJSON(i int, c ink.Cluster) ClusterJSON {
	ids := make([]string, len(c.Strokes))
	for j, s := range c.Strokes {
		ids[j] = s.ID.String()
	}
	return ClusterJSON{
		Index:   i,
		Strokes: ids,
		X:       c.Bounds.X,
		Y:       c.Bounds.Y,
		Width:   c.Bounds.Width,
		Height:  c.Bounds.Height,
	}
}

func clustersCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "clusters",
		Help: "list the digit clusters of the loaded drawing",
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("clusters", flag.ContinueOnError)
			var jsonOutput bool
			flagSet.BoolVarP(&jsonOutput, "json", "j", false, "json output")
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
			clusters := ctx.Recognizer.Clusters(strokes)

			var buf bytes.Buffer
			if jsonOutput {
				err = displayClustersJSON(&buf, clusters)
			} else {
				displayClusters(&buf, clusters)
			}
			if err != nil {
				c.Err(err)
				return
			}
			c.Print(buf.String())
		},
	}
}

func displayClusters(w io.Writer, clusters []ink.Cluster) {
	if len(clusters) == 0 {
		fmt.Fprintln(w, "no ink")
		return
	}
	for i, cl := range clusters {
		fmt.Fprintf(w, "%2d  %-28s %d strokes\n", i, cl.Bounds, len(cl.Strokes))
	}
}

func displayClustersJSON(w io.Writer, clusters []ink.Cluster) error {
	out := make([]ClusterJSON, len(clusters))
	for i, cl := range clusters {
		out[i] = ClusterToJSON(i, cl)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(b))
	return nil
}
