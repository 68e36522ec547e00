package shell

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/juruen/inkmath/recognizer"
)

func exportCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "export",
		Help:      "write the normalized digits as PNG files, usage: export [dir]",
		Completer: createFsEntryCompleter(),
		Func: func(c *ishell.Context) {
			dir := "."
			if len(c.Args) > 0 {
				dir = c.Args[0]
			}

			strokes, err := ctx.strokes()
			if err != nil {
				c.Err(err)
				return
			}
			results := ctx.Recognizer.Normalize(ctx.Recognizer.Clusters(strokes))

			files, err := exportDigits(results, dir, baseName(ctx.Path))
			if err != nil {
				c.Err(err)
				return
			}
			for _, f := range files {
				c.Println(f)
			}
		},
	}
}

func baseName(path string) string {
	if path == "" {
		return "drawing"
	}
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// exportDigits writes one PNG per normalized cluster and skips the ones
// that failed
func exportDigits(results []recognizer.DigitResult, dir, base string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var files []string
	for _, r := range results {
		if r.Image == nil {
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("%s-%02d.png", base, r.Index))
		if err := writePNG(name, r); err != nil {
			return files, err
		}
		files = append(files, name)
	}
	if len(files) == 0 {
		return nil, errors.New("nothing to export")
	}
	return files, nil
}

func writePNG(name string, r recognizer.DigitResult) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, r.Image); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
