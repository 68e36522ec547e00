// Package shell is the interactive inkmath console.
package shell

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/juruen/inkmath/config"
	"github.com/juruen/inkmath/encoding/drawing"
	"github.com/juruen/inkmath/ink"
	"github.com/juruen/inkmath/log"
	"github.com/juruen/inkmath/recognizer"
)

var errNoDrawing = errors.New("no drawing loaded, use load <file>")

type ShellCtxt struct {
	Config     config.Config
	ConfigPath string
	Recognizer *recognizer.Recognizer

	Path    string
	Drawing *drawing.Drawing
	// Last is the answer of the latest predict, nil when the ink changed
	Last *recognizer.Answer
}

func (ctx *ShellCtxt) prompt() string {
	name := "-"
	if ctx.Path != "" {
		name = filepath.Base(ctx.Path)
	}
	return fmt.Sprintf("[%s]>", name)
}

func (ctx *ShellCtxt) strokes() ([]ink.Stroke, error) {
	if ctx.Drawing == nil {
		return nil, errNoDrawing
	}
	return ctx.Drawing.Strokes, nil
}

// reload rebuilds the recognizer after a configuration change. A model
// that fails to load leaves it unavailable.
func (ctx *ShellCtxt) reload() {
	ctx.Recognizer, _ = ctx.Config.NewRecognizer()
	ctx.Last = nil
}

func createFsEntryCompleter() func([]string) []string {
	return func(args []string) []string {
		pattern := "*"
		if len(args) > 0 {
			pattern = args[len(args)-1] + "*"
		}
		matches, _ := filepath.Glob(pattern)
		for i, m := range matches {
			if fi, err := os.Stat(m); err == nil && fi.IsDir() {
				matches[i] = m + string(filepath.Separator)
			}
		}
		return matches
	}
}

func setCustomCompleter(shell *ishell.Shell) {
	cmdCompleter := make(cmdToCompleter)
	for _, cmd := range shell.Cmds() {
		cmdCompleter[cmd.Name] = cmd.Completer
	}
	shell.CustomCompleter(cmdCompleter)
}

type cmdToCompleter map[string]func([]string) []string

func (c cmdToCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	fields := strings.Fields(string(line[:pos]))
	if len(fields) == 0 {
		return nil, 0
	}
	completer, ok := c[fields[0]]
	if !ok || completer == nil {
		return nil, 0
	}

	var prefix string
	if !strings.HasSuffix(string(line[:pos]), " ") {
		prefix = fields[len(fields)-1]
		fields = fields[:len(fields)-1]
	}
	for _, opt := range completer(append(fields[1:], prefix)) {
		if strings.HasPrefix(opt, prefix) {
			newLine = append(newLine, []rune(opt[len(prefix):]))
		}
	}
	return newLine, len(prefix)
}

// RunShell starts the console, or runs args as a single command
func RunShell(ctx *ShellCtxt, args []string) error {
	shell := ishell.New()
	shell.SetHomeHistoryPath(".inkmath_history")

	shell.AddCmd(loadCmd(ctx))
	shell.AddCmd(clustersCmd(ctx))
	shell.AddCmd(predictCmd(ctx))
	shell.AddCmd(previewCmd(ctx))
	shell.AddCmd(exportCmd(ctx))
	shell.AddCmd(reportCmd(ctx))
	shell.AddCmd(configCmd(ctx))
	setCustomCompleter(shell)

	if len(args) > 0 {
		return shell.Process(args...)
	}

	shell.SetPrompt(ctx.prompt())
	shell.Printf("inkmath console, classifier %s", ctx.Config.Classifier)
	if !ctx.Recognizer.Available() {
		shell.Printf(" (unavailable)")
	}
	shell.Println()
	log.Trace.Println("shell started")
	shell.Run()
	return nil
}
