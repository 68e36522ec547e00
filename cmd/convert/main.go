package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/juruen/inkmath/annotations"
	"github.com/juruen/inkmath/config"
	"github.com/juruen/inkmath/encoding/drawing"
	"github.com/juruen/inkmath/log"
	"github.com/juruen/inkmath/recognizer"

	_ "github.com/juruen/inkmath/classifier/cvnet"
	_ "github.com/juruen/inkmath/classifier/linear"
)

func main() {
	inputName := flag.String("i", "", "drawing to convert, more can follow as arguments")
	outputName := flag.String("o", "", "output file (report) or directory (images)")
	extract := flag.String("e", "", "extract, r - pdf report, i - digit images, t - answers as text")
	configPath := flag.String("config", "", "settings file")
	flag.Parse()

	log.InitLog()

	inputs := flag.Args()
	if *inputName != "" {
		inputs = append([]string{*inputName}, inputs...)
	}

	var err error
	switch *extract {
	case "i":
		err = images(inputs, *outputName, *configPath)
	case "t":
		err = text(inputs, *configPath)
	case "":
		fallthrough
	case "r":
		err = report(inputs, *outputName, *configPath)
	default:
		err = fmt.Errorf("unknown extract mode %q", *extract)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRecognizer(configPath string) (*recognizer.Recognizer, config.Config, error) {
	if configPath == "" {
		p, err := config.Path()
		if err != nil {
			return nil, config.Config{}, err
		}
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, cfg, err
	}
	r, _ := cfg.NewRecognizer()
	return r, cfg, nil
}

type page struct {
	name    string
	drawing *drawing.Drawing
	answer  recognizer.Answer
}

// predictAll loads and recognizes every input concurrently, keeping
// the input order
func predictAll(inputs []string, r *recognizer.Recognizer, cfg config.Config) ([]page, error) {
	if len(inputs) == 0 {
		return nil, errors.New("missing input file")
	}

	pages := make([]page, len(inputs))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(int(cfg.Workers))
	for i, name := range inputs {
		g.Go(func() error {
			d, err := drawing.Load(name)
			if err != nil {
				return err
			}
			d.Strokes = d.Filtered(cfg.MinStrokeDivisor)

			answer, err := r.Predict(ctx, d.Strokes)
			if err != nil && !errors.Is(err, recognizer.ErrUnavailable) {
				return fmt.Errorf("%s: %w", name, err)
			}
			pages[i] = page{name: name, drawing: d, answer: answer}
			return nil
		})
	}
	return pages, g.Wait()
}

func report(inputs []string, outputName, configPath string) error {
	r, cfg, err := newRecognizer(configPath)
	if err != nil {
		return err
	}
	pages, err := predictAll(inputs, r, cfg)
	if err != nil {
		return err
	}

	if outputName == "" {
		nameOnly := strings.TrimSuffix(inputs[0], filepath.Ext(inputs[0]))
		outputName = nameOnly + ".pdf"
	}

	reportPages := make([]annotations.Page, len(pages))
	for i, p := range pages {
		reportPages[i] = annotations.Page{
			Width:   float64(p.drawing.Width),
			Height:  float64(p.drawing.Height),
			Strokes: p.drawing.Strokes,
			Answer:  p.answer,
		}
	}

	options := annotations.ReportOptions{
		Title:          filepath.Base(inputs[0]),
		AddPageNumbers: len(pages) > 1,
	}
	gen := annotations.CreateReportGenerator(outputName, options)
	return gen.Generate(reportPages...)
}

func text(inputs []string, configPath string) error {
	r, cfg, err := newRecognizer(configPath)
	if err != nil {
		return err
	}
	if !r.Available() {
		return recognizer.ErrUnavailable
	}
	pages, err := predictAll(inputs, r, cfg)
	if err != nil {
		return err
	}
	for _, p := range pages {
		if p.answer.OK {
			fmt.Printf("%s\t%d\n", p.name, p.answer.Value)
		} else {
			fmt.Printf("%s\t-\t%v\n", p.name, p.answer.Err)
		}
	}
	return nil
}

// images writes the classifier inputs, which needs no model
func images(inputs []string, outputDir, configPath string) error {
	if len(inputs) == 0 {
		return errors.New("missing input file")
	}
	_, cfg, err := newRecognizer(configPath)
	if err != nil {
		return err
	}
	r := recognizer.New(nil, cfg.Recognizer())
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for _, name := range inputs {
		d, err := drawing.Load(name)
		if err != nil {
			return err
		}
		base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		results := r.Normalize(r.Clusters(d.Filtered(cfg.MinStrokeDivisor)))
		for _, res := range results {
			if res.Err != nil {
				log.Warning.Printf("%s cluster %d: %v", name, res.Index, res.Err)
				continue
			}
			out := filepath.Join(outputDir, fmt.Sprintf("%s-%02d.png", base, res.Index))
			if err := writePNG(out, res.Image); err != nil {
				return err
			}
			fmt.Println(out)
		}
	}
	return nil
}
