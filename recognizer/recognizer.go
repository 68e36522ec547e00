// Package recognizer runs prediction passes: thicken the ink, group it
// into digit clusters, normalize and classify every cluster, and join
// the digits into an answer.
package recognizer

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/juruen/inkmath/classifier"
	"github.com/juruen/inkmath/cluster"
	"github.com/juruen/inkmath/ink"
	"github.com/juruen/inkmath/log"
	"github.com/juruen/inkmath/normalize"
)

var (
	// ErrAssembly means the digits could not be joined into a number
	ErrAssembly = errors.New("no prediction")
	// ErrUnavailable means no classifier is loaded
	ErrUnavailable = errors.New("recognition unavailable")

	// aliases so callers only need this package to inspect failures
	ErrGeometry        = normalize.ErrGeometry
	ErrImageConversion = normalize.ErrImageConversion
	ErrClassification  = classifier.ErrClassification
	ErrInit            = classifier.ErrInit
)

// Config tunes a recognizer
type Config struct {
	StrokeWidth         float32
	HorizontalTolerance float64
	VerticalTolerance   float64
	// Scale is the number of device pixels per canvas unit
	Scale float64
	// Workers bounds concurrent cluster classification
	Workers int64
	Policy  Policy
}

func DefaultConfig() Config {
	return Config{
		StrokeWidth:         ink.DefaultStrokeWidth,
		HorizontalTolerance: cluster.DefaultHorizontalTolerance,
		VerticalTolerance:   cluster.DefaultVerticalTolerance,
		Scale:               1,
		Workers:             int64(runtime.NumCPU()),
		Policy:              SkipFailed,
	}
}

// Recognizer is safe for concurrent use as long as its classifier is
type Recognizer struct {
	classifier classifier.Classifier
	normalizer *normalize.Normalizer
	cfg        Config
}

// New creates a recognizer. A nil classifier is allowed: every pass then
// fails with ErrUnavailable, which lets callers keep running when the
// model failed to load.
func New(c classifier.Classifier, cfg Config) *Recognizer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	n := normalize.New()
	if cfg.Scale > 0 {
		n.Scale = cfg.Scale
	}
	return &Recognizer{classifier: c, normalizer: n, cfg: cfg}
}

func (r *Recognizer) Available() bool {
	return r.classifier != nil
}

func (r *Recognizer) Config() Config {
	return r.cfg
}

// Clusters thickens the strokes and groups them, in scan order
func (r *Recognizer) Clusters(strokes []ink.Stroke) []ink.Cluster {
	thick := ink.Thicken(strokes, r.cfg.StrokeWidth)
	return cluster.Group(thick,
		cluster.WithHorizontalTolerance(r.cfg.HorizontalTolerance),
		cluster.WithVerticalTolerance(r.cfg.VerticalTolerance))
}

// Normalize returns the classifier input for every cluster, failed
// clusters get a nil image and an error
func (r *Recognizer) Normalize(clusters []ink.Cluster) []DigitResult {
	out := make([]DigitResult, len(clusters))
	for i, c := range clusters {
		img, err := r.normalizer.Normalize(c)
		out[i] = DigitResult{Index: i, Cluster: c, Image: img, Err: err}
	}
	return out
}

// Predict runs one pass over a snapshot of the strokes. The returned
// error is only set when no pass could run at all (ErrUnavailable) or
// when ctx was cancelled; a missing answer is reported through
// Answer.OK and Answer.Err.
func (r *Recognizer) Predict(ctx context.Context, strokes []ink.Stroke) (Answer, error) {
	if r.classifier == nil {
		return Answer{Err: ErrUnavailable}, ErrUnavailable
	}

	snapshot := ink.Snapshot(strokes)
	clusters := r.Clusters(snapshot)
	log.Trace.Printf("predict: %d strokes, %d clusters", len(snapshot), len(clusters))
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	results := make([]DigitResult, len(clusters))
	sem := semaphore.NewWeighted(r.cfg.Workers)
	var acquireErr error
	for i, c := range clusters {
		if err := sem.Acquire(ctx, 1); err != nil {
			acquireErr = err
			break
		}
		go func(i int, c ink.Cluster) {
			defer sem.Release(1)
			results[i] = r.recognize(ctx, i, c)
		}(i, c)
	}

	// Wait for all goroutines to finish
	if err := sem.Acquire(context.Background(), r.cfg.Workers); err != nil {
		log.Error.Printf("predict: can't wait for workers: %v", err)
	}
	sem.Release(r.cfg.Workers)

	if acquireErr != nil {
		return Answer{}, acquireErr
	}
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	answer := Assemble(results, r.cfg.Policy)
	if answer.OK {
		log.Trace.Printf("predict: answer %d", answer.Value)
	} else {
		log.Trace.Printf("predict: %v", answer.Err)
	}
	return answer, nil
}

func (r *Recognizer) recognize(ctx context.Context, i int, c ink.Cluster) DigitResult {
	res := DigitResult{Index: i, Cluster: c}

	img, err := r.normalizer.Normalize(c)
	if err != nil {
		log.Warning.Printf("cluster %d %s: %v", i, c.Bounds, err)
		res.Err = err
		return res
	}
	res.Image = img

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	p, err := r.classifier.Classify(ctx, img)
	if err != nil {
		if !errors.Is(err, ErrClassification) && ctx.Err() == nil {
			err = errors.Wrap(ErrClassification, err.Error())
		}
		log.Warning.Printf("cluster %d %s: %v", i, c.Bounds, err)
		res.Err = err
		return res
	}
	if p.Label < 0 || p.Label > 9 {
		res.Err = errors.Wrapf(ErrClassification, "label %d is not a digit", p.Label)
		log.Warning.Printf("cluster %d %s: %v", i, c.Bounds, res.Err)
		return res
	}

	res.Label = p.Label
	res.Probabilities = p.Probabilities
	return res
}
