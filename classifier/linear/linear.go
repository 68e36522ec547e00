// Package linear implements a softmax regression digit classifier in
// pure Go. Models are JSON files holding one weight row per digit.
package linear

import (
	"context"
	"encoding/json"
	"image"
	"os"

	"github.com/pkg/errors"

	"github.com/juruen/inkmath/classifier"
	"github.com/juruen/inkmath/log"
)

const inputs = classifier.InputSize * classifier.InputSize

func init() {
	classifier.Register("linear", func(location string) (classifier.Classifier, error) {
		return Load(location)
	})
}

// File is the on-disk model format
type File struct {
	Labels  []int       `json:"labels,omitempty"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// Model is immutable after loading and safe for concurrent use
type Model struct {
	labels  []int
	weights [][]float64
	bias    []float64
}

// Load reads a model file
func Load(location string) (*Model, error) {
	b, err := os.ReadFile(location)
	if err != nil {
		return nil, errors.Wrapf(classifier.ErrInit, "can't read model: %v", err)
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrapf(classifier.ErrInit, "can't parse model %s: %v", location, err)
	}

	m, err := New(f)
	if err != nil {
		return nil, err
	}
	log.Info.Printf("loaded linear model %s (%d classes)", location, len(m.labels))
	return m, nil
}

// New validates a model definition
func New(f File) (*Model, error) {
	if len(f.Weights) == 0 {
		return nil, errors.Wrap(classifier.ErrInit, "model has no classes")
	}
	if len(f.Bias) != len(f.Weights) {
		return nil, errors.Wrapf(classifier.ErrInit, "bias has %d entries for %d classes", len(f.Bias), len(f.Weights))
	}
	for i, row := range f.Weights {
		if len(row) != inputs {
			return nil, errors.Wrapf(classifier.ErrInit, "class %d has %d weights, want %d", i, len(row), inputs)
		}
	}

	labels := f.Labels
	if labels == nil {
		labels = make([]int, len(f.Weights))
		for i := range labels {
			labels[i] = i
		}
	}
	if len(labels) != len(f.Weights) {
		return nil, errors.Wrapf(classifier.ErrInit, "%d labels for %d classes", len(labels), len(f.Weights))
	}

	return &Model{labels: labels, weights: f.Weights, bias: f.Bias}, nil
}

func (m *Model) Classify(ctx context.Context, img *image.Gray) (classifier.Prediction, error) {
	if err := classifier.CheckInput(img); err != nil {
		return classifier.Prediction{}, err
	}
	if err := ctx.Err(); err != nil {
		return classifier.Prediction{}, err
	}

	px := classifier.Pixels(img)
	scores := make([]float64, len(m.weights))
	for c, row := range m.weights {
		s := m.bias[c]
		for i, v := range px {
			if v != 0 {
				s += row[i] * float64(v) / 255
			}
		}
		scores[c] = s
	}

	p, err := classifier.FromScores(scores)
	if err != nil {
		return p, err
	}

	// map class indices onto the configured labels
	probs := make(map[int]float64, len(p.Probabilities))
	for i, v := range p.Probabilities {
		probs[m.labels[i]] += v
	}
	return classifier.Prediction{Label: m.labels[p.Label], Probabilities: probs}, nil
}
