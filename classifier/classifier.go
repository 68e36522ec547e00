// Package classifier defines the digit classifier contract and a
// registry of model backends.
package classifier

import (
	"context"
	"image"
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// InputSize is the side of the square grayscale input every backend
// accepts
const InputSize = 28

var (
	// ErrInit is returned when a model cannot be loaded
	ErrInit = errors.New("classifier unavailable")
	// ErrClassification is returned when inference fails for one image
	ErrClassification = errors.New("classification failed")
)

// Prediction is the label chosen for an image plus the distribution it
// was chosen from
type Prediction struct {
	Label         int
	Probabilities map[int]float64
}

// Classifier maps a normalized image to a digit.
// Implementations must be safe for concurrent use; wrap runtimes that
// are not with Serialize.
type Classifier interface {
	Classify(ctx context.Context, img *image.Gray) (Prediction, error)
}

// Loader opens a model from a location (usually a file path)
type Loader func(location string) (Classifier, error)

var (
	loadersMu sync.RWMutex
	loaders   = map[string]Loader{}
)

// Register makes a backend available to Open
func Register(kind string, l Loader) {
	loadersMu.Lock()
	defer loadersMu.Unlock()
	loaders[kind] = l
}

// Kinds lists the registered backends
func Kinds() []string {
	loadersMu.RLock()
	defer loadersMu.RUnlock()
	out := make([]string, 0, len(loaders))
	for k := range loaders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open loads a model with the named backend
func Open(kind, location string) (Classifier, error) {
	loadersMu.RLock()
	l, ok := loaders[kind]
	loadersMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrInit, "unknown classifier %q (have %v)", kind, Kinds())
	}

	c, err := l(location)
	if err != nil {
		if errors.Is(err, ErrInit) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrInit, "%s: %v", kind, err)
	}
	return c, nil
}

// CheckInput validates the image against the input contract
func CheckInput(img *image.Gray) error {
	if img == nil {
		return errors.Wrap(ErrClassification, "nil image")
	}
	b := img.Bounds()
	if b.Dx() != InputSize || b.Dy() != InputSize {
		return errors.Wrapf(ErrClassification, "input is %dx%d, want %dx%d", b.Dx(), b.Dy(), InputSize, InputSize)
	}
	return nil
}

// Pixels returns the image as one contiguous row-major 8-bit plane
func Pixels(img *image.Gray) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if img.Stride == w && b.Min == (image.Point{}) {
		return img.Pix[:w*h]
	}

	out := make([]byte, 0, w*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		out = append(out, img.Pix[off:off+w]...)
	}
	return out
}

// FromScores turns raw per-digit scores into a prediction via softmax
func FromScores(scores []float64) (Prediction, error) {
	if len(scores) == 0 {
		return Prediction{}, errors.Wrap(ErrClassification, "no scores")
	}

	maxScore := math.Inf(-1)
	for _, s := range scores {
		if math.IsNaN(s) {
			return Prediction{}, errors.Wrap(ErrClassification, "score is NaN")
		}
		maxScore = math.Max(maxScore, s)
	}

	var sum float64
	exp := make([]float64, len(scores))
	for i, s := range scores {
		exp[i] = math.Exp(s - maxScore)
		sum += exp[i]
	}

	p := Prediction{Probabilities: make(map[int]float64, len(scores))}
	best := -1.0
	for i, e := range exp {
		prob := e / sum
		p.Probabilities[i] = prob
		if prob > best {
			best = prob
			p.Label = i
		}
	}
	return p, nil
}
