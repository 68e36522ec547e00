package recognizer

import (
	"context"
	"image"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juruen/inkmath/classifier"
	"github.com/juruen/inkmath/ink"
)

// shapeClassifier labels tall ink 1, wide ink 2 and anything else 3.
// Labels listed in fail produce a classification error instead.
type shapeClassifier struct {
	fail   map[int]bool
	jitter bool

	mu    sync.Mutex
	calls int
}

func inkBox(img *image.Gray) (w, h int) {
	minX, minY, maxX, maxY := img.Bounds().Dx(), img.Bounds().Dy(), -1, -1
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if img.GrayAt(x, y).Y > 0x80 {
				minX, minY = min(minX, x), min(minY, y)
				maxX, maxY = max(maxX, x), max(maxY, y)
			}
		}
	}
	return maxX - minX + 1, maxY - minY + 1
}

func (s *shapeClassifier) Classify(ctx context.Context, img *image.Gray) (classifier.Prediction, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.jitter {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
	}

	w, h := inkBox(img)
	label := 3
	switch {
	case h > 2*w:
		label = 1
	case w > 2*h:
		label = 2
	}
	if s.fail[label] {
		return classifier.Prediction{}, errors.Wrapf(classifier.ErrClassification, "refusing %d", label)
	}
	return classifier.Prediction{Label: label, Probabilities: map[int]float64{label: 1}}, nil
}

func stroke(x0, y0, x1, y1 float32) ink.Stroke {
	return ink.NewStroke([]ink.Point{
		{X: x0, Y: y0, Size: 2, Opacity: 1},
		{X: (x0 + x1) / 2, Y: (y0 + y1) / 2, Size: 2, Opacity: 1, TimeOffset: 0.05},
		{X: x1, Y: y1, Size: 2, Opacity: 1, TimeOffset: 0.1},
	})
}

// oneTwoThree draws three separated marks that shapeClassifier reads
// as 1, 2 and 3, in scrambled input order
func oneTwoThree() []ink.Stroke {
	return []ink.Stroke{
		stroke(250, 20, 310, 80),
		stroke(10, 20, 10, 80),
		stroke(100, 50, 160, 50),
	}
}

func newRecognizer(c classifier.Classifier, workers int64, policy Policy) *Recognizer {
	cfg := DefaultConfig()
	cfg.Workers = workers
	cfg.Policy = policy
	return New(c, cfg)
}

func TestPredictScenarioA(t *testing.T) {
	for _, workers := range []int64{1, 4} {
		r := newRecognizer(&shapeClassifier{jitter: true}, workers, SkipFailed)

		a, err := r.Predict(context.Background(), oneTwoThree())
		require.NoError(t, err)
		require.True(t, a.OK, "%v", a.Err)
		assert.Equal(t, 123, a.Value)
		assert.Equal(t, "123", a.Digits)
		require.Len(t, a.Results, 3)
		for i, res := range a.Results {
			assert.Equal(t, i, res.Index)
			assert.NotNil(t, res.Image)
		}
	}
}

func TestPredictScenarioBSkipsFailedCluster(t *testing.T) {
	r := newRecognizer(&shapeClassifier{fail: map[int]bool{2: true}}, 2, SkipFailed)

	a, err := r.Predict(context.Background(), oneTwoThree())
	require.NoError(t, err)
	require.True(t, a.OK)
	assert.Equal(t, 13, a.Value)
	assert.ErrorIs(t, a.Results[1].Err, ErrClassification)
}

func TestPredictScenarioBFailFast(t *testing.T) {
	r := newRecognizer(&shapeClassifier{fail: map[int]bool{2: true}}, 2, FailFast)

	a, err := r.Predict(context.Background(), oneTwoThree())
	require.NoError(t, err)
	assert.False(t, a.OK)
	assert.ErrorIs(t, a.Err, ErrAssembly)
}

func TestPredictScenarioCEmptyInput(t *testing.T) {
	c := &shapeClassifier{}
	r := newRecognizer(c, 2, SkipFailed)

	a, err := r.Predict(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, a.OK)
	assert.Empty(t, a.Results)
	assert.ErrorIs(t, a.Err, ErrAssembly)
	assert.Zero(t, c.calls)
}

func TestPredictScenarioDAllFail(t *testing.T) {
	r := newRecognizer(&shapeClassifier{fail: map[int]bool{1: true, 2: true, 3: true}}, 2, SkipFailed)

	a, err := r.Predict(context.Background(), oneTwoThree())
	require.NoError(t, err)
	assert.False(t, a.OK)
	assert.Equal(t, "", a.Digits)
	assert.ErrorIs(t, a.Err, ErrAssembly)
}

func TestPredictDegenerateClusterIsSkipped(t *testing.T) {
	r := newRecognizer(&shapeClassifier{}, 2, SkipFailed)

	strokes := append(oneTwoThree(), ink.Stroke{})
	a, err := r.Predict(context.Background(), strokes)
	require.NoError(t, err)
	require.True(t, a.OK)
	assert.Equal(t, 123, a.Value)
	require.Len(t, a.Results, 4)
	assert.ErrorIs(t, a.Results[0].Err, ErrGeometry)
}

type fixedClassifier struct {
	p   classifier.Prediction
	err error
}

func (f fixedClassifier) Classify(context.Context, *image.Gray) (classifier.Prediction, error) {
	return f.p, f.err
}

func TestPredictRejectsNonDigitLabels(t *testing.T) {
	r := newRecognizer(fixedClassifier{p: classifier.Prediction{Label: 12}}, 1, SkipFailed)

	a, err := r.Predict(context.Background(), oneTwoThree())
	require.NoError(t, err)
	assert.False(t, a.OK)
	for _, res := range a.Results {
		assert.ErrorIs(t, res.Err, ErrClassification)
	}
}

func TestPredictWrapsForeignClassifierErrors(t *testing.T) {
	r := newRecognizer(fixedClassifier{err: errors.New("runtime fault")}, 1, SkipFailed)

	a, err := r.Predict(context.Background(), oneTwoThree())
	require.NoError(t, err)
	assert.ErrorIs(t, a.Results[0].Err, ErrClassification)
}

func TestPredictUnavailable(t *testing.T) {
	r := New(nil, DefaultConfig())
	assert.False(t, r.Available())

	a, err := r.Predict(context.Background(), oneTwoThree())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, a.OK)
}

func TestPredictCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRecognizer(&shapeClassifier{}, 2, SkipFailed)
	_, err := r.Predict(ctx, oneTwoThree())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssemble(t *testing.T) {
	ok := func(i, label int) DigitResult { return DigitResult{Index: i, Label: label} }
	bad := func(i int) DigitResult { return DigitResult{Index: i, Err: ErrClassification} }

	cases := []struct {
		name    string
		results []DigitResult
		policy  Policy
		want    int
		ok      bool
	}{
		{"single", []DigitResult{ok(0, 7)}, SkipFailed, 7, true},
		{"ordered", []DigitResult{ok(0, 4), ok(1, 0), ok(2, 2)}, SkipFailed, 402, true},
		{"leading zero", []DigitResult{ok(0, 0), ok(1, 5)}, SkipFailed, 5, true},
		{"skip middle", []DigitResult{ok(0, 1), bad(1), ok(2, 3)}, SkipFailed, 13, true},
		{"fail fast", []DigitResult{ok(0, 1), bad(1), ok(2, 3)}, FailFast, 0, false},
		{"empty", nil, SkipFailed, 0, false},
		{"all failed", []DigitResult{bad(0), bad(1)}, SkipFailed, 0, false},
		{"overflow", func() []DigitResult {
			var rs []DigitResult
			for i := 0; i < 40; i++ {
				rs = append(rs, ok(i, 9))
			}
			return rs
		}(), SkipFailed, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Assemble(tc.results, tc.policy)
			assert.Equal(t, tc.ok, a.OK)
			if tc.ok {
				assert.Equal(t, tc.want, a.Value)
				assert.NoError(t, a.Err)
			} else {
				assert.ErrorIs(t, a.Err, ErrAssembly)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, SkipFailed, p)

	p, err = ParsePolicy("FailFast")
	require.NoError(t, err)
	assert.Equal(t, FailFast, p)
	assert.Equal(t, "failfast", p.String())

	_, err = ParsePolicy("guess")
	assert.Error(t, err)
}
