package classifier

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClassifier struct {
	active  int32
	maxSeen int32
}

func (c *countingClassifier) Classify(ctx context.Context, img *image.Gray) (Prediction, error) {
	n := atomic.AddInt32(&c.active, 1)
	defer atomic.AddInt32(&c.active, -1)
	for {
		m := atomic.LoadInt32(&c.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&c.maxSeen, m, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return Prediction{Label: 7}, nil
}

func TestSerializeRunsOneAtATime(t *testing.T) {
	inner := &countingClassifier{}
	c := Serialize(inner)
	assert.Same(t, c, Serialize(c))

	img := image.NewGray(image.Rect(0, 0, InputSize, InputSize))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Classify(context.Background(), img)
			assert.NoError(t, err)
			assert.Equal(t, 7, p.Label)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.maxSeen))
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open("does-not-exist", "")
	assert.ErrorIs(t, err, ErrInit)
}

func TestOpenWrapsLoaderErrors(t *testing.T) {
	Register("broken", func(string) (Classifier, error) {
		return nil, errors.New("corrupt weights")
	})

	_, err := Open("broken", "model.bin")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInit)
	assert.Contains(t, err.Error(), "corrupt weights")
	assert.Contains(t, Kinds(), "broken")
}

func TestCheckInput(t *testing.T) {
	assert.NoError(t, CheckInput(image.NewGray(image.Rect(0, 0, 28, 28))))
	assert.ErrorIs(t, CheckInput(image.NewGray(image.Rect(0, 0, 28, 27))), ErrClassification)
	assert.ErrorIs(t, CheckInput(nil), ErrClassification)
}

func TestPixelsSubImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*image.Gray)

	assert.Equal(t, []byte{5, 6, 9, 10}, Pixels(sub))
	assert.Len(t, Pixels(img), 16)
}

func TestFromScores(t *testing.T) {
	p, err := FromScores([]float64{0, 1, 5, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Label)

	var sum float64
	for _, v := range p.Probabilities {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	_, err = FromScores(nil)
	assert.ErrorIs(t, err, ErrClassification)
}
