package cluster

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juruen/inkmath/ink"
)

func box(x, y, w, h float32) ink.Stroke {
	return ink.NewStroke([]ink.Point{
		{X: x, Y: y},
		{X: x + w, Y: y + h},
	})
}

func ids(c ink.Cluster) []uuid.UUID {
	out := make([]uuid.UUID, len(c.Strokes))
	for i, s := range c.Strokes {
		out[i] = s.ID
	}
	return out
}

func TestGroupEmpty(t *testing.T) {
	assert.Empty(t, Group(nil))
}

func TestGroupSeparatedDigits(t *testing.T) {
	one := box(10, 10, 20, 60)
	two := box(100, 12, 40, 58)
	three := box(200, 8, 40, 62)

	// input order deliberately scrambled
	clusters := Group([]ink.Stroke{three, one, two})
	require.Len(t, clusters, 3)

	assert.Equal(t, []uuid.UUID{one.ID}, ids(clusters[0]))
	assert.Equal(t, []uuid.UUID{two.ID}, ids(clusters[1]))
	assert.Equal(t, []uuid.UUID{three.ID}, ids(clusters[2]))
}

func TestGroupSecondaryMark(t *testing.T) {
	// a "4" drawn as a long vertical bar plus a detached angle to its left
	angle := box(50, 20, 30, 40)
	bar := box(70, 10, 10, 80)

	clusters := Group([]ink.Stroke{bar, angle})
	require.Len(t, clusters, 1)
	assert.Equal(t, []uuid.UUID{angle.ID, bar.ID}, ids(clusters[0]))
	assert.Equal(t, ink.Rect{X: 50, Y: 10, Width: 30, Height: 80}, clusters[0].Bounds)
}

func TestGroupVerticalTolerance(t *testing.T) {
	seed := box(0, 0, 20, 50)
	// the vertical range is 1.2*50 below the seed origin
	below := box(5, 59, 20, 50)
	farBelow := box(5, 61, 20, 50)

	assert.Len(t, Group([]ink.Stroke{seed, below}), 1)
	assert.Len(t, Group([]ink.Stroke{seed, farBelow}), 2)
	assert.Len(t, Group([]ink.Stroke{seed, farBelow}, WithVerticalTolerance(1.5)), 1)
}

func TestGroupIsolation(t *testing.T) {
	a := box(0, 0, 20, 20)
	b := box(21, 0, 20, 20)
	c := box(0, 25, 20, 20)

	clusters := Group([]ink.Stroke{a, b, c})
	require.Len(t, clusters, 3)
	for _, cl := range clusters {
		assert.Len(t, cl.Strokes, 1)
	}
}

func TestGroupIdenticalBounds(t *testing.T) {
	a := box(10, 10, 20, 20)
	b := box(10, 10, 20, 20)
	far := box(500, 10, 20, 20)

	clusters := Group([]ink.Stroke{a, far, b})
	require.Len(t, clusters, 2)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids(clusters[0]))
	assert.Equal(t, []uuid.UUID{far.ID}, ids(clusters[1]))
}

func TestGroupDegenerateSeed(t *testing.T) {
	dot := ink.NewStroke([]ink.Point{{X: 5, Y: 5}})
	other := box(5, 5, 10, 10)

	clusters := Group([]ink.Stroke{dot, other})
	total := 0
	for _, c := range clusters {
		total += len(c.Strokes)
	}
	assert.Equal(t, 2, total)
}

func randomStrokes(r *rand.Rand, n int) []ink.Stroke {
	out := make([]ink.Stroke, n)
	for i := range out {
		out[i] = box(
			float32(r.Intn(400)),
			float32(r.Intn(100)),
			float32(1+r.Intn(60)),
			float32(1+r.Intn(60)),
		)
	}
	return out
}

func TestGroupPartition(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		strokes := randomStrokes(r, 1+r.Intn(25))
		clusters := Group(strokes)

		seen := map[uuid.UUID]int{}
		for _, c := range clusters {
			require.NotEmpty(t, c.Strokes)
			for _, s := range c.Strokes {
				seen[s.ID]++
			}
		}

		require.Len(t, seen, len(strokes))
		for _, s := range strokes {
			assert.Equal(t, 1, seen[s.ID], "stroke %s", s.ID)
		}
	}
}

func TestGroupDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		strokes := randomStrokes(r, 1+r.Intn(25))

		first := Group(strokes)
		second := Group(strokes)
		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, ids(first[i]), ids(second[i]))
			assert.Equal(t, first[i].Bounds, second[i].Bounds)
		}
	}
}
