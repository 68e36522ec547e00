// Package cluster partitions strokes into digit candidates.
//
// Grouping is greedy: strokes are scanned left to right and every stroke
// not yet claimed becomes the seed of a new cluster, which claims all
// unclaimed strokes whose bounds origin lies close enough to the seed's.
package cluster

import (
	"math"
	"sort"

	"github.com/juruen/inkmath/ink"
	"github.com/juruen/inkmath/log"
)

const (
	// DefaultHorizontalTolerance scales the seed width into the
	// horizontal claiming range
	DefaultHorizontalTolerance = 1.0
	// DefaultVerticalTolerance scales the seed height into the
	// vertical claiming range
	DefaultVerticalTolerance = 1.2
)

type options struct {
	horizontal float64
	vertical   float64
}

// Option tunes the claiming ranges
type Option func(*options)

func WithHorizontalTolerance(f float64) Option {
	return func(o *options) {
		if f > 0 {
			o.horizontal = f
		}
	}
}

func WithVerticalTolerance(f float64) Option {
	return func(o *options) {
		if f > 0 {
			o.vertical = f
		}
	}
}

// Group splits strokes into clusters in seed order. Every input stroke
// ends up in exactly one cluster. Strokes are identified by their
// position in the input, so two strokes with identical bounds are still
// told apart and ties in x keep the input order.
func Group(strokes []ink.Stroke, opts ...Option) []ink.Cluster {
	o := options{
		horizontal: DefaultHorizontalTolerance,
		vertical:   DefaultVerticalTolerance,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(strokes) == 0 {
		return nil
	}

	bounds := make([]ink.Rect, len(strokes))
	order := make([]int, len(strokes))
	for i, s := range strokes {
		bounds[i] = s.Bounds()
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return bounds[order[a]].X < bounds[order[b]].X
	})

	claimed := make([]bool, len(strokes))
	var clusters []ink.Cluster

	for _, seed := range order {
		if claimed[seed] {
			continue
		}

		s := bounds[seed]
		rangeX := s.Width * o.horizontal
		rangeY := s.Height * o.vertical

		// the seed always belongs to its own cluster, even when its
		// bounds are degenerate
		claimed[seed] = true
		members := []ink.Stroke{strokes[seed]}

		for _, idx := range order {
			if claimed[idx] {
				continue
			}
			t := bounds[idx]
			if math.Abs(t.X-s.X) <= rangeX && math.Abs(t.Y-s.Y) <= rangeY {
				claimed[idx] = true
				members = append(members, strokes[idx])
			}
		}

		c := ink.NewCluster(members)
		log.Trace.Printf("cluster %d: seed %s, %d strokes, bounds %s", len(clusters), strokes[seed].ID, len(members), c.Bounds)
		clusters = append(clusters, c)
	}

	return clusters
}
