// Package ink holds the stroke model shared by the recognition pipeline.
//
// Strokes are immutable once created: every transformation returns new
// values and leaves the input untouched, so a prediction pass can safely
// work on a snapshot while the canvas keeps collecting ink.
package ink

import (
	"math"

	"github.com/google/uuid"
)

// Point is one sample of an ink path
type Point struct {
	X, Y float32
	// TimeOffset is the number of seconds since the stroke started
	TimeOffset float32
	// Size is the diameter of the pen tip at this sample
	Size     float32
	Opacity  float32
	Force    float32
	Azimuth  float32
	Altitude float32
}

// Stroke is one continuous ink path from pen-down to pen-up
type Stroke struct {
	ID     uuid.UUID
	Points []Point
}

// NewStroke creates a stroke with a fresh identifier
func NewStroke(points []Point) Stroke {
	return Stroke{ID: uuid.New(), Points: points}
}

// Bounds returns the rendered bounding rectangle of the stroke,
// i.e. the sample positions grown by half of each sample's size.
func (s Stroke) Bounds() Rect {
	if len(s.Points) == 0 {
		return Rect{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range s.Points {
		r := float64(p.Size) / 2
		if r < 0 {
			r = 0
		}
		minX = math.Min(minX, float64(p.X)-r)
		minY = math.Min(minY, float64(p.Y)-r)
		maxX = math.Max(maxX, float64(p.X)+r)
		maxY = math.Max(maxY, float64(p.Y)+r)
	}

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Snapshot copies the stroke list so later edits to the caller's slice
// do not leak into a running pass. Points are shared since strokes are
// never mutated in place.
func Snapshot(strokes []Stroke) []Stroke {
	if len(strokes) == 0 {
		return nil
	}
	out := make([]Stroke, len(strokes))
	copy(out, strokes)
	return out
}

// Cluster is a group of strokes believed to form a single digit
type Cluster struct {
	Strokes []Stroke
	Bounds  Rect
}

// NewCluster builds a cluster and computes its union bounds
func NewCluster(strokes []Stroke) Cluster {
	c := Cluster{Strokes: strokes}
	for i, s := range strokes {
		if i == 0 {
			c.Bounds = s.Bounds()
			continue
		}
		c.Bounds = c.Bounds.Union(s.Bounds())
	}
	return c
}
