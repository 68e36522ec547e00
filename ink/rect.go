package ink

import (
	"fmt"
	"math"
)

// Rect is an axis aligned rectangle in canvas units
type Rect struct {
	X, Y          float64
	Width, Height float64
}

func (r Rect) MaxX() float64 {
	return r.X + r.Width
}

func (r Rect) MaxY() float64 {
	return r.Y + r.Height
}

// Empty reports whether the rectangle has no area
// (or holds values that cannot describe an area at all)
func (r Rect) Empty() bool {
	if math.IsNaN(r.Width) || math.IsNaN(r.Height) || math.IsInf(r.Width, 0) || math.IsInf(r.Height, 0) {
		return true
	}
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rectangle enclosing both r and o
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.MaxX(), o.MaxX())
	maxY := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.1f,%.1f %.1fx%.1f)", r.X, r.Y, r.Width, r.Height)
}
