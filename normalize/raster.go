package normalize

import (
	"image"
	"math"

	"golang.org/x/image/vector"

	"github.com/juruen/inkmath/ink"
)

// circleSegments is the polygon resolution of a pen tip
const circleSegments = 16

// minRadius keeps hairlines visible after rasterization
const minRadius = 0.5

type vec2 struct{ x, y float32 }

// rasterize draws the cluster's ink into an alpha mask covering exactly
// the cluster bounds
func (n *Normalizer) rasterize(c ink.Cluster) (*image.Alpha, error) {
	scale := n.Scale
	if scale <= 0 {
		scale = 1
	}

	w, h, err := rasterSize(c.Bounds, scale)
	if err != nil {
		return nil, err
	}

	r := vector.NewRasterizer(w, h)
	toDevice := func(p ink.Point) vec2 {
		return vec2{
			x: float32((float64(p.X) - c.Bounds.X) * scale),
			y: float32((float64(p.Y) - c.Bounds.Y) * scale),
		}
	}

	for _, s := range c.Strokes {
		for i, p := range s.Points {
			radius := float32(math.Max(float64(p.Size)*scale/2, minRadius))
			a := toDevice(p)
			addCircle(r, a, radius)

			if i == 0 {
				continue
			}
			prev := s.Points[i-1]
			prevRadius := float32(math.Max(float64(prev.Size)*scale/2, minRadius))
			addSegment(r, toDevice(prev), a, prevRadius, radius)
		}
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask, nil
}

// addSegment adds the quad joining two pen tips
func addSegment(r *vector.Rasterizer, a, b vec2, ra, rb float32) {
	dx, dy := b.x-a.x, b.y-a.y
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length, dx/length

	addPolygon(r, []vec2{
		{a.x + nx*ra, a.y + ny*ra},
		{b.x + nx*rb, b.y + ny*rb},
		{b.x - nx*rb, b.y - ny*rb},
		{a.x - nx*ra, a.y - ny*ra},
	})
}

func addCircle(r *vector.Rasterizer, c vec2, radius float32) {
	pts := make([]vec2, circleSegments)
	for i := range pts {
		angle := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = vec2{
			x: c.x + radius*float32(math.Cos(angle)),
			y: c.y + radius*float32(math.Sin(angle)),
		}
	}
	addPolygon(r, pts)
}

// addPolygon adds a closed polygon with a fixed winding direction.
// The rasterizer accumulates signed area, so overlapping shapes of
// opposite orientation would cancel each other out.
func addPolygon(r *vector.Rasterizer, pts []vec2) {
	if len(pts) < 3 {
		return
	}

	var area float32
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].x*pts[j].y - pts[j].x*pts[i].y
	}
	if area == 0 {
		return
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}

	r.MoveTo(pts[0].x, pts[0].y)
	for _, p := range pts[1:] {
		r.LineTo(p.x, p.y)
	}
	r.ClosePath()
}
