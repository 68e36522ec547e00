package shell

import (
	"image"
	"math"

	"github.com/juruen/inkmath/ink"
)

// brailleBuf is a monochrome raster of 2x4 dots per terminal cell
type brailleBuf struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell 8-bit mask
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	for i := range m {
		m[i] = make([]uint8, w)
	}
	return &brailleBuf{w: w, h: h, m: m}
}

// dotBits maps the dot at (column, row) inside a cell to its bit
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (b *brailleBuf) setDot(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= dotBits[mx%2][my%4]
}

// line draws with Bresenham on the dot grid
func (b *brailleBuf) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		b.setDot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (b *brailleBuf) lines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]rune, b.w)
		for x := 0; x < b.w; x++ {
			mask := b.m[y][x]
			if mask == 0 {
				row[x] = ' '
			} else {
				row[x] = rune(0x2800 + int(mask))
			}
		}
		out[y] = string(row)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// inkToBraille fits the strokes' bounds into width cells
func inkToBraille(strokes []ink.Stroke, width int) *brailleBuf {
	var bounds ink.Rect
	first := true
	for _, s := range strokes {
		if len(s.Points) == 0 {
			continue
		}
		if first {
			bounds = s.Bounds()
			first = false
			continue
		}
		bounds = bounds.Union(s.Bounds())
	}
	if first || bounds.Empty() || width <= 0 {
		return newBrailleBuf(max(width, 1), 1)
	}

	dotsW := width * 2
	scale := float64(dotsW-1) / bounds.Width
	height := int(math.Ceil(bounds.Height*scale/4)) + 1
	b := newBrailleBuf(width, height)

	toDot := func(p ink.Point) (int, int) {
		return int(math.Round((float64(p.X) - bounds.X) * scale)),
			int(math.Round((float64(p.Y) - bounds.Y) * scale))
	}
	for _, s := range strokes {
		if len(s.Points) == 0 {
			continue
		}
		x0, y0 := toDot(s.Points[0])
		b.setDot(x0, y0)
		for _, p := range s.Points[1:] {
			x1, y1 := toDot(p)
			b.line(x0, y0, x1, y1)
			x0, y0 = x1, y1
		}
	}
	return b
}

// grayToBraille sets a dot for every pixel brighter than threshold
func grayToBraille(img *image.Gray, threshold uint8) *brailleBuf {
	r := img.Bounds()
	b := newBrailleBuf((r.Dx()+1)/2, (r.Dy()+3)/4)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.GrayAt(x, y).Y > threshold {
				b.setDot(x-r.Min.X, y-r.Min.Y)
			}
		}
	}
	return b
}
