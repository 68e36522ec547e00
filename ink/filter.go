package ink

import "math"

// DefaultMinSizeDivisor sets the minimum stroke size relative to the
// smaller canvas dimension
const DefaultMinSizeDivisor = 20

// FilterSmall drops strokes whose larger bounds dimension is below
// min(canvasWidth, canvasHeight) / divisor. It is what a canvas does
// before handing strokes to the recognizer; accidental taps and specks
// never reach clustering.
func FilterSmall(strokes []Stroke, canvasWidth, canvasHeight, divisor float64) []Stroke {
	if divisor <= 0 {
		divisor = DefaultMinSizeDivisor
	}
	minSize := math.Min(canvasWidth, canvasHeight) / divisor

	out := make([]Stroke, 0, len(strokes))
	for _, s := range strokes {
		b := s.Bounds()
		if math.Max(b.Width, b.Height) < minSize {
			continue
		}
		out = append(out, s)
	}
	return out
}
