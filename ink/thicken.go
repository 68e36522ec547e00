package ink

// DefaultStrokeWidth is the pen size forced onto every sample before
// clustering
const DefaultStrokeWidth = 10

// Thicken rebuilds every stroke with the same samples but a fixed size
// and full opacity. Thin or faint ink would otherwise produce boxes too
// small to cluster reliably. Identifiers are kept.
func Thicken(strokes []Stroke, width float32) []Stroke {
	if width <= 0 {
		width = DefaultStrokeWidth
	}

	out := make([]Stroke, 0, len(strokes))
	for _, s := range strokes {
		points := make([]Point, len(s.Points))
		for i, p := range s.Points {
			p.Size = width
			p.Opacity = 1
			points[i] = p
		}
		out = append(out, Stroke{ID: s.ID, Points: points})
	}
	return out
}
