package server

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/juruen/inkmath/ink"
	"github.com/juruen/inkmath/recognizer"
)

// Stroke is the column layout used on the wire
type Stroke struct {
	ID   string    `json:"id,omitempty"`
	X    []float32 `json:"x"`
	Y    []float32 `json:"y"`
	P    []float32 `json:"p,omitempty"` // Pressure
	T    []float32 `json:"t,omitempty"` // Time offsets
	Size float32   `json:"size,omitempty"`
}

// InkInput is the body of the predict and session ink endpoints
type InkInput struct {
	Width   float32   `json:"width,omitempty"`
	Height  float32   `json:"height,omitempty"`
	Strokes []*Stroke `json:"strokes"`
	// Append adds the strokes to the session ink instead of replacing it
	Append bool `json:"append,omitempty"`
}

type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Digit struct {
	Index         int                `json:"index"`
	Bounds        Bounds             `json:"bounds"`
	Label         *int               `json:"label,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Error         string             `json:"error,omitempty"`
}

type Prediction struct {
	Value  *int    `json:"value,omitempty"`
	Digits string  `json:"digits"`
	Result []Digit `json:"clusters"`
	Error  string  `json:"error,omitempty"`
}

type SessionState struct {
	ID         string      `json:"id"`
	Generation uint64      `json:"generation"`
	Pending    bool        `json:"pending"`
	Answer     *Prediction `json:"answer,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func (s *Stroke) toInk() (ink.Stroke, error) {
	if len(s.X) != len(s.Y) {
		return ink.Stroke{}, fmt.Errorf("x has %d values, y has %d", len(s.X), len(s.Y))
	}
	if s.P != nil && len(s.P) != len(s.X) {
		return ink.Stroke{}, fmt.Errorf("p has %d values for %d points", len(s.P), len(s.X))
	}
	if s.T != nil && len(s.T) != len(s.X) {
		return ink.Stroke{}, fmt.Errorf("t has %d values for %d points", len(s.T), len(s.X))
	}

	points := make([]ink.Point, len(s.X))
	for i := range points {
		p := ink.Point{X: s.X[i], Y: s.Y[i], Size: s.Size, Opacity: 1}
		if s.P != nil {
			p.Force = s.P[i]
		}
		if s.T != nil {
			p.TimeOffset = s.T[i]
		}
		points[i] = p
	}

	stroke := ink.NewStroke(points)
	if s.ID != "" {
		id, err := uuid.Parse(s.ID)
		if err != nil {
			return ink.Stroke{}, fmt.Errorf("bad stroke id: %v", err)
		}
		stroke.ID = id
	}
	return stroke, nil
}

// Ink converts the input strokes and drops the ones too small for the
// canvas, when a canvas size is given
func (in *InkInput) Ink(divisor float64) ([]ink.Stroke, error) {
	strokes := make([]ink.Stroke, 0, len(in.Strokes))
	for i, s := range in.Strokes {
		if s == nil {
			return nil, fmt.Errorf("stroke %d is null", i)
		}
		st, err := s.toInk()
		if err != nil {
			return nil, fmt.Errorf("stroke %d: %v", i, err)
		}
		strokes = append(strokes, st)
	}
	if in.Width > 0 && in.Height > 0 {
		strokes = ink.FilterSmall(strokes, float64(in.Width), float64(in.Height), divisor)
	}
	return strokes, nil
}

func newPrediction(a recognizer.Answer) *Prediction {
	p := &Prediction{Digits: a.Digits, Result: make([]Digit, 0, len(a.Results))}
	if a.OK {
		v := a.Value
		p.Value = &v
	}
	if a.Err != nil {
		p.Error = a.Err.Error()
	}
	for _, r := range a.Results {
		b := r.Cluster.Bounds
		d := Digit{
			Index:  r.Index,
			Bounds: Bounds{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height},
		}
		if r.OK() {
			label := r.Label
			d.Label = &label
			d.Probabilities = make(map[string]float64, len(r.Probabilities))
			for k, v := range r.Probabilities {
				d.Probabilities[fmt.Sprint(k)] = v
			}
		} else {
			d.Error = r.Err.Error()
		}
		p.Result = append(p.Result, d)
	}
	return p
}
