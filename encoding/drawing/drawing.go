// Package drawing reads and writes canvas snapshots: the canvas size
// plus every stroke with its samples, little endian, after a fixed size
// text header.
package drawing

import (
	"os"

	"github.com/pkg/errors"

	"github.com/juruen/inkmath/ink"
)

type Version int

const (
	V1 Version = 1
)

const (
	HeaderV1  = "inkmath .strokes file, version=1           "
	HeaderLen = 43
)

const (
	idLen    = 16
	pointLen = 8 * 4
)

// Drawing is one canvas worth of ink
type Drawing struct {
	Version Version
	Width   float32
	Height  float32
	Strokes []ink.Stroke
}

// Load reads a drawing file
func Load(path string) (*Drawing, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := &Drawing{}
	if err := d.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrapf(err, "can't read drawing %s", path)
	}
	return d, nil
}

// Save writes a drawing file
func (d *Drawing) Save(path string) error {
	b, err := d.MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Filtered returns the strokes a canvas of this size would keep
func (d *Drawing) Filtered(divisor float64) []ink.Stroke {
	if d.Width <= 0 || d.Height <= 0 {
		return d.Strokes
	}
	return ink.FilterSmall(d.Strokes, float64(d.Width), float64(d.Height), divisor)
}
