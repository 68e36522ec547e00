package drawing

import (
	"bytes"
	"encoding/binary"

	"github.com/juruen/inkmath/ink"
)

// MarshalBinary implements encoding.BinaryMarshaler
func (d *Drawing) MarshalBinary() (data []byte, err error) {
	w := new(writer)

	w.writeHeader()
	w.writeFloat32(d.Width)
	w.writeFloat32(d.Height)
	w.writeNumber(len(d.Strokes))

	for _, s := range d.Strokes {
		w.writeStroke(s)
	}

	return w.Bytes(), nil
}

type writer struct {
	b bytes.Buffer
}

func (w *writer) Bytes() []byte {
	return w.b.Bytes()
}

func (w *writer) writeHeader() {
	w.b.WriteString(HeaderV1)
}

func (w *writer) writeNumber(n int) {
	binary.Write(&w.b, binary.LittleEndian, uint32(n))
}

func (w *writer) writeFloat32(n float32) {
	binary.Write(&w.b, binary.LittleEndian, n)
}

func (w *writer) writeStroke(s ink.Stroke) {
	w.b.Write(s.ID[:])
	w.writeNumber(len(s.Points))
	for _, p := range s.Points {
		w.writePoint(p)
	}
}

func (w *writer) writePoint(p ink.Point) {
	w.writeFloat32(p.X)
	w.writeFloat32(p.Y)
	w.writeFloat32(p.TimeOffset)
	w.writeFloat32(p.Size)
	w.writeFloat32(p.Opacity)
	w.writeFloat32(p.Force)
	w.writeFloat32(p.Azimuth)
	w.writeFloat32(p.Altitude)
}
