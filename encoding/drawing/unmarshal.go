package drawing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/juruen/inkmath/ink"
)

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (d *Drawing) UnmarshalBinary(data []byte) error {
	r := newReader(data)
	if err := r.checkHeader(); err != nil {
		return err
	}
	d.Version = r.version

	var err error
	if d.Width, err = r.readFloat32(); err != nil {
		return err
	}
	if d.Height, err = r.readFloat32(); err != nil {
		return err
	}

	nbStrokes, err := r.readNumber()
	if err != nil {
		return err
	}
	// every stroke needs at least an id and a point count
	if int64(nbStrokes)*(idLen+4) > int64(r.Len()) {
		return fmt.Errorf("stroke count %d exceeds data", nbStrokes)
	}

	d.Strokes = make([]ink.Stroke, nbStrokes)
	for i := uint32(0); i < nbStrokes; i++ {
		s, err := r.readStroke()
		if err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
		d.Strokes[i] = s
	}

	return nil
}

type reader struct {
	*bytes.Reader
	version Version
}

func newReader(data []byte) *reader {
	return &reader{Reader: bytes.NewReader(data), version: V1}
}

func (r *reader) checkHeader() error {
	buf := make([]byte, HeaderLen)

	n, err := r.Read(buf)
	if err != nil {
		return err
	}

	if n != HeaderLen {
		return fmt.Errorf("wrong header size")
	}

	switch {
	case string(buf) == HeaderV1:
		r.version = V1
	case strings.HasPrefix(string(buf), "inkmath .strokes file"):
		return fmt.Errorf("unsupported version: %q", strings.TrimSpace(string(buf)))
	default:
		return fmt.Errorf("unknown header")
	}

	return nil
}

func (r *reader) readNumber() (uint32, error) {
	var nb uint32
	if err := binary.Read(r, binary.LittleEndian, &nb); err != nil {
		return 0, fmt.Errorf("wrong number read")
	}
	return nb, nil
}

func (r *reader) readFloat32() (float32, error) {
	var f float32
	if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
		return 0, fmt.Errorf("wrong float read")
	}
	return f, nil
}

func (r *reader) readStroke() (ink.Stroke, error) {
	var s ink.Stroke

	var id [idLen]byte
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return s, fmt.Errorf("failed to read stroke id")
	}
	s.ID = uuid.UUID(id)

	nbPoints, err := r.readNumber()
	if err != nil {
		return s, err
	}
	if int64(nbPoints)*pointLen > int64(r.Len()) {
		return s, fmt.Errorf("point count %d exceeds data", nbPoints)
	}

	if nbPoints == 0 {
		return s, nil
	}

	s.Points = make([]ink.Point, nbPoints)
	for i := uint32(0); i < nbPoints; i++ {
		p, err := r.readPoint()
		if err != nil {
			return s, err
		}
		s.Points[i] = p
	}

	return s, nil
}

func (r *reader) readPoint() (ink.Point, error) {
	var raw [8]float32
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return ink.Point{}, fmt.Errorf("failed to read point")
	}

	return ink.Point{
		X:          raw[0],
		Y:          raw[1],
		TimeOffset: raw[2],
		Size:       raw[3],
		Opacity:    raw[4],
		Force:      raw[5],
		Azimuth:    raw[6],
		Altitude:   raw[7],
	}, nil
}
