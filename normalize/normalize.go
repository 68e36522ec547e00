// Package normalize turns a cluster of ink into the square grayscale
// image a digit classifier expects: white ink on a black background,
// centred, inset from the border and resampled to Size x Size.
package normalize

import (
	"image"
	"math"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/juruen/inkmath/ink"
	"github.com/juruen/inkmath/log"
)

// Size is the classifier input resolution
const Size = 28

// MaxRasterSide bounds the intermediate raster, anything larger is
// rejected rather than allocated
const MaxRasterSide = 4096

var (
	ErrGeometry        = errors.New("degenerate cluster bounds")
	ErrImageConversion = errors.New("image conversion failed")
)

// Normalizer converts clusters into classifier input.
// The zero value is not usable, use New.
type Normalizer struct {
	// Scale is the number of device pixels per canvas unit
	Scale float64
	// Interpolation is used for the final resampling
	Interpolation resize.InterpolationFunction
}

func New() *Normalizer {
	return &Normalizer{Scale: 1, Interpolation: resize.Bilinear}
}

// Normalize rasterizes the cluster's ink inside its union bounds and
// returns the Size x Size grayscale image. It always pads and resamples,
// even when the bounds are already Size x Size; use NormalizeImage for
// rasters that are already normalized.
func (n *Normalizer) Normalize(c ink.Cluster) (*image.Gray, error) {
	if len(c.Strokes) == 0 || c.Bounds.Empty() {
		return nil, errors.Wrapf(ErrGeometry, "bounds %s", c.Bounds)
	}

	mask, err := n.rasterize(c)
	if err != nil {
		return nil, err
	}

	return n.normalizeMask(mask)
}

// NormalizeImage runs the pipeline on an existing raster whose luminance
// is taken as ink coverage. An image that already has the classifier
// resolution is treated as normalized and only recolored.
func (n *Normalizer) NormalizeImage(img image.Image) (*image.Gray, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.Wrapf(ErrGeometry, "image bounds %v", b)
	}

	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	gray := image.NewGray(mask.Bounds())
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	copy(mask.Pix, gray.Pix)

	if b.Dx() == Size && b.Dy() == Size {
		return recolor(mask), nil
	}
	return n.normalizeMask(mask)
}

func (n *Normalizer) normalizeMask(mask *image.Alpha) (*image.Gray, error) {
	w, h := mask.Bounds().Dx(), mask.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil, errors.Wrapf(ErrGeometry, "raster %dx%d", w, h)
	}

	side := max(w, h)
	short := min(w, h)
	pad := side / 8

	var offX, offY int
	if w < h {
		offX = (side - short) / 2
	} else if h < w {
		offY = (side - short) / 2
	}

	total := side + 2*pad
	square := image.NewAlpha(image.Rect(0, 0, total, total))
	dst := image.Rect(pad+offX, pad+offY, pad+offX+w, pad+offY+h)
	draw.Draw(square, dst, mask, mask.Bounds().Min, draw.Src)

	gray := recolor(square)
	resized := resize.Resize(Size, Size, gray, n.Interpolation)
	out, err := toGray(resized)
	if err != nil {
		return nil, err
	}

	log.Trace.Printf("normalized %dx%d raster (square %d, inset %d)", w, h, side, pad)
	return out, nil
}

// recolor makes every non-transparent pixel solid white on an opaque
// black background
func recolor(mask *image.Alpha) *image.Gray {
	out := image.NewGray(mask.Bounds())
	for y := 0; y < mask.Bounds().Dy(); y++ {
		src := mask.Pix[y*mask.Stride : y*mask.Stride+mask.Bounds().Dx()]
		dst := out.Pix[y*out.Stride:]
		for x, a := range src {
			if a > 0 {
				dst[x] = 0xff
			}
		}
	}
	return out
}

func toGray(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, errors.Wrap(ErrImageConversion, "resampling returned no image")
	}
	b := img.Bounds()
	if b.Dx() != Size || b.Dy() != Size {
		return nil, errors.Wrapf(ErrImageConversion, "resampled to %dx%d", b.Dx(), b.Dy())
	}

	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) && g.Stride == Size {
		return g, nil
	}

	out := image.NewGray(image.Rect(0, 0, Size, Size))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out, nil
}

func rasterSize(b ink.Rect, scale float64) (int, int, error) {
	w := int(math.Ceil(b.Width * scale))
	h := int(math.Ceil(b.Height * scale))
	if w <= 0 || h <= 0 {
		return 0, 0, errors.Wrapf(ErrGeometry, "bounds %s at scale %.2f", b, scale)
	}
	if w > MaxRasterSide || h > MaxRasterSide {
		return 0, 0, errors.Wrapf(ErrImageConversion, "raster %dx%d exceeds %d", w, h, MaxRasterSide)
	}
	return w, h, nil
}
