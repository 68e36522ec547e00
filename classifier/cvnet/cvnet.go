//go:build gocv

package cvnet

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/juruen/inkmath/classifier"
	"github.com/juruen/inkmath/log"
)

func init() {
	classifier.Register("cvnet", Load)
}

// Net wraps a loaded network. OpenCV nets keep per-call state, so Load
// hands out a serialized classifier.
type Net struct {
	net gocv.Net
}

// Load reads a network from a model file in any format OpenCV
// understands
func Load(location string) (classifier.Classifier, error) {
	net := gocv.ReadNet(location, "")
	if net.Empty() {
		return nil, errors.Wrapf(classifier.ErrInit, "can't read network %s", location)
	}
	log.Info.Printf("loaded OpenCV network %s", location)
	return classifier.Serialize(&Net{net: net}), nil
}

func (n *Net) Classify(ctx context.Context, img *image.Gray) (classifier.Prediction, error) {
	if err := classifier.CheckInput(img); err != nil {
		return classifier.Prediction{}, err
	}

	mat, err := gocv.NewMatFromBytes(classifier.InputSize, classifier.InputSize, gocv.MatTypeCV8UC1, classifier.Pixels(img))
	if err != nil {
		return classifier.Prediction{}, errors.Wrapf(classifier.ErrClassification, "input mat: %v", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(classifier.InputSize, classifier.InputSize), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	n.net.SetInput(blob, "")
	out := n.net.Forward("")
	defer out.Close()

	if out.Empty() || out.Total() == 0 {
		return classifier.Prediction{}, errors.Wrap(classifier.ErrClassification, "network produced no output")
	}

	scores := make([]float64, out.Total())
	for i := range scores {
		scores[i] = float64(out.GetFloatAt(0, i))
	}
	return classifier.FromScores(scores)
}

func (n *Net) Close() error {
	return n.net.Close()
}
