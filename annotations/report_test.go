package annotations

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pdf "github.com/unidoc/unipdf/v3/model"

	"github.com/juruen/inkmath/ink"
	"github.com/juruen/inkmath/recognizer"
)

func line(x0, y0, x1, y1 float32) ink.Stroke {
	return ink.NewStroke([]ink.Point{
		{X: x0, Y: y0, Size: 10, Opacity: 1},
		{X: x1, Y: y1, Size: 10, Opacity: 1},
	})
}

func samplePage() Page {
	one := line(10, 20, 10, 80)
	seven := line(100, 20, 150, 80)
	return Page{
		Width:   200,
		Height:  100,
		Strokes: []ink.Stroke{one, seven},
		Answer: recognizer.Answer{
			Value: 1,
			OK:    true,
			Results: []recognizer.DigitResult{
				{Index: 0, Cluster: ink.NewCluster([]ink.Stroke{one}), Label: 1},
				{Index: 1, Cluster: ink.NewCluster([]ink.Stroke{seven}), Err: errors.New("boom")},
			},
		},
	}
}

func TestRender(t *testing.T) {
	g := CreateReportGenerator("", ReportOptions{Title: "test", AddPageNumbers: true})

	var buf bytes.Buffer
	require.NoError(t, g.Render(&buf, samplePage(), Page{}))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	r, err := pdf.NewPdfReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	n, err := r.GetNumPages()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGenerate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.pdf")
	g := CreateReportGenerator(out, ReportOptions{InkOnly: true})
	require.NoError(t, g.Generate(samplePage()))
	assert.FileExists(t, out)
}

func TestTransformFitsPage(t *testing.T) {
	g := CreateReportGenerator("", ReportOptions{})
	c, err := g.build(nil)
	require.NoError(t, err)

	p := samplePage()
	tr := newTransform(c, p)
	x, y := tr.point(0, 0)
	assert.Equal(t, float64(margin), x)
	assert.Less(t, y, c.Height())

	x, y = tr.point(p.Width, p.Height)
	assert.LessOrEqual(t, x, c.Width()-margin+1e-6)
	assert.Greater(t, y, 0.0)
}

func TestAnswerText(t *testing.T) {
	assert.Equal(t, "answer: 42", answerText(recognizer.Answer{OK: true, Value: 42}))
	assert.Equal(t, "no answer", answerText(recognizer.Answer{}))
	assert.Contains(t, answerText(recognizer.Answer{Err: recognizer.ErrAssembly}), "no prediction")
}
