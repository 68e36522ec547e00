// Package annotations renders recognition results as PDF reports: the
// ink, one box per digit cluster and the label chosen for it.
package annotations

import (
	"fmt"
	"io"

	"github.com/unidoc/unipdf/v3/annotator"
	"github.com/unidoc/unipdf/v3/contentstream"
	"github.com/unidoc/unipdf/v3/contentstream/draw"
	"github.com/unidoc/unipdf/v3/creator"
	pdf "github.com/unidoc/unipdf/v3/model"

	"github.com/juruen/inkmath/ink"
	"github.com/juruen/inkmath/log"
	"github.com/juruen/inkmath/recognizer"
)

const (
	margin     = 36
	footerSize = 14
	labelSize  = 10
)

var reportPageSize = creator.PageSize{595, 842}

// Page is one drawing and the pass run over it
type Page struct {
	// Width and Height are the canvas size, zero means the ink bounds
	Width   float64
	Height  float64
	Strokes []ink.Stroke
	Answer  recognizer.Answer
}

type ReportOptions struct {
	Title          string
	AddPageNumbers bool
	// InkOnly skips cluster boxes and labels
	InkOnly bool
}

type ReportGenerator struct {
	outputFilePath string
	options        ReportOptions
}

func CreateReportGenerator(outputFilePath string, options ReportOptions) *ReportGenerator {
	return &ReportGenerator{outputFilePath: outputFilePath, options: options}
}

// Generate writes the report to the output file
func (g *ReportGenerator) Generate(pages ...Page) error {
	c, err := g.build(pages)
	if err != nil {
		return err
	}
	return c.WriteToFile(g.outputFilePath)
}

// Render writes the report to w
func (g *ReportGenerator) Render(w io.Writer, pages ...Page) error {
	c, err := g.build(pages)
	if err != nil {
		return err
	}
	return c.Write(w)
}

// transform maps canvas coordinates into the page area under the title
type transform struct {
	originX, originY float64
	ratio            float64
	pageHeight       float64
}

func (t transform) point(x, y float64) (float64, float64) {
	return t.originX + x*t.ratio, t.pageHeight - (t.originY + y*t.ratio)
}

func newTransform(c *creator.Creator, p Page) transform {
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 {
		var b ink.Rect
		for _, s := range p.Strokes {
			b = b.Union(s.Bounds())
		}
		w, h = b.MaxX(), b.MaxY()
	}
	availW := c.Width() - 2*margin
	availH := c.Height() - 3*margin - 2*footerSize
	ratio := 1.0
	if w > 0 && h > 0 {
		ratio = min(availW/w, availH/h)
	}
	return transform{originX: margin, originY: 2 * margin, ratio: ratio, pageHeight: c.Height()}
}

func (g *ReportGenerator) build(pages []Page) (*creator.Creator, error) {
	c := creator.New()
	c.SetPageSize(reportPageSize)

	if g.options.AddPageNumbers {
		c.DrawFooter(func(block *creator.Block, args creator.FooterFunctionArgs) {
			p := c.NewParagraph(fmt.Sprintf("%d/%d", args.PageNum, args.TotalPages))
			p.SetFontSize(8)
			p.SetPos(block.Width()-40, block.Height()-20)
			_ = block.Draw(p)
		})
	}

	for i, p := range pages {
		page := c.NewPage()
		t := newTransform(c, p)

		if g.options.Title != "" {
			title := c.NewParagraph(g.options.Title)
			title.SetFontSize(footerSize)
			title.SetPos(margin, margin)
			if err := c.Draw(title); err != nil {
				return nil, err
			}
		}

		if err := page.AppendContentStream(string(strokeOps(p.Strokes, t))); err != nil {
			return nil, err
		}

		if !g.options.InkOnly {
			if err := g.addClusters(c, page, p.Answer, t); err != nil {
				return nil, err
			}
		}

		footer := c.NewParagraph(answerText(p.Answer))
		footer.SetFontSize(footerSize)
		footer.SetPos(margin, c.Height()-margin-2*footerSize)
		if err := c.Draw(footer); err != nil {
			return nil, err
		}
		log.Trace.Printf("report: page %d, %d strokes, %d clusters", i+1, len(p.Strokes), len(p.Answer.Results))
	}
	return c, nil
}

func strokeOps(strokes []ink.Stroke, t transform) []byte {
	cc := contentstream.NewContentCreator()
	for _, s := range strokes {
		if len(s.Points) == 0 {
			continue
		}
		path := draw.NewPath()
		for _, pt := range s.Points {
			x, y := t.point(float64(pt.X), float64(pt.Y))
			path = path.AppendPoint(draw.NewPoint(x, y))
		}
		width := float64(s.Points[0].Size) * t.ratio
		if width < 0.5 {
			width = 0.5
		}
		cc.Add_q()
		cc.Add_w(width)
		cc.Add_j("1")
		cc.Add_J("1")
		cc.Add_RG(0, 0, 0)
		draw.DrawPathWithCreator(path, cc)
		cc.Add_S()
		cc.Add_Q()
	}
	return cc.Operations().Bytes()
}

func (g *ReportGenerator) addClusters(c *creator.Creator, page *pdf.PdfPage, a recognizer.Answer, t transform) error {
	for _, r := range a.Results {
		b := r.Cluster.Bounds
		if b.Empty() {
			continue
		}
		x0, y1 := t.point(b.X, b.Y)
		x1, y0 := t.point(b.MaxX(), b.MaxY())

		color := pdf.NewPdfColorDeviceRGB(0.0, 0.6, 0.0)
		label := fmt.Sprintf("%d", r.Label)
		if !r.OK() {
			color = pdf.NewPdfColorDeviceRGB(0.8, 0.0, 0.0)
			label = "?"
		}

		ann, err := annotator.CreateRectangleAnnotation(annotator.RectangleAnnotationDef{
			X:             x0,
			Y:             y0,
			Width:         x1 - x0,
			Height:        y1 - y0,
			BorderEnabled: true,
			BorderWidth:   1,
			BorderColor:   color,
			Opacity:       0.8,
		})
		if err != nil {
			return err
		}
		page.AddAnnotation(ann)

		p := c.NewParagraph(label)
		p.SetFontSize(labelSize)
		p.SetPos(x0, t.pageHeight-y1-labelSize-2)
		if err := c.Draw(p); err != nil {
			return err
		}
	}
	return nil
}

func answerText(a recognizer.Answer) string {
	if a.OK {
		return fmt.Sprintf("answer: %d", a.Value)
	}
	if a.Err != nil {
		return fmt.Sprintf("no answer: %v", a.Err)
	}
	return "no answer"
}
