package render

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/seqsense/pcdclick/pcd"
)

const imageSize = 8 * vg.Inch

func (w *Writer) writePNG(path, title string, a *pcd.Area, p projection) error {
	pl := plot.New()
	pl.Title.Text = title + " (" + p.name + ")"
	pl.X.Label.Text = p.xLabel
	pl.Y.Label.Text = p.yLabel

	xys := make(map[Category]plotter.XYs)
	for i, q := range a.Positions {
		c := Category(a.Groups[i])
		r := p.m.TransformAffine(q)
		xys[c] = append(xys[c], plotter.XY{X: float64(r[0]), Y: float64(r[1])})
	}
	// True negatives first so that the object is drawn on top.
	for _, c := range []Category{TrueNegative, FalseNegative, FalsePositive, TruePositive} {
		pts, ok := xys[c]
		if !ok {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrap(err, "plotting")
		}
		s.GlyphStyle.Color = c.Color()
		s.GlyphStyle.Radius = vg.Points(1)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		pl.Add(s)
		pl.Legend.Add(c.String(), s)
	}

	wt, err := pl.WriterTo(imageSize, imageSize, "png")
	if err != nil {
		return errors.Wrap(err, "rendering")
	}
	f, err := w.Fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}
