package render

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"

	"github.com/seqsense/pcdclick/pcd"
)

func (w *Writer) writeHTML(path, title string, a *pcd.Area) error {
	data := make(map[Category][]opts.Chart3DData)
	for i, p := range a.Positions {
		c := Category(a.Groups[i])
		data[c] = append(data[c], opts.Chart3DData{
			Value: []interface{}{p[0], p[1], p[2]},
		})
	}

	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("points=%d", a.Len())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	for _, c := range []Category{TrueNegative, FalseNegative, FalsePositive, TruePositive} {
		d, ok := data[c]
		if !ok {
			continue
		}
		rgba := c.Color()
		scatter.AddSeries(c.String(), d, charts.WithItemStyleOpts(opts.ItemStyle{
			Color: fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B),
		}))
	}

	f, err := w.Fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := scatter.Render(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}
