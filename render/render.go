package render

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
	"github.com/seqsense/pcgol/pc/filter/voxelgrid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/seqsense/pcdclick/pcd"
)

// View is one evaluated sample.
type View struct {
	Index  int
	IoU    float64
	Class  string
	Coords pc.Vec3Slice
	Truth  []uint8
	Pred   []uint8
}

// Writer stores the views of samples under Dir:
// sample_<i>_top.png, sample_<i>_side.png and sample_<i>.pcd, plus
// sample_<i>.html if Interactive is set.
type Writer struct {
	Fs  afero.Fs
	Dir string
	// Interactive adds a 3D HTML view.
	Interactive bool
	// PreviewLeaf is the voxel size used to thin out the PNG views.
	// Zero plots every point.
	PreviewLeaf float32
	Logger      *zap.Logger
}

func (w *Writer) Render(v *View) error {
	if len(v.Truth) != len(v.Coords) {
		return errors.Errorf("%d labels for %d points", len(v.Truth), len(v.Coords))
	}
	if err := w.Fs.MkdirAll(w.Dir, 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	a := categoryArea(v.Coords, Classify(v.Truth, v.Pred))
	base := filepath.Join(w.Dir, fmt.Sprintf("sample_%d", v.Index))
	if err := pcd.Save(w.Fs, base+".pcd", a); err != nil {
		return err
	}

	preview, err := w.preview(a)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("sample %d  IoU %.4f", v.Index, v.IoU)
	if v.Class != "" {
		title = fmt.Sprintf("sample %d  %s  IoU %.4f", v.Index, v.Class, v.IoU)
	}
	for _, p := range projections {
		if err := w.writePNG(base+"_"+p.name+".png", title, preview, p); err != nil {
			return err
		}
	}
	if w.Interactive {
		if err := w.writeHTML(base+".html", title, a); err != nil {
			return err
		}
	}
	w.logger().Debug("Rendered sample",
		zap.Int("index", v.Index),
		zap.Int("points", a.Len()),
		zap.Int("preview", preview.Len()),
	)
	return nil
}

// previewChunk bounds the voxel table of the preview filter.
// The chunked filter also handles negative coordinates.
var previewChunk = [3]int{64, 64, 64}

// preview thins out a to one point per PreviewLeaf voxel.
func (w *Writer) preview(a *pcd.Area) (*pcd.Area, error) {
	if w.PreviewLeaf <= 0 || a.Len() == 0 {
		return a, nil
	}
	l := w.PreviewLeaf
	vg := voxelgrid.New(mat.Vec3{l, l, l}, voxelgrid.WithChunkSize(previewChunk))
	pp, err := vg.Filter(pcd.ToPointCloud(a))
	if err != nil {
		return nil, errors.Wrap(err, "filtering preview")
	}
	return pcd.FromPointCloud(pp)
}

func (w *Writer) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

// categoryArea stores the category of each point as its group.
func categoryArea(coords pc.Vec3Slice, cats []Category) *pcd.Area {
	a := &pcd.Area{
		Positions: make(pc.Vec3Slice, len(coords)),
		Colors:    make([][3]float32, len(coords)),
		Groups:    make([]uint32, len(coords)),
	}
	copy(a.Positions, coords)
	for i, c := range cats {
		rgba := c.Color()
		a.Colors[i] = [3]float32{
			float32(rgba.R) / 255,
			float32(rgba.G) / 255,
			float32(rgba.B) / 255,
		}
		a.Groups[i] = uint32(c)
	}
	return a
}

type projection struct {
	name   string
	xLabel string
	yLabel string
	m      mat.Mat4
}

var projections = []projection{
	{name: "top", xLabel: "x", yLabel: "y", m: mat.Rotate(0, 0, 1, 0)},
	{name: "side", xLabel: "x", yLabel: "z", m: mat.Rotate(1, 0, 0, math.Pi/2)},
}
