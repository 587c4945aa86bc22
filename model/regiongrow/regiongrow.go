// Package regiongrow is a geometric baseline segmenter. It grows the region
// connected to the positive click through a voxel grid, leaving out the
// dominant surface (floor or wall) the object stands on.
package regiongrow

import (
	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
	"github.com/seqsense/pcgol/pc/sac"
	vgs "github.com/seqsense/pcgol/pc/segmentation/voxelgrid"
	"go.uber.org/zap"
	gmat "gonum.org/v1/gonum/mat"

	"github.com/seqsense/pcdclick/model"
	"github.com/seqsense/pcdclick/sampler"
)

const (
	DefaultDistance         = 0.08
	DefaultRange            = 5.0
	DefaultSACIterations    = 20
	DefaultSurfacePointsMin = 50
)

type Params struct {
	// Distance is the voxel size of the region growing. Zero uses the voxel
	// size passed to Predict.
	Distance float32 `yaml:"distance"`
	// Range is the edge length of the searched cube around the click.
	Range            float32 `yaml:"range"`
	SACIterations    int     `yaml:"sac_iterations"`
	SurfacePointsMin int     `yaml:"surface_points_min"`
}

func DefaultParams() Params {
	return Params{
		Distance:         DefaultDistance,
		Range:            DefaultRange,
		SACIterations:    DefaultSACIterations,
		SurfacePointsMin: DefaultSurfacePointsMin,
	}
}

type Segmenter struct {
	params Params
	logger *zap.Logger
}

var _ model.Segmenter = (*Segmenter)(nil)

func New(params Params, logger *zap.Logger) (*Segmenter, error) {
	if params.Distance < 0 {
		return nil, errors.Errorf("distance must not be negative, got %g", params.Distance)
	}
	if !(params.Range > 0) {
		return nil, errors.Errorf("range must be positive, got %g", params.Range)
	}
	if params.SACIterations < 1 {
		return nil, errors.Errorf("sac iterations must be positive, got %d", params.SACIterations)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmenter{params: params, logger: logger}, nil
}

func (s *Segmenter) Predict(feats, coords *gmat.Dense, voxelSize float32) (*model.Prediction, error) {
	n, c := coords.Dims()
	if c != 3 {
		return nil, errors.Errorf("expected 3 coordinate columns, got %d", c)
	}
	if fn, fc := feats.Dims(); fn != n || fc < sampler.NumFeatures {
		return nil, errors.Errorf("features %dx%d do not match %d points", fn, fc, n)
	}

	res := s.params.Distance
	if res == 0 {
		res = voxelSize
	}
	if !(res > 0) {
		return nil, errors.Errorf("voxel size must be positive, got %g", res)
	}

	points := make(pc.Vec3Slice, n)
	var positive []int
	for i := 0; i < n; i++ {
		points[i] = mat.Vec3{
			float32(coords.At(i, 0)),
			float32(coords.At(i, 1)),
			float32(coords.At(i, 2)),
		}
		if feats.At(i, sampler.FeatPositive) > 0.5 {
			positive = append(positive, i)
		}
	}

	logits := gmat.NewDense(max(n, 1), 2, nil)
	for i := 0; i < n; i++ {
		logits.Set(i, 0, 1)
	}
	if len(positive) > 0 {
		seed := points[nearestToCentroid(points, positive)]
		for _, i := range s.segment(points, seed, res) {
			logits.Set(i, 0, 0)
			logits.Set(i, 1, 1)
		}
	}

	labels := model.LabelsFromLogits(logits)[:n]
	return &model.Prediction{Labels: labels, Logits: logits}, nil
}

func (s *Segmenter) segment(points pc.Vec3Slice, p mat.Vec3, res float32) []int {
	w := int(s.params.Range / res)
	if w < 1 {
		w = 1
	}
	half := float32(w) * res / 2
	v := vgs.New(res, [3]int{w, w, w}, p.Sub(mat.Vec3{half, half, half}))

	for i, q := range points {
		if a, ok := v.Addr(q); ok {
			v.AddByAddr(a, i)
		}
	}
	vIndice := v.Storage().Indice()
	raIn := pc.NewIndiceVec3RandomAccessor(points, vIndice)

	// Exclude the dominant surface unless the click is on it.
	exclude := make(map[int]bool)
	sacSurface := sac.New(
		sac.NewRandomSampler(raIn.Len()),
		sac.NewVoxelGridSurfaceModel(v.Storage(), raIn),
	)
	if raIn.Len() >= 3 && sacSurface.Compute(s.params.SACIterations) {
		if coeff := sacSurface.Coefficients(); coeff.Evaluate() > s.params.SurfacePointsMin {
			if !coeff.IsIn(p, res) {
				for _, i := range coeff.Inliers(res) {
					exclude[vIndice[i]] = true
				}
			}
		}
	}
	s.logger.Debug("Region growing",
		zap.Int("points", len(vIndice)),
		zap.Int("surface", len(exclude)),
	)

	indice := append([]int(nil), vIndice...)
	v.Reset()
	for _, i := range indice {
		if !exclude[i] {
			v.Add(points[i], i)
		}
	}
	return v.Segment(p)
}

func nearestToCentroid(points pc.Vec3Slice, indice []int) int {
	var c mat.Vec3
	for _, i := range indice {
		c = c.Add(points[i])
	}
	c = c.Mul(1 / float32(len(indice)))

	best := indice[0]
	dMin := points[best].Sub(c).NormSq()
	for _, i := range indice[1:] {
		if d := points[i].Sub(c).NormSq(); d < dMin {
			best, dMin = i, d
		}
	}
	return best
}
