// Package sampler draws simulated clicks from a sampling state without
// replacement.
package sampler

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/pc"
	"go.uber.org/zap"

	"github.com/seqsense/pcdclick/dataset"
)

// Feature channels of a sample.
const (
	FeatR = iota
	FeatG
	FeatB
	FeatPositive
	FeatNegative

	NumFeatures
)

// ErrExhausted is returned once every candidate point has been drawn.
var ErrExhausted = errors.New("all candidate points have been drawn")

// S3DISClasses are the semantic class names of the S3DIS dataset, indexed
// by class id.
var S3DISClasses = []string{
	"ceiling", "floor", "wall", "beam", "column", "window", "door",
	"table", "chair", "sofa", "bookcase", "board", "clutter",
}

// Sample is one simulated click on a whole area.
type Sample struct {
	Area string
	// Class of the clicked object. Empty if unknown.
	Class  string
	Object int
	Group  uint32
	// Point is the clicked point index.
	Point  int
	Coords pc.Vec3Slice
	Feats  [][NumFeatures]float32
	// Labels is 1 where the point belongs to the clicked object.
	Labels []uint8
}

// Len returns the number of points.
func (s *Sample) Len() int {
	return len(s.Coords)
}

type Options struct {
	ClickRadius float32
	// ClassNames maps per-point class ids to names.
	ClassNames []string
	Rand       *rand.Rand
	Logger     *zap.Logger
}

// Sampler removes a random candidate point from the state on every draw.
type Sampler struct {
	state      *dataset.State
	areas      *AreaLoader
	radius     float32
	classNames []string
	rand       *rand.Rand
	logger     *zap.Logger
}

// New returns a sampler consuming state. The state is modified by DrawOne.
func New(state *dataset.State, areas *AreaLoader, opts Options) *Sampler {
	s := &Sampler{
		state:      state,
		areas:      areas,
		radius:     opts.ClickRadius,
		classNames: opts.ClassNames,
		rand:       opts.Rand,
		logger:     opts.Logger,
	}
	if s.radius <= 0 {
		s.radius = dataset.DefaultClickRadius
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Remaining returns the number of candidate points not drawn yet.
func (s *Sampler) Remaining() int {
	return s.state.Len()
}

// DrawOne picks a random area, then a random object of it, then a random
// remaining point of the object, and builds the click sample.
// It returns ErrExhausted when no point is left.
func (s *Sampler) DrawOne() (*Sample, error) {
	st := s.state
	if st.Empty() {
		return nil, ErrExhausted
	}
	ai := s.rand.Intn(st.NumAreas())
	oi := s.rand.Intn(st.NumObjects(ai))
	pi := s.rand.Intn(st.NumPoints(ai, oi))

	area := st.Areas[ai]
	obj := area.Objects[oi]
	idx := st.Point(ai, oi, pi)

	la, err := s.areas.Get(area.Path)
	if err != nil {
		return nil, err
	}
	if idx >= la.Len() {
		return nil, errors.Errorf("%s: candidate point %d out of range (%d points)", area.Path, idx, la.Len())
	}

	sample := s.build(la, idx, obj.Group)
	sample.Area = area.Path
	sample.Object = obj.Index
	sample.Class = s.className(la, idx, area.Class)

	s.logger.Debug("Simulated click",
		zap.String("area", area.Path),
		zap.Int("object", obj.Index),
		zap.Int("point", idx),
	)

	st.RemovePoint(ai, oi, pi)
	if st.ObjectEmpty(ai, oi) {
		st.RemoveObject(ai, oi)
		if st.AreaEmpty(ai) {
			st.RemoveArea(ai)
		}
	}
	return sample, nil
}

func (s *Sampler) build(la *LoadedArea, idx int, group uint32) *Sample {
	n := la.Len()
	sample := &Sample{
		Group:  group,
		Point:  idx,
		Coords: make(pc.Vec3Slice, n),
		Feats:  make([][NumFeatures]float32, n),
		Labels: make([]uint8, n),
	}
	copy(sample.Coords, la.Positions)
	for i := 0; i < n; i++ {
		c := la.Colors[i]
		sample.Feats[i][FeatR] = c[0]
		sample.Feats[i][FeatG] = c[1]
		sample.Feats[i][FeatB] = c[2]
		if la.Groups[i] == group {
			sample.Labels[i] = 1
		}
	}
	for _, n := range la.Index.Range(la.Positions[idx], s.radius) {
		sample.Feats[n.ID][FeatPositive] = 1
	}
	return sample
}

func (s *Sampler) className(la *LoadedArea, idx int, fallback string) string {
	if la.Classes == nil {
		return fallback
	}
	id := int(la.Classes[idx])
	if id < len(s.classNames) {
		return s.classNames[id]
	}
	return strconv.Itoa(id)
}
