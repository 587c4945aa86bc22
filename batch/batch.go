// Package batch stacks samples into zero padded matrices.
package batch

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/seqsense/pcdclick/sampler"
)

// Source provides samples until it returns sampler.ErrExhausted.
type Source interface {
	DrawOne() (*sampler.Sample, error)
}

// Batch holds one matrix per sample, each MaxLen rows high.
// Rows at and beyond Lengths[i] are zero.
type Batch struct {
	// Coords are MaxLen x 3.
	Coords []*mat.Dense
	// Feats are MaxLen x sampler.NumFeatures.
	Feats []*mat.Dense
	// Labels are MaxLen x 1.
	Labels  []*mat.Dense
	Lengths []int
	Samples []*sampler.Sample
}

func (b *Batch) Size() int {
	return len(b.Samples)
}

func (b *Batch) MaxLen() int {
	var n int
	for _, l := range b.Lengths {
		if l > n {
			n = l
		}
	}
	return n
}

// Shape returns the batch dimensions of a tensor with the given channels.
func (b *Batch) Shape(channels int) [3]int {
	return [3]int{b.Size(), b.MaxLen(), channels}
}

// Valid returns views of the unpadded rows of sample i.
func (b *Batch) Valid(i int) (coords, feats, labels *mat.Dense) {
	n := b.Lengths[i]
	coords = b.Coords[i].Slice(0, n, 0, 3).(*mat.Dense)
	feats = b.Feats[i].Slice(0, n, 0, sampler.NumFeatures).(*mat.Dense)
	labels = b.Labels[i].Slice(0, n, 0, 1).(*mat.Dense)
	return
}

type Assembler struct {
	Source Source
}

// Assemble draws n samples and pads them to the longest one.
// If the source is exhausted before n samples are drawn, the partial batch
// is dropped and sampler.ErrExhausted is returned.
func (a *Assembler) Assemble(n int) (*Batch, error) {
	if n < 1 {
		return nil, errors.Errorf("batch size must be positive, got %d", n)
	}
	samples := make([]*sampler.Sample, 0, n)
	for len(samples) < n {
		s, err := a.Source.DrawOne()
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return FromSamples(samples)
}

// FromSamples builds a batch from samples.
func FromSamples(samples []*sampler.Sample) (*Batch, error) {
	b := &Batch{
		Coords:  make([]*mat.Dense, len(samples)),
		Feats:   make([]*mat.Dense, len(samples)),
		Labels:  make([]*mat.Dense, len(samples)),
		Lengths: make([]int, len(samples)),
		Samples: samples,
	}
	for i, s := range samples {
		b.Lengths[i] = s.Len()
	}
	rows := b.MaxLen()
	if rows == 0 {
		return nil, errors.New("batch has no points")
	}

	for i, s := range samples {
		coords := mat.NewDense(rows, 3, nil)
		feats := mat.NewDense(rows, sampler.NumFeatures, nil)
		labels := mat.NewDense(rows, 1, nil)
		for j := 0; j < s.Len(); j++ {
			p := s.Coords[j]
			coords.Set(j, 0, float64(p[0]))
			coords.Set(j, 1, float64(p[1]))
			coords.Set(j, 2, float64(p[2]))
			for c, v := range s.Feats[j] {
				feats.Set(j, c, float64(v))
			}
			labels.Set(j, 0, float64(s.Labels[j]))
		}
		b.Coords[i] = coords
		b.Feats[i] = feats
		b.Labels[i] = labels
	}
	return b, nil
}
