// Package downsample keeps every k-th point of an area.
package downsample

import (
	"github.com/seqsense/pcdclick/pcd"
	"github.com/seqsense/pcdclick/pcd/filter"
)

type everyNth struct {
	n int
}

// New returns a filter keeping points 0, n, 2n, ...
// n <= 1 returns the input unchanged.
func New(n int) filter.Filter {
	return &everyNth{n: n}
}

func (f *everyNth) Filter(a *pcd.Area) (*pcd.Area, error) {
	if f.n <= 1 {
		return a, nil
	}
	indice := make([]int, 0, a.Len()/f.n+1)
	for i := 0; i < a.Len(); i += f.n {
		indice = append(indice, i)
	}
	return a.Subset(indice), nil
}
