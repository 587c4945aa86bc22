package filter

import (
	"github.com/seqsense/pcdclick/pcd"
)

type Filter interface {
	Filter(*pcd.Area) (*pcd.Area, error)
}

// Chain applies filters in order. Nil filters are skipped.
func Chain(a *pcd.Area, fs ...Filter) (*pcd.Area, error) {
	for _, f := range fs {
		if f == nil {
			continue
		}
		var err error
		if a, err = f.Filter(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}
