package pcd

import (
	"github.com/pkg/errors"
	"math"

	"github.com/seqsense/pcgol/mat"
)

// Bounds returns the axis aligned bounding box of the area.
func (a *Area) Bounds() (mat.Vec3, mat.Vec3, error) {
	if a.Len() == 0 {
		return mat.Vec3{}, mat.Vec3{}, errors.New("no point")
	}
	min := mat.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max := mat.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, v := range a.Positions {
		for i := range v {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return min, max, nil
}
