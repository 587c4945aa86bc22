// Package pcdtest generates synthetic rooms for tests.
package pcdtest

import (
	"testing"

	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
	"github.com/spf13/afero"

	"github.com/seqsense/pcdclick/pcd"
)

// ObjectGap is the distance between neighboring objects of a Room.
const ObjectGap = 10

// Spacing is the distance between neighboring points of an object.
const Spacing = 0.01

// Room returns an area with one straight line of points per object.
// Object j has sizes[j] points along x starting at j*ObjectGap and group id
// j+1.
func Room(sizes ...int) *pcd.Area {
	a := &pcd.Area{}
	for j, n := range sizes {
		for i := 0; i < n; i++ {
			a.Positions = append(a.Positions, mat.Vec3{
				float32(j*ObjectGap) + float32(i)*Spacing, 0, 0,
			})
			a.Colors = append(a.Colors, [3]float32{1, 0.5, 0})
			a.Groups = append(a.Groups, uint32(j+1))
		}
	}
	if a.Positions == nil {
		a.Positions = pc.Vec3Slice{}
	}
	return a
}

// WriteRoom saves Room(sizes...) to path.
func WriteRoom(tb testing.TB, fs afero.Fs, path string, sizes ...int) *pcd.Area {
	tb.Helper()
	a := Room(sizes...)
	if err := pcd.Save(fs, path, a); err != nil {
		tb.Fatal(err)
	}
	return a
}

// WriteArea saves a to path.
func WriteArea(tb testing.TB, fs afero.Fs, path string, a *pcd.Area) {
	tb.Helper()
	if err := pcd.Save(fs, path, a); err != nil {
		tb.Fatal(err)
	}
}
