// Package pcd loads and stores labeled room point clouds.
package pcd

import (
	"github.com/seqsense/pcgol/pc"
)

// Field names read from and written to PCD files.
const (
	FieldGroup = "group"
	FieldLabel = "label"
	FieldClass = "class"
	FieldRGB   = "rgb"
)

// Area is one room point cloud.
// Groups holds the object id of each point.
// Classes is nil when the source file has no class field.
type Area struct {
	Positions pc.Vec3Slice
	Colors    [][3]float32
	Groups    []uint32
	Classes   []uint32
}

func (a *Area) Len() int {
	return len(a.Positions)
}

// Subset returns a new area made of the points at the given indice.
func (a *Area) Subset(indice []int) *Area {
	out := &Area{
		Positions: make(pc.Vec3Slice, len(indice)),
		Colors:    make([][3]float32, len(indice)),
		Groups:    make([]uint32, len(indice)),
	}
	if a.Classes != nil {
		out.Classes = make([]uint32, len(indice))
	}
	for j, i := range indice {
		out.Positions[j] = a.Positions[i]
		out.Colors[j] = a.Colors[i]
		out.Groups[j] = a.Groups[i]
		if a.Classes != nil {
			out.Classes[j] = a.Classes[i]
		}
	}
	return out
}

func packRGB(c [3]float32) uint32 {
	var v uint32
	for _, f := range c {
		if f < 0 {
			f = 0
		} else if f > 1 {
			f = 1
		}
		v = v<<8 | uint32(f*255+0.5)
	}
	return v
}

func unpackRGB(v uint32) [3]float32 {
	return [3]float32{
		float32((v>>16)&0xFF) / 255,
		float32((v>>8)&0xFF) / 255,
		float32(v&0xFF) / 255,
	}
}
