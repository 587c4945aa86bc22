package dataset

import (
	"math/rand"
	"slices"
)

// State is the mutable sampling hierarchy area -> object -> candidate point.
// An area is present only while it has objects and an object only while it
// has points. Points are removed, never added.
type State struct {
	Areas []*Area
}

// Area holds the remaining objects of one point cloud file.
type Area struct {
	// Path relative to the dataset root.
	Path string
	// Class is the dataset sub directory the file is in, if any.
	Class   string
	Objects []*Object
}

// Object holds the remaining candidate points of one run.
type Object struct {
	// Index of the run within the area.
	Index int
	Group uint32
	// Points are absolute point indice within the area.
	Points []int
}

func (s *State) Empty() bool {
	return len(s.Areas) == 0
}

func (s *State) NumAreas() int {
	return len(s.Areas)
}

func (s *State) NumObjects(a int) int {
	return len(s.Areas[a].Objects)
}

func (s *State) NumPoints(a, o int) int {
	return len(s.Areas[a].Objects[o].Points)
}

func (s *State) Point(a, o, p int) int {
	return s.Areas[a].Objects[o].Points[p]
}

// Len returns the number of remaining candidate points.
func (s *State) Len() int {
	var n int
	for _, a := range s.Areas {
		for _, o := range a.Objects {
			n += len(o.Points)
		}
	}
	return n
}

// TotalObjects returns the number of remaining objects over all areas.
func (s *State) TotalObjects() int {
	var n int
	for _, a := range s.Areas {
		n += len(a.Objects)
	}
	return n
}

func (s *State) RemovePoint(a, o, p int) {
	obj := s.Areas[a].Objects[o]
	obj.Points = slices.Delete(obj.Points, p, p+1)
}

func (s *State) ObjectEmpty(a, o int) bool {
	return len(s.Areas[a].Objects[o].Points) == 0
}

func (s *State) RemoveObject(a, o int) {
	area := s.Areas[a]
	area.Objects = slices.Delete(area.Objects, o, o+1)
}

func (s *State) AreaEmpty(a int) bool {
	return len(s.Areas[a].Objects) == 0
}

func (s *State) RemoveArea(a int) {
	s.Areas = slices.Delete(s.Areas, a, a+1)
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	out := &State{Areas: make([]*Area, len(s.Areas))}
	for i, a := range s.Areas {
		ac := &Area{
			Path:    a.Path,
			Class:   a.Class,
			Objects: make([]*Object, len(a.Objects)),
		}
		for j, o := range a.Objects {
			ac.Objects[j] = &Object{
				Index:  o.Index,
				Group:  o.Group,
				Points: slices.Clone(o.Points),
			}
		}
		out.Areas[i] = ac
	}
	return out
}

// LimitToOneObject keeps a single randomly chosen object in every area.
func (s *State) LimitToOneObject(rng *rand.Rand) {
	for _, a := range s.Areas {
		if len(a.Objects) > 1 {
			keep := a.Objects[rng.Intn(len(a.Objects))]
			a.Objects = []*Object{keep}
		}
	}
}
