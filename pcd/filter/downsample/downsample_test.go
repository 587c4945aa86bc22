package downsample

import (
	"reflect"
	"testing"

	"github.com/seqsense/pcdclick/pcd"
	"github.com/seqsense/pcgol/pc"
)

func TestDownsample(t *testing.T) {
	a := &pcd.Area{
		Positions: make(pc.Vec3Slice, 7),
		Colors:    make([][3]float32, 7),
		Groups:    []uint32{0, 1, 2, 3, 4, 5, 6},
	}

	testCases := map[string]struct {
		n        int
		expected []uint32
	}{
		"Disabled": {0, []uint32{0, 1, 2, 3, 4, 5, 6}},
		"One":      {1, []uint32{0, 1, 2, 3, 4, 5, 6}},
		"Three":    {3, []uint32{0, 3, 6}},
		"Large":    {10, []uint32{0}},
	}

	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			out, err := New(tt.n).Filter(a)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(tt.expected, out.Groups) {
				t.Errorf("Expected groups: %v, got: %v", tt.expected, out.Groups)
			}
			if out.Len() != len(tt.expected) {
				t.Errorf("Expected %d points, got %d", len(tt.expected), out.Len())
			}
		})
	}
}
