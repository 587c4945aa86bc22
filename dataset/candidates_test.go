package dataset

import (
	"reflect"
	"testing"
)

func TestRuns(t *testing.T) {
	groups := []uint32{1, 1, 1, 2, 2, 1, 3}
	expected := []Run{
		{Offset: 0, Len: 3, Group: 1},
		{Offset: 3, Len: 2, Group: 2},
		{Offset: 5, Len: 1, Group: 1},
		{Offset: 6, Len: 1, Group: 3},
	}
	if runs := Runs(groups); !reflect.DeepEqual(expected, runs) {
		t.Errorf("Expected runs: %v, got: %v", expected, runs)
	}
	if runs := Runs(nil); runs != nil {
		t.Errorf("Expected no runs, got: %v", runs)
	}
}

func TestCandidates(t *testing.T) {
	testCases := map[string]struct {
		offset, length, k int
		expected          []int
	}{
		"Spread":     {0, 70, 5, []int{10, 20, 30, 40, 50}},
		"Offset":     {100, 14, 5, []int{102, 104, 106, 108, 110}},
		"Exact":      {0, 7, 5, []int{1, 2, 3, 4, 5}},
		"Short":      {10, 4, 5, []int{11, 12}},
		"Three":      {0, 3, 5, []int{1}},
		"TooShort":   {0, 2, 5, nil},
		"Single":     {5, 1, 5, nil},
		"OneClick":   {0, 9, 1, []int{3}},
		"NoneWanted": {0, 100, 0, nil},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			got := Candidates(tt.offset, tt.length, tt.k)
			if !reflect.DeepEqual(tt.expected, got) {
				t.Errorf("Expected candidates: %v, got: %v", tt.expected, got)
			}
		})
	}
}

func TestCandidates_Interior(t *testing.T) {
	for k := 1; k <= 12; k++ {
		for length := 0; length < 200; length++ {
			const offset = 17
			points := Candidates(offset, length, k)
			if len(points) > k {
				t.Fatalf("k=%d length=%d: %d candidates", k, length, len(points))
			}
			seen := make(map[int]bool)
			for _, p := range points {
				i := p - offset
				if i <= 0 || i >= length-1 {
					t.Fatalf("k=%d length=%d: candidate %d is on the run boundary", k, length, i)
				}
				if seen[p] {
					t.Fatalf("k=%d length=%d: duplicated candidate %d", k, length, p)
				}
				seen[p] = true
			}
			if length >= 3 && len(points) == 0 {
				t.Fatalf("k=%d length=%d: no candidate", k, length)
			}
		}
	}
}
