package dataset

// Run is a maximal sequence of consecutive points sharing a group id.
type Run struct {
	Offset int
	Len    int
	Group  uint32
}

// Runs splits per-point group ids into runs.
func Runs(groups []uint32) []Run {
	var runs []Run
	for i, g := range groups {
		if n := len(runs); n > 0 && runs[n-1].Group == g {
			runs[n-1].Len++
			continue
		}
		runs = append(runs, Run{Offset: i, Len: 1, Group: g})
	}
	return runs
}

// Candidates selects k click points inside the run starting at offset.
// Points are spread by length/(k+2) and never include the first or the last
// point of the run. Runs too short to have k spread points use their
// interior points, and runs shorter than 3 have none.
func Candidates(offset, length, k int) []int {
	if length < 3 || k < 1 {
		return nil
	}
	step := length / (k + 2)
	if step == 0 {
		n := k
		if n > length-2 {
			n = length - 2
		}
		points := make([]int, n)
		for i := range points {
			points[i] = offset + i + 1
		}
		return points
	}
	points := make([]int, k)
	for i := range points {
		points[i] = offset + (i+1)*step
	}
	return points
}
