package render

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
	"github.com/spf13/afero"

	"github.com/seqsense/pcdclick/pcd"
)

func TestClassify(t *testing.T) {
	truth := []uint8{1, 1, 0, 0}
	pred := []uint8{1, 0, 1, 0}
	expected := []Category{TruePositive, FalseNegative, FalsePositive, TrueNegative}
	if c := Classify(truth, pred); !reflect.DeepEqual(expected, c) {
		t.Errorf("Expected %v, got %v", expected, c)
	}
	if c := Classify([]uint8{1}, nil); c[0] != FalseNegative {
		t.Errorf("Expected FN for missing prediction, got %v", c[0])
	}
}

func testView(index int) *View {
	v := &View{Index: index, IoU: 0.5, Class: "chair"}
	for i := 0; i < 40; i++ {
		v.Coords = append(v.Coords, mat.Vec3{float32(i) * 0.02, float32(i%3) * 0.1, float32(i%5) * 0.1})
		v.Truth = append(v.Truth, uint8(i%2))
		v.Pred = append(v.Pred, uint8((i/2)%2))
	}
	return v
}

func TestWriter_Render(t *testing.T) {
	testCases := map[string]struct {
		interactive bool
		leaf        float32
	}{
		"Static":      {},
		"Interactive": {interactive: true},
		"Preview":     {leaf: 0.1},
	}
	for name, tt := range testCases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			w := &Writer{Fs: fs, Dir: "/out", Interactive: tt.interactive, PreviewLeaf: tt.leaf}
			v := testView(3)
			if err := w.Render(v); err != nil {
				t.Fatal(err)
			}

			for _, f := range []string{"sample_3_top.png", "sample_3_side.png", "sample_3.pcd"} {
				info, err := fs.Stat("/out/" + f)
				if err != nil {
					t.Errorf("Expected %s: %v", f, err)
					continue
				}
				if info.Size() == 0 {
					t.Errorf("Expected %s not to be empty", f)
				}
			}
			png, err := afero.ReadFile(fs, "/out/sample_3_top.png")
			if err != nil {
				t.Fatal(err)
			}
			if len(png) < 8 || string(png[1:4]) != "PNG" {
				t.Error("Expected PNG header")
			}

			ok, err := afero.Exists(fs, "/out/sample_3.html")
			if err != nil {
				t.Fatal(err)
			}
			if ok != tt.interactive {
				t.Errorf("Expected html %v, got %v", tt.interactive, ok)
			}

			a, err := pcd.Load(fs, "/out/sample_3.pcd")
			if err != nil {
				t.Fatal(err)
			}
			cats := Classify(v.Truth, v.Pred)
			if a.Len() != len(cats) {
				t.Fatalf("Expected %d points, got %d", len(cats), a.Len())
			}
			for i, c := range cats {
				if Category(a.Groups[i]) != c {
					t.Errorf("Expected category %v at %d, got %v", c, i, Category(a.Groups[i]))
				}
			}
		})
	}
}

func TestWriter_RenderMismatch(t *testing.T) {
	w := &Writer{Fs: afero.NewMemMapFs(), Dir: "/out"}
	v := &View{Coords: pc.Vec3Slice{{0, 0, 0}}}
	if err := w.Render(v); err == nil {
		t.Error("Expected error")
	}
}

func TestCategory_String(t *testing.T) {
	for c, s := range map[Category]string{
		TrueNegative:  "TN",
		FalsePositive: "FP",
		FalseNegative: "FN",
		TruePositive:  "TP",
		Category(9):   "unknown",
	} {
		if got := fmt.Sprint(c); got != s {
			t.Errorf("Expected %s, got %s", s, got)
		}
	}
}

func TestWriter_Preview(t *testing.T) {
	v := testView(0)
	for i := range v.Coords {
		v.Coords[i] = v.Coords[i].Sub(mat.Vec3{1, 1, 1})
	}
	a := categoryArea(v.Coords, Classify(v.Truth, v.Pred))

	w := &Writer{}
	if p, err := w.preview(a); err != nil || p != a {
		t.Errorf("Expected all points without leaf size, got %v", err)
	}

	w.PreviewLeaf = 0.2
	p, err := w.preview(a)
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() == 0 || p.Len() >= a.Len() {
		t.Fatalf("Expected 1 to %d points, got %d", a.Len()-1, p.Len())
	}
	min, max, err := a.Bounds()
	if err != nil {
		t.Fatal(err)
	}
	const eps = 1e-5
	for i := range p.Positions {
		if c := Category(p.Groups[i]); c > TruePositive {
			t.Errorf("Unexpected category %d at %d", c, i)
		}
		for k := 0; k < 3; k++ {
			if p.Positions[i][k] < min[k]-eps || p.Positions[i][k] > max[k]+eps {
				t.Errorf("Point %d out of bounds: %v", i, p.Positions[i])
			}
		}
	}

	if _, err := w.preview(&pcd.Area{}); err != nil {
		t.Errorf("Expected empty area to pass, got %v", err)
	}
}
