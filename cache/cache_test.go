package cache

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/seqsense/pcdclick/dataset"
	"github.com/seqsense/pcdclick/pcd/pcdtest"
)

func testState() *dataset.State {
	return &dataset.State{
		Areas: []*dataset.Area{
			{
				Path:  "chair/room1.pcd",
				Class: "chair",
				Objects: []*dataset.Object{
					{Index: 0, Group: 1, Points: []int{1, 2, 3, 4, 5}},
					{Index: 2, Group: 7, Points: []int{30, 31}},
				},
			},
			{
				Path: "room2.pcd",
				Objects: []*dataset.Object{
					{Index: 1, Group: 3, Points: []int{12}},
				},
			},
		},
	}
}

func TestEncodeDecode(t *testing.T) {
	s := testState()
	b, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(b[:4]) != "PCSC" {
		t.Errorf("Expected magic PCSC, got %q", b[:4])
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("Decoded state differs (-want +got):\n%s", diff)
	}
}

func TestEncodeDecode_Large(t *testing.T) {
	// Repetitive content is compressed.
	s := &dataset.State{}
	for i := 0; i < 200; i++ {
		s.Areas = append(s.Areas, &dataset.Area{
			Path:    "area.pcd",
			Objects: []*dataset.Object{{Points: []int{1, 2, 3, 4, 5}}},
		})
	}
	b, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("Decoded state differs (-want +got):\n%s", diff)
	}
}

func TestDecode_Corrupt(t *testing.T) {
	valid, err := Encode(testState())
	if err != nil {
		t.Fatal(err)
	}
	encode := func(mod func(s *dataset.State)) []byte {
		s := testState()
		mod(s)
		b, err := Encode(s)
		if err != nil {
			t.Fatal(err)
		}
		return b
	}
	testCases := map[string][]byte{
		"Empty":     {},
		"BadMagic":  append([]byte("XXXX"), valid[4:]...),
		"Truncated": valid[:len(valid)-3],
		"Header":    valid[:headerSize],
		"EmptyArea": encode(func(s *dataset.State) {
			s.Areas[1].Objects = nil
		}),
		"EmptyObject": encode(func(s *dataset.State) {
			s.Areas[0].Objects[1].Points = nil
		}),
		"NegativePoint": encode(func(s *dataset.State) {
			s.Areas[0].Objects[0].Points[2] = -4
		}),
	}
	for name, b := range testCases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(b); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestKey(t *testing.T) {
	base := dataset.Params{PointsPerObject: 5, ClickRadius: 0.1}
	k := Key("/data", base)
	if !strings.HasPrefix(k, "sampling_") || !strings.HasSuffix(k, "_ppo5_ca0.1_ds0.v1.cache") {
		t.Errorf("Unexpected key %s", k)
	}
	if k != Key("/data/", base) {
		t.Error("Expected trailing separator to be ignored")
	}

	variants := map[string]string{
		"Root":            Key("/other", base),
		"PointsPerObject": Key("/data", dataset.Params{PointsPerObject: 4, ClickRadius: 0.1}),
		"ClickRadius":     Key("/data", dataset.Params{PointsPerObject: 5, ClickRadius: 0.2}),
		"Downsample":      Key("/data", dataset.Params{PointsPerObject: 5, ClickRadius: 0.1, Downsample: 2}),
	}
	for name, v := range variants {
		t.Run(name, func(t *testing.T) {
			if v == k {
				t.Errorf("Expected key to change, got %s", v)
			}
		})
	}
}

type countingBuild struct {
	n     int
	state *dataset.State
	err   error
}

func (b *countingBuild) build() (*dataset.State, error) {
	b.n++
	if b.err != nil {
		return nil, b.err
	}
	return b.state.Clone(), nil
}

func TestLoad(t *testing.T) {
	params := dataset.DefaultParams()

	t.Run("MissThenHit", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		c := &Cache{Fs: fs}
		b := &countingBuild{state: testState()}

		for i := 0; i < 2; i++ {
			s, err := c.Load("/data", params, false, b.build)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(testState(), s); diff != "" {
				t.Errorf("State differs (-want +got):\n%s", diff)
			}
		}
		if b.n != 1 {
			t.Errorf("Expected 1 build, got %d", b.n)
		}
		if ok, _ := afero.Exists(fs, filepath.Join("/data", Key("/data", params))); !ok {
			t.Error("Expected cache file in the dataset directory")
		}
	})

	t.Run("Force", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		c := &Cache{Fs: fs}
		b := &countingBuild{state: testState()}

		for i := 0; i < 2; i++ {
			if _, err := c.Load("/data", params, true, b.build); err != nil {
				t.Fatal(err)
			}
		}
		if b.n != 2 {
			t.Errorf("Expected 2 builds, got %d", b.n)
		}
	})

	t.Run("Corrupt", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		c := &Cache{Fs: fs, Dir: "/cache"}
		path := c.Path("/data", params)
		if err := afero.WriteFile(fs, path, []byte("garbage"), 0644); err != nil {
			t.Fatal(err)
		}
		b := &countingBuild{state: testState()}

		s, err := c.Load("/data", params, false, b.build)
		if err != nil {
			t.Fatal(err)
		}
		if b.n != 1 {
			t.Errorf("Expected rebuild, got %d builds", b.n)
		}
		if diff := cmp.Diff(testState(), s); diff != "" {
			t.Errorf("State differs (-want +got):\n%s", diff)
		}

		raw, err := afero.ReadFile(fs, path)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Decode(raw); err != nil {
			t.Errorf("Expected corrupt file to be replaced, got %v", err)
		}
	})

	t.Run("EmptyArea", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		c := &Cache{Fs: fs, Dir: "/cache"}
		stale := testState()
		stale.Areas[0].Objects = nil
		b, err := Encode(stale)
		if err != nil {
			t.Fatal(err)
		}
		if err := fs.MkdirAll("/cache", 0755); err != nil {
			t.Fatal(err)
		}
		if err := afero.WriteFile(fs, c.Path("/data", params), b, 0644); err != nil {
			t.Fatal(err)
		}
		build := &countingBuild{state: testState()}

		s, err := c.Load("/data", params, false, build.build)
		if err != nil {
			t.Fatal(err)
		}
		if build.n != 1 {
			t.Errorf("Expected rebuild, got %d builds", build.n)
		}
		for _, a := range s.Areas {
			if len(a.Objects) == 0 {
				t.Errorf("Expected no empty area, got %s", a.Path)
			}
		}
	})

	t.Run("BuildError", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		c := &Cache{Fs: fs, Dir: "/cache"}
		errIO := errors.New("io")
		b := &countingBuild{err: errIO}

		if _, err := c.Load("/data", params, false, b.build); !errors.Is(err, errIO) {
			t.Errorf("Expected build error, got %v", err)
		}
		if ok, _ := afero.DirExists(fs, "/cache"); ok {
			files, err := afero.ReadDir(fs, "/cache")
			if err != nil {
				t.Fatal(err)
			}
			if len(files) != 0 {
				t.Errorf("Expected nothing persisted, got %d files", len(files))
			}
		}
	})

	t.Run("NoTemporaryFiles", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		c := &Cache{Fs: fs, Dir: "/cache"}
		b := &countingBuild{state: testState()}
		if _, err := c.Load("/data", params, false, b.build); err != nil {
			t.Fatal(err)
		}
		files, err := afero.ReadDir(fs, "/cache")
		if err != nil {
			t.Fatal(err)
		}
		if len(files) != 1 || files[0].Name() != Key("/data", params) {
			t.Errorf("Expected only the cache file, got %v", files)
		}
	})
}

func TestLoad_BuiltFromDataset(t *testing.T) {
	fs := afero.NewMemMapFs()
	pcdtest.WriteRoom(t, fs, "/data/room1.pcd", 20, 30)
	params := dataset.DefaultParams()
	c := &Cache{Fs: fs}

	build := func() (*dataset.State, error) {
		return dataset.Build(fs, "/data", params, nil)
	}
	first, err := c.Load("/data", params, false, build)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Load("/data", params, false, func() (*dataset.State, error) {
		t.Fatal("Unexpected rebuild")
		return nil, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Cached state differs (-want +got):\n%s", diff)
	}

	files, err := dataset.Files(fs, "/data")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("Expected the cache file not to be indexed, got %v", files)
	}
}
