package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/seqsense/pcdclick/pcd"
	"github.com/seqsense/pcdclick/pcd/filter"
	"github.com/seqsense/pcdclick/pcd/filter/downsample"
)

const fileExt = ".pcd"

// Files lists the point cloud files under root, relative to root, in
// lexical order.
func Files(fs afero.Fs, root string) ([]string, error) {
	info, err := fs.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "dataset path")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("dataset path %s is not a directory", root)
	}

	var files []string
	err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), fileExt) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing dataset")
	}
	return files, nil
}

// AreaClass returns the first directory of a root relative path, or an
// empty string for files directly under root.
func AreaClass(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

// LoadArea reads a point cloud file and applies the downsampling used by
// the index. Point indice in State refer to the returned area.
func LoadArea(fs afero.Fs, path string, n int) (*pcd.Area, error) {
	a, err := pcd.Load(fs, path)
	if err != nil {
		return nil, err
	}
	return filter.Chain(a, downsample.New(n))
}

// Build computes the sampling state of the dataset under root.
// Any unreadable file aborts the build.
func Build(fs afero.Fs, root string, params Params, logger *zap.Logger) (*State, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	files, err := Files(fs, root)
	if err != nil {
		return nil, err
	}

	s := &State{}
	for _, rel := range files {
		logger.Info("Processing area", zap.String("path", rel))
		a, err := LoadArea(fs, filepath.Join(root, rel), params.Downsample)
		if err != nil {
			return nil, err
		}
		if area := BuildArea(rel, a.Groups, params.PointsPerObject); area != nil {
			s.Areas = append(s.Areas, area)
		}
	}
	logger.Info("Built sampling index",
		zap.Int("areas", s.NumAreas()),
		zap.Int("objects", s.TotalObjects()),
		zap.Int("points", s.Len()),
	)
	return s, nil
}

// BuildArea selects the candidate points of every object of an area.
// It returns nil if no object has a candidate.
func BuildArea(rel string, groups []uint32, k int) *Area {
	area := &Area{Path: rel, Class: AreaClass(rel)}
	for i, r := range Runs(groups) {
		points := Candidates(r.Offset, r.Len, k)
		if len(points) == 0 {
			continue
		}
		area.Objects = append(area.Objects, &Object{
			Index:  i,
			Group:  r.Group,
			Points: points,
		})
	}
	if len(area.Objects) == 0 {
		return nil
	}
	return area
}
