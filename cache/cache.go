// Package cache persists the sampling index of a dataset between runs.
package cache

import (
	"fmt"
	"path/filepath"
	"strconv"

	spooky "github.com/dgryski/go-spooky"
	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/seqsense/pcdclick/dataset"
)

// BuildFunc computes the sampling state from scratch.
type BuildFunc func() (*dataset.State, error)

// Cache stores one file per dataset and parameter set.
// Files are never checked against the source point clouds; use force to
// refresh after the dataset changed.
type Cache struct {
	Fs afero.Fs
	// Dir holding the cache files. Empty means the dataset root.
	Dir    string
	Logger *zap.Logger
}

// Key returns the cache file name of the dataset and parameters.
func Key(root string, params dataset.Params) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return fmt.Sprintf("sampling_%016x_ppo%d_ca%s_ds%d.v%d.cache",
		spooky.Hash64([]byte(filepath.Clean(root))),
		params.PointsPerObject,
		strconv.FormatFloat(float64(params.ClickRadius), 'g', -1, 32),
		params.Downsample,
		formatVersion,
	)
}

// Path returns the location of the cache file.
func (c *Cache) Path(root string, params dataset.Params) string {
	dir := c.Dir
	if dir == "" {
		dir = root
	}
	return filepath.Join(dir, Key(root, params))
}

// Load returns the cached state, building and storing it on a miss, on a
// corrupt file, or when force is set.
func (c *Cache) Load(root string, params dataset.Params, force bool, build BuildFunc) (*dataset.State, error) {
	logger := c.logger()
	path := c.Path(root, params)

	if !force {
		s, err := c.read(path)
		switch {
		case err == nil:
			logger.Info("Loaded sampling cache",
				zap.String("path", path),
				zap.Int("areas", s.NumAreas()),
				zap.Int("points", s.Len()),
			)
			return s, nil
		case errors.Is(err, errMiss):
			logger.Info("Sampling cache not found", zap.String("path", path))
		default:
			logger.Warn("Ignoring unreadable sampling cache",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}

	s, err := build()
	if err != nil {
		return nil, err
	}
	if err := c.write(path, s); err != nil {
		logger.Warn("Failed to store sampling cache",
			zap.String("path", path),
			zap.Error(err),
		)
	}
	return s, nil
}

var errMiss = errors.New("cache miss")

func (c *Cache) read(path string) (*dataset.State, error) {
	b, err := afero.ReadFile(c.Fs, path)
	if err != nil {
		if ok, _ := afero.Exists(c.Fs, path); !ok {
			return nil, errMiss
		}
		return nil, errors.Wrap(err, "reading cache")
	}
	return Decode(b)
}

// write stores the state through a temporary file in the same directory so
// an interrupted run never leaves a truncated cache behind.
func (c *Cache) write(path string, s *dataset.State) error {
	b, err := Encode(s)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := c.Fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating cache directory")
	}
	f, err := afero.TempFile(c.Fs, dir, ".sampling-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temporary cache file")
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		c.Fs.Remove(tmp)
		return errors.Wrap(err, "writing cache")
	}
	if err := f.Close(); err != nil {
		c.Fs.Remove(tmp)
		return errors.Wrap(err, "writing cache")
	}
	if err := c.Fs.Rename(tmp, path); err != nil {
		c.Fs.Remove(tmp)
		return errors.Wrap(err, "renaming cache")
	}
	c.logger().Info("Stored sampling cache",
		zap.String("path", path),
		zap.String("size", humanize.Bytes(uint64(len(b)))),
	)
	return nil
}

func (c *Cache) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
