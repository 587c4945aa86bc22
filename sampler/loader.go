package sampler

import (
	"path/filepath"

	lru "github.com/hashicorp/golang-lru"
	"github.com/seqsense/pcgol/pc/storage"
	"github.com/seqsense/pcgol/pc/storage/kdtree"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/seqsense/pcdclick/dataset"
	"github.com/seqsense/pcdclick/pcd"
)

// DefaultLoadedAreas is the default number of areas kept in memory.
const DefaultLoadedAreas = 4

// LoadedArea is a point cloud together with its radius search index.
type LoadedArea struct {
	*pcd.Area
	Index storage.Search
}

// AreaLoader reads areas of a dataset on demand. Point indice of the loaded
// areas match the indice stored in dataset.State.
type AreaLoader struct {
	fs         afero.Fs
	root       string
	downsample int
	cache      *lru.Cache
	logger     *zap.Logger
}

// NewAreaLoader returns a loader keeping up to size areas in memory.
func NewAreaLoader(fs afero.Fs, root string, params dataset.Params, size int, logger *zap.Logger) (*AreaLoader, error) {
	if size < 1 {
		size = DefaultLoadedAreas
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &AreaLoader{
		fs:         fs,
		root:       root,
		downsample: params.Downsample,
		cache:      c,
		logger:     logger,
	}, nil
}

// Get returns the area at path relative to the dataset root.
func (l *AreaLoader) Get(rel string) (*LoadedArea, error) {
	if v, ok := l.cache.Get(rel); ok {
		return v.(*LoadedArea), nil
	}
	a, err := dataset.LoadArea(l.fs, filepath.Join(l.root, rel), l.downsample)
	if err != nil {
		return nil, err
	}
	la := &LoadedArea{
		Area:  a,
		Index: kdtree.New(a.Positions),
	}
	l.logger.Debug("Loaded area",
		zap.String("path", rel),
		zap.Int("points", a.Len()),
	)
	l.cache.Add(rel, la)
	return la, nil
}
