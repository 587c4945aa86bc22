package main

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/seqsense/pcdclick/dataset"
	"github.com/seqsense/pcdclick/model"
	"github.com/seqsense/pcdclick/model/regiongrow"
	"github.com/seqsense/pcdclick/sampler"
)

const (
	defaultSrc       = "../dataset/S3DIS_converted_separated/test"
	defaultOutputDir = "../results"
	defaultMaxImages = 20
	defaultVoxelSize = 0.05
	defaultBatchSize = 1
)

type evalConfig struct {
	Src              string   `yaml:"src"`
	Model            string   `yaml:"model"`
	OutputDir        string   `yaml:"output_dir"`
	Show3D           bool     `yaml:"show_3d"`
	Downsample       int      `yaml:"downsample"`
	LimitToOneObject bool     `yaml:"limit_to_one_object"`
	MaxImages        int      `yaml:"max_imgs"`
	ClickArea        float32  `yaml:"click_area"`
	VoxelSize        float32  `yaml:"voxel_size"`
	PointsPerObject  int      `yaml:"points_per_object"`
	BatchSize        int      `yaml:"batch_size"`
	MaxSamples       int      `yaml:"max_samples"`
	Seed             int64    `yaml:"seed"`
	Force            bool     `yaml:"force"`
	CacheDir         string   `yaml:"cache_dir"`
	LoadedAreas      int      `yaml:"loaded_areas"`
	PreviewLeaf      float32  `yaml:"preview_leaf"`
	ClassNames       []string `yaml:"class_names"`
	Verbose          bool     `yaml:"verbose"`
}

func defaultEvalConfig() evalConfig {
	return evalConfig{
		Src:             defaultSrc,
		OutputDir:       defaultOutputDir,
		MaxImages:       defaultMaxImages,
		ClickArea:       dataset.DefaultClickRadius,
		VoxelSize:       defaultVoxelSize,
		PointsPerObject: dataset.DefaultPointsPerObject,
		BatchSize:       defaultBatchSize,
		LoadedAreas:     sampler.DefaultLoadedAreas,
		ClassNames:      append([]string(nil), sampler.S3DISClasses...),
	}
}

func (c *evalConfig) params() dataset.Params {
	return dataset.Params{
		PointsPerObject: c.PointsPerObject,
		ClickRadius:     c.ClickArea,
		Downsample:      c.Downsample,
	}
}

func (c *evalConfig) validate(fs afero.Fs, needModel bool) error {
	if c.Src == "" {
		return errors.New("dataset path is required")
	}
	if ok, err := afero.DirExists(fs, c.Src); err != nil || !ok {
		return errors.Errorf("dataset path %s does not exist", c.Src)
	}
	if needModel && c.Model == "" {
		return errors.New("model path is required")
	}
	if c.BatchSize < 1 {
		return errors.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.MaxImages < 0 || c.MaxSamples < 0 {
		return errors.New("image and sample limits must not be negative")
	}
	if !(c.VoxelSize > 0) {
		return errors.Errorf("voxel size must be positive, got %g", c.VoxelSize)
	}
	return c.params().Validate()
}

// decodeYAML reads a single YAML document into v, rejecting unknown keys.
func decodeYAML(fs afero.Fs, path string, v interface{}) error {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return errors.Wrapf(err, "parsing %s", path)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.Errorf("%s: expected a single YAML document", path)
	}
	return nil
}

const modelTypeRegionGrow = "regiongrow"

type modelFile struct {
	Type       string            `yaml:"type"`
	RegionGrow regiongrow.Params `yaml:",inline"`
}

// loadModel builds the segmenter described by a model file.
func loadModel(fs afero.Fs, path string, logger *zap.Logger) (model.Segmenter, error) {
	mf := modelFile{RegionGrow: regiongrow.DefaultParams()}
	if err := decodeYAML(fs, path, &mf); err != nil {
		return nil, errors.Wrap(err, "loading model")
	}
	switch mf.Type {
	case modelTypeRegionGrow:
		return regiongrow.New(mf.RegionGrow, logger)
	default:
		return nil, errors.Errorf("%s: unknown model type %q", path, mf.Type)
	}
}
