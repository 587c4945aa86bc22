package main

import (
	"fmt"
	"math/rand"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/seqsense/pcdclick/batch"
	"github.com/seqsense/pcdclick/cache"
	"github.com/seqsense/pcdclick/dataset"
	"github.com/seqsense/pcdclick/eval"
	"github.com/seqsense/pcdclick/render"
	"github.com/seqsense/pcdclick/sampler"
)

func addDatasetFlags(flags *pflag.FlagSet, cfg *evalConfig) {
	flags.StringVarP(&cfg.Src, "src", "s", cfg.Src, "Dataset directory")
	flags.IntVarP(&cfg.Downsample, "downsample", "d", cfg.Downsample, "Keep every k-th point (0: no downsampling)")
	flags.Float32VarP(&cfg.ClickArea, "click-area", "c", cfg.ClickArea, "Radius around a click marked positive")
	flags.IntVar(&cfg.PointsPerObject, "points-per-object", cfg.PointsPerObject, "Simulated clicks per object")
	flags.BoolVar(&cfg.Force, "force", cfg.Force, "Rebuild the sampling cache")
	flags.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "Sampling cache directory (default: dataset directory)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")
}

// applyConfigFile loads path over the defaults and then reapplies the flags
// set on the command line.
func applyConfigFile(fs afero.Fs, flags *pflag.FlagSet, path string, cfg *evalConfig) error {
	if path == "" {
		return nil
	}
	changed := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	file := defaultEvalConfig()
	if err := decodeYAML(fs, path, &file); err != nil {
		return err
	}
	*cfg = file
	for name, v := range changed {
		if err := flags.Set(name, v); err != nil {
			return errors.Wrapf(err, "flag %s", name)
		}
	}
	return nil
}

func setupLogger(verbose bool) *zap.Logger {
	logger, err := newLogger(verbose)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func loadState(fs afero.Fs, cfg *evalConfig, logger *zap.Logger) (*dataset.State, error) {
	c := &cache.Cache{Fs: fs, Dir: cfg.CacheDir, Logger: logger}
	params := cfg.params()
	return c.Load(cfg.Src, params, cfg.Force, func() (*dataset.State, error) {
		return dataset.Build(fs, cfg.Src, params, logger)
	})
}

func buildEvalCmd(fs afero.Fs) *cobra.Command {
	cfg := defaultEvalConfig()
	var configPath string

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a segmentation model on simulated clicks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfigFile(fs, cmd.Flags(), configPath, &cfg); err != nil {
				return err
			}
			if err := cfg.validate(fs, true); err != nil {
				return err
			}
			logger := setupLogger(cfg.Verbose)
			defer logger.Sync()

			iou, err := runEval(fs, &cfg, cmd, logger)
			if err != nil {
				logger.Error("Evaluation failed", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mean IoU: %.4f\n", iou)
			return nil
		},
	}

	flags := cmd.Flags()
	addDatasetFlags(flags, &cfg)
	flags.StringVarP(&cfg.Model, "model", "m", cfg.Model, "Model file (required)")
	flags.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Where to store results and rendered samples")
	flags.BoolVarP(&cfg.Show3D, "show-3d", "3", cfg.Show3D, "Also write interactive 3D views")
	flags.BoolVarP(&cfg.LimitToOneObject, "limit-to-one-object", "l", cfg.LimitToOneObject, "Keep one random object per area")
	flags.IntVar(&cfg.MaxImages, "max-imgs", cfg.MaxImages, "Number of rendered samples")
	flags.Float32Var(&cfg.VoxelSize, "voxel-size", cfg.VoxelSize, "Voxel size passed to the model")
	flags.IntVarP(&cfg.BatchSize, "batch-size", "b", cfg.BatchSize, "Samples per batch")
	flags.IntVar(&cfg.MaxSamples, "max-samples", cfg.MaxSamples, "Stop after this many samples (0: all)")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed (0: time based)")
	flags.StringVar(&configPath, "config", "", "YAML file with the same keys as the flags")
	return cmd
}

func runEval(fs afero.Fs, cfg *evalConfig, cmd *cobra.Command, logger *zap.Logger) (float64, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("Starting evaluation",
		zap.String("src", cfg.Src),
		zap.String("model", cfg.Model),
		zap.Int64("seed", seed),
	)
	rng := rand.New(rand.NewSource(seed))

	seg, err := loadModel(fs, cfg.Model, logger)
	if err != nil {
		return 0, err
	}
	state, err := loadState(fs, cfg, logger)
	if err != nil {
		return 0, err
	}
	if cfg.LimitToOneObject {
		state.LimitToOneObject(rng)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s elements in data loader\n", humanize.Comma(int64(state.Len())))

	loader, err := sampler.NewAreaLoader(fs, cfg.Src, cfg.params(), cfg.LoadedAreas, logger)
	if err != nil {
		return 0, err
	}
	smp := sampler.New(state, loader, sampler.Options{
		ClickRadius: cfg.ClickArea,
		ClassNames:  cfg.ClassNames,
		Rand:        rng,
		Logger:      logger,
	})

	loop := &eval.Loop{
		Source: &batch.Assembler{Source: smp},
		Model:  seg,
		Renderer: &render.Writer{
			Fs:          fs,
			Dir:         cfg.OutputDir,
			Interactive: cfg.Show3D,
			PreviewLeaf: cfg.PreviewLeaf,
			Logger:      logger,
		},
		BatchSize:  cfg.BatchSize,
		MaxImages:  cfg.MaxImages,
		MaxSamples: cfg.MaxSamples,
		VoxelSize:  cfg.VoxelSize,
		Verbose:    cfg.Verbose,
		OutputDir:  cfg.OutputDir,
		Fs:         fs,
		Out:        cmd.OutOrStdout(),
		Logger:     logger,
	}
	return loop.Run()
}

func buildIndexCmd(fs afero.Fs) *cobra.Command {
	cfg := defaultEvalConfig()
	var configPath string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the sampling cache of a dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfigFile(fs, cmd.Flags(), configPath, &cfg); err != nil {
				return err
			}
			if err := cfg.validate(fs, false); err != nil {
				return err
			}
			logger := setupLogger(cfg.Verbose)
			defer logger.Sync()

			state, err := loadState(fs, &cfg, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "areas: %s, objects: %s, points: %s\n",
				humanize.Comma(int64(state.NumAreas())),
				humanize.Comma(int64(state.TotalObjects())),
				humanize.Comma(int64(state.Len())),
			)
			return nil
		},
	}
	addDatasetFlags(cmd.Flags(), &cfg)
	cmd.Flags().StringVar(&configPath, "config", "", "YAML file with the same keys as the flags")
	return cmd
}
