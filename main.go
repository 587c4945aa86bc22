// Command pcdclick evaluates interactive point cloud segmentation by
// simulating clicks on every object of a labeled dataset.
//
//	pcdclick index -s dataset/test
//	pcdclick eval -s dataset/test -m model.yaml -o results
package main

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newLogger returns the process logger.
var newLogger = func(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	if err := buildRootCmd(afero.NewOsFs()).Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRootCmd(fs afero.Fs) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pcdclick",
		Short: "Click simulation and IoU evaluation for point cloud segmentation",
		// SilenceUsage prevents printing usage on every error.
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		buildEvalCmd(fs),
		buildIndexCmd(fs),
	)
	return rootCmd
}
