// Package eval runs a segmentation model over every simulated click of a
// dataset and reports the mean IoU.
package eval

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/seqsense/pcdclick/batch"
	"github.com/seqsense/pcdclick/model"
	"github.com/seqsense/pcdclick/render"
	"github.com/seqsense/pcdclick/sampler"
)

const progressLineLen = 50

type BatchSource interface {
	Assemble(n int) (*batch.Batch, error)
}

type Renderer interface {
	Render(*render.View) error
}

type Loop struct {
	Source   BatchSource
	Model    model.Segmenter
	Renderer Renderer

	BatchSize int
	// MaxImages is the number of leading samples rendered.
	MaxImages int
	// MaxSamples stops the run early. Zero means until exhausted.
	MaxSamples int
	VoxelSize  float32
	Verbose    bool

	OutputDir string
	Fs        afero.Fs
	// Out receives progress and the summary.
	Out    io.Writer
	Logger *zap.Logger
}

// Run evaluates samples until the source is exhausted, appends the results
// to the results file and returns the overall mean IoU.
func (l *Loop) Run() (float64, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run", uuid.New().String()))
	out := l.Out
	if out == nil {
		out = io.Discard
	}
	size := l.BatchSize
	if size < 1 {
		size = 1
	}
	if err := l.Fs.MkdirAll(l.OutputDir, 0755); err != nil {
		return 0, errors.Wrap(err, "creating output directory")
	}

	acc := NewAccumulator()
	var i int
	done := false
	for nb := 0; !done; nb++ {
		b, err := l.Source.Assemble(size)
		if errors.Is(err, sampler.ErrExhausted) {
			break
		}
		if err != nil {
			return 0, err
		}
		if l.Verbose {
			fmt.Fprintf(out, "\nBatch %d\n", nb)
		}
		for j := 0; j < b.Size(); j++ {
			if l.MaxSamples > 0 && i >= l.MaxSamples {
				done = true
				break
			}
			if err := l.evaluate(b, j, i, acc, out, logger); err != nil {
				return 0, err
			}
			i++
		}
		if l.MaxSamples > 0 && i >= l.MaxSamples {
			done = true
		}
	}
	if !l.Verbose && i > 0 {
		fmt.Fprintln(out)
	}

	if l.Verbose {
		fmt.Fprintf(out, "Mean IoU (total): %g\n", acc.Mean())
		for _, c := range acc.Classes() {
			fmt.Fprintf(out, "Mean IoU (%s): %g\n", c, acc.ClassMean(c))
		}
	}
	logger.Info("Evaluation finished",
		zap.Int("samples", acc.Count()),
		zap.Float64("mean_iou", acc.Mean()),
	)
	if err := AppendResults(l.Fs, l.OutputDir, acc); err != nil {
		return 0, err
	}
	return acc.Mean(), nil
}

func (l *Loop) evaluate(b *batch.Batch, j, i int, acc *Accumulator, out io.Writer, logger *zap.Logger) error {
	s := b.Samples[j]
	if !l.Verbose {
		if i%progressLineLen == 0 && i != 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, ".")
	}

	coords, feats, _ := b.Valid(j)
	pred, err := l.Model.Predict(feats, coords, l.VoxelSize)
	if err != nil {
		return errors.Wrapf(err, "predicting sample %d", i)
	}
	if len(pred.Labels) != s.Len() {
		return errors.Errorf("model returned %d labels for %d points", len(pred.Labels), s.Len())
	}
	iou := model.IoU(pred.Labels, s.Labels)
	acc.Add(s.Class, iou)

	logger.Debug("Evaluated sample",
		zap.Int("index", i),
		zap.String("area", s.Area),
		zap.Int("object", s.Object),
		zap.Int("point", s.Point),
		zap.String("class", s.Class),
		zap.Float64("iou", iou),
	)
	if l.Verbose {
		if s.Class != "" {
			fmt.Fprintf(out, "class: %s\n", s.Class)
		}
		fmt.Fprintf(out, "iou: %g\n", iou)
	}

	if i < l.MaxImages && l.Renderer != nil {
		err := l.Renderer.Render(&render.View{
			Index:  i,
			IoU:    iou,
			Class:  s.Class,
			Coords: s.Coords,
			Truth:  s.Labels,
			Pred:   pred.Labels,
		})
		if err != nil {
			return err
		}
	}

	if l.Verbose {
		if s.Class != "" {
			fmt.Fprintf(out, "Mean iou so far (%s): %g\n", s.Class, acc.ClassMean(s.Class))
		}
		fmt.Fprintf(out, "Mean iou so far (total): %g\n", acc.Mean())
	}
	return nil
}
