package eval

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gonum.org/v1/gonum/stat"
)

// ResultsFile is the name of the file results are appended to.
const ResultsFile = "results.txt"

// Accumulator collects IoU scores overall and per class.
type Accumulator struct {
	total   []float64
	classes map[string][]float64
	order   []string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{classes: make(map[string][]float64)}
}

// Add records a score. An empty class only counts towards the total.
func (a *Accumulator) Add(class string, iou float64) {
	a.total = append(a.total, iou)
	if class == "" {
		return
	}
	if _, ok := a.classes[class]; !ok {
		a.order = append(a.order, class)
	}
	a.classes[class] = append(a.classes[class], iou)
}

func (a *Accumulator) Count() int {
	return len(a.total)
}

// Mean returns the mean of all scores, or 0 if there is none.
func (a *Accumulator) Mean() float64 {
	return mean(a.total)
}

// ClassMean returns the mean score of class, or 0 if it has none.
func (a *Accumulator) ClassMean(class string) float64 {
	return mean(a.classes[class])
}

// Classes returns class names in the order they were first added.
func (a *Accumulator) Classes() []string {
	return append([]string(nil), a.order...)
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// AppendResults appends the total mean and then every class mean to the
// results file in dir.
func AppendResults(fs afero.Fs, dir string, acc *Accumulator) error {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	path := filepath.Join(dir, ResultsFile)
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	if _, err := fmt.Fprintf(f, "total,%.4f\n", acc.Mean()); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	for _, c := range acc.order {
		if _, err := fmt.Fprintf(f, "%s,%.4f\n", c, acc.ClassMean(c)); err != nil {
			f.Close()
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	return f.Close()
}
