// Package model defines the segmentation model used by evaluation.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Segmenter predicts the object selected by the click masks of a sample.
type Segmenter interface {
	// Predict takes n x 5 features (R, G, B, positive, negative) and n x 3
	// coordinates of one sample.
	Predict(feats, coords *mat.Dense, voxelSize float32) (*Prediction, error)
}

type Prediction struct {
	// Labels is 1 for points predicted to be in the object.
	Labels []uint8
	// Logits is n x 2, background and foreground.
	Logits *mat.Dense
}

// IoU returns the foreground intersection over union. An empty union scores
// 1 since nothing was missed.
func IoU(pred, truth []uint8) float64 {
	var inter, union int
	for i := range truth {
		var p uint8
		if i < len(pred) {
			p = pred[i]
		}
		t := truth[i]
		if p != 0 && t != 0 {
			inter++
		}
		if p != 0 || t != 0 {
			union++
		}
	}
	for i := len(truth); i < len(pred); i++ {
		if pred[i] != 0 {
			union++
		}
	}
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

// LabelsFromLogits returns 1 where the foreground logit is larger.
func LabelsFromLogits(logits *mat.Dense) []uint8 {
	n, _ := logits.Dims()
	labels := make([]uint8, n)
	for i := 0; i < n; i++ {
		if logits.At(i, 1) > logits.At(i, 0) {
			labels[i] = 1
		}
	}
	return labels
}
