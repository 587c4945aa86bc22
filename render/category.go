// Package render writes views of evaluated samples.
package render

import (
	"image/color"
)

// Category is the confusion class of a point.
type Category uint8

const (
	TrueNegative Category = iota
	FalsePositive
	FalseNegative
	TruePositive
)

var categoryNames = [...]string{"TN", "FP", "FN", "TP"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Color used for the category in all outputs.
func (c Category) Color() color.RGBA {
	switch c {
	case TruePositive:
		return color.RGBA{R: 0x20, G: 0xc0, B: 0x40, A: 0xff}
	case FalsePositive:
		return color.RGBA{R: 0xe0, G: 0x30, B: 0x30, A: 0xff}
	case FalseNegative:
		return color.RGBA{R: 0x30, G: 0x60, B: 0xe0, A: 0xff}
	default:
		return color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}
	}
}

// Classify returns the category of every point.
func Classify(truth, pred []uint8) []Category {
	out := make([]Category, len(truth))
	for i, t := range truth {
		var p uint8
		if i < len(pred) {
			p = pred[i]
		}
		switch {
		case t != 0 && p != 0:
			out[i] = TruePositive
		case t != 0:
			out[i] = FalseNegative
		case p != 0:
			out[i] = FalsePositive
		}
	}
	return out
}
