// Package dataset builds the click candidate index of a directory of room
// point clouds.
package dataset

import (
	"github.com/pkg/errors"
)

const (
	DefaultPointsPerObject = 5
	DefaultClickRadius     = 0.1
)

// Params are the sampling parameters. Every field is part of the cache key.
type Params struct {
	// PointsPerObject is the number of candidate clicks per object.
	PointsPerObject int `yaml:"points_per_object"`
	// ClickRadius is the distance around a click marked positive.
	ClickRadius float32 `yaml:"click_radius"`
	// Downsample keeps every k-th point of each area. 0 or 1 disables it.
	Downsample int `yaml:"downsample"`
}

func DefaultParams() Params {
	return Params{
		PointsPerObject: DefaultPointsPerObject,
		ClickRadius:     DefaultClickRadius,
	}
}

func (p Params) Validate() error {
	if p.PointsPerObject < 1 {
		return errors.Errorf("points per object must be positive, got %d", p.PointsPerObject)
	}
	if !(p.ClickRadius > 0) {
		return errors.Errorf("click radius must be positive, got %g", p.ClickRadius)
	}
	if p.Downsample < 0 {
		return errors.Errorf("downsample must not be negative, got %d", p.Downsample)
	}
	return nil
}
