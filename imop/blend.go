// Package imop implements the Porter-Duff composition operations and a few
// separable blend modes used to draw a skeleton layer over its source frame.
// The image/draw core package implements only the source-over-destination and source.
package imop

import (
	"fmt"

	"github.com/esimov/motionskel/utils"
)

const (
	Darken   = "darken"
	Lighten  = "lighten"
	Multiply = "multiply"
	Screen   = "screen"
)

var blendModes = []string{Darken, Lighten, Multiply, Screen}

// Blend holds the currently active blend mode.
type Blend struct {
	OpType string
}

// NewBlend initializes a new Blend.
func NewBlend() *Blend {
	return &Blend{}
}

// Set activates one of the supported blend modes.
func (o *Blend) Set(opType string) error {
	if !utils.Contains(blendModes, opType) {
		return fmt.Errorf("unsupported blend mode: %v", opType)
	}
	o.OpType = opType
	return nil
}

// Get returns the currently active blend mode.
func (o *Blend) Get() string {
	return o.OpType
}

// apply mixes the backdrop channel cb with the source channel cs.
// Both values are normalized to [0, 1].
func (o *Blend) apply(cb, cs float64) float64 {
	switch o.OpType {
	case Darken:
		return utils.Min(cb, cs)
	case Lighten:
		return utils.Max(cb, cs)
	case Multiply:
		return cb * cs
	case Screen:
		return 1 - (1-cb)*(1-cs)
	}
	return cs
}
