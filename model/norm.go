// Package model provides the measurement model of the calibration filter.
package model

import (
	"math"

	"github.com/sfwa/TRICAL/estimate"
)

// Norm is the attitude independent measurement model: a raw reading z is
// calibrated as (I + D)*(z - b), where b is bias and D is the symmetric
// scale error, and observed through the magnitude of the calibrated reading.
type Norm struct{}

// NewNorm creates new Norm model and returns it
func NewNorm() *Norm {
	return &Norm{}
}

// Calibrate returns raw corrected by the bias and scale error in x.
func (n *Norm) Calibrate(x *estimate.State, raw [3]float64) [3]float64 {
	b := x.Bias()
	d := x.Scale()

	v := [3]float64{raw[0] - b[0], raw[1] - b[1], raw[2] - b[2]}

	return d.MulVecPlusIdentity(v)
}

// Observe returns the magnitude of raw calibrated by x.
func (n *Norm) Observe(x *estimate.State, raw [3]float64) float64 {
	c := n.Calibrate(x, raw)

	return math.Sqrt(c[0]*c[0] + c[1]*c[1] + c[2]*c[2])
}
