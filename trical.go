// Package trical defines the interfaces of an online tri-axial sensor calibration filter.
package trical

import (
	"github.com/sfwa/TRICAL/estimate"
	"gonum.org/v1/gonum/mat"
)

// Observer maps calibration state and raw sensor readings to calibrated readings
type Observer interface {
	// Calibrate returns the raw measurement corrected by calibration state x
	Calibrate(x *estimate.State, raw [3]float64) [3]float64
	// Observe returns the field magnitude predicted for raw measurement and state x
	Observe(x *estimate.State, raw [3]float64) float64
}

// Calibrator estimates sensor calibration from a stream of raw measurements
type Calibrator interface {
	// Update updates the calibration estimate with raw measurement
	Update(raw [3]float64) error
	// Calibrate calibrates raw measurement using the current estimate
	Calibrate(raw [3]float64) [3]float64
	// Estimate returns the bias and the row-major scale error estimate
	Estimate() (bias [3]float64, scale [9]float64)
}

// Estimate is calibration filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is measurement noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset() error
}
