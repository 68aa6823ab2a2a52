// Package calibrator implements online calibration of tri-axial sensors.
package calibrator

import (
	"fmt"

	trical "github.com/sfwa/TRICAL"
	"github.com/sfwa/TRICAL/estimate"
	"github.com/sfwa/TRICAL/kalman"
	"github.com/sfwa/TRICAL/kalman/ukf"
	"github.com/sfwa/TRICAL/model"
)

const (
	// DefaultNorm is the field norm of a freshly initialized Instance
	DefaultNorm = 1.0
	// DefaultNoise is the measurement noise of a freshly initialized Instance
	DefaultNoise = 1e-6
)

var _ trical.Calibrator = (*Instance)(nil)

// Instance is calibration filter instance
type Instance struct {
	// norm is expected field magnitude
	norm float64
	// noise is measurement noise standard deviation
	noise float64
	// count is the number of processed measurements
	count uint
	// store holds the calibration estimate
	store estimate.Store
	// filter refines the estimate
	filter kalman.Kalman
	// obs calibrates raw measurements
	obs *model.Norm
}

// New creates new initialized Instance and returns it.
// If c is nil the default UKF configuration is used.
// It returns error if the filter fails to be created.
func New(c *ukf.Config) (*Instance, error) {
	obs := model.NewNorm()

	f, err := ukf.New(obs, c)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter: %w", err)
	}

	i := &Instance{
		filter: f,
		obs:    obs,
	}
	i.Init()

	return i, nil
}

// Init resets the estimate, field norm, measurement noise and measurement count
// to their defaults. The filter configuration is kept.
func (i *Instance) Init() {
	if i.obs == nil {
		i.obs = model.NewNorm()
	}

	if i.filter == nil {
		f, err := ukf.New(i.obs, nil)
		if err != nil {
			panic(fmt.Sprintf("calibrator: default filter: %v", err))
		}
		i.filter = f
	}

	i.norm = DefaultNorm
	i.noise = DefaultNoise
	i.count = 0
	i.store.Reset()
}

// SetNorm sets the expected field magnitude and rescales the current estimate
// to it. Norms within machine epsilon of the current one are ignored.
// It panics if norm is not positive.
func (i *Instance) SetNorm(norm float64) {
	if !(norm > 0) {
		panic(fmt.Sprintf("calibrator: invalid field norm: %g", norm))
	}

	if i.store.Rescale(i.norm, norm) {
		i.norm = norm
	}
}

// Norm returns the expected field magnitude.
func (i *Instance) Norm() float64 {
	return i.norm
}

// SetNoise sets the measurement noise standard deviation.
// It panics if noise is not positive.
func (i *Instance) SetNoise(noise float64) {
	if !(noise > 0) {
		panic(fmt.Sprintf("calibrator: invalid measurement noise: %g", noise))
	}

	i.noise = noise
}

// Noise returns the measurement noise standard deviation.
func (i *Instance) Noise() float64 {
	return i.noise
}

// MeasurementCount returns the number of Update calls since Init.
func (i *Instance) MeasurementCount() uint {
	return i.count
}

// Update refines the calibration estimate with raw measurement.
// The measurement is counted even if the update fails.
// It returns error if the filter statistics are degenerate; the estimate is then left unchanged.
func (i *Instance) Update(raw [3]float64) error {
	i.count++

	return i.filter.Iterate(&i.store, raw, i.norm, i.noise)
}

// Estimate returns the bias estimate and the row-major scale error estimate.
func (i *Instance) Estimate() (bias [3]float64, scale [9]float64) {
	d := i.store.X.Scale()

	return i.store.X.Bias(), d.Dense()
}

// EstimateExt returns the estimate together with the variances of its elements.
func (i *Instance) EstimateExt() (bias [3]float64, scale [9]float64, biasVar [3]float64, scaleVar [9]float64) {
	bias, scale = i.Estimate()
	biasVar, scaleVar = i.store.P.Variances()

	return bias, scale, biasVar, scaleVar
}

// Snapshot returns a copy of the current estimate.
func (i *Instance) Snapshot() *estimate.Base {
	return estimate.NewBaseFromStore(&i.store)
}

// Calibrate returns raw measurement calibrated with the current estimate.
func (i *Instance) Calibrate(raw [3]float64) [3]float64 {
	return i.obs.Calibrate(&i.store.X, raw)
}
