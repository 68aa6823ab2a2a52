package calibrator

import (
	"math"
	"testing"

	"github.com/sfwa/TRICAL/estimate"
	"github.com/sfwa/TRICAL/kalman/ukf"
	"github.com/sfwa/TRICAL/matrix"
	"github.com/sfwa/TRICAL/noise"
	"github.com/sfwa/TRICAL/sim"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestNew(t *testing.T) {
	assert := assert.New(t)

	i, err := New(nil)
	assert.NotNil(i)
	assert.NoError(err)

	i, err = New(&ukf.Config{Alpha: 2})
	assert.Nil(i)
	assert.Error(err)
}

func TestInit(t *testing.T) {
	assert := assert.New(t)

	var i Instance
	i.Init()

	assert.Equal(1.0, i.Norm())
	assert.Equal(1e-6, i.Noise())
	assert.Equal(uint(0), i.MeasurementCount())
	assert.Equal(estimate.State{}, i.store.X)
	for k := range i.store.P {
		if k%(estimate.StateDim+1) == 0 {
			assert.Equal(1e-2, i.store.P[k], "index %d", k)
			continue
		}
		assert.Equal(0.0, i.store.P[k], "index %d", k)
	}

	// Init restores defaults
	i.SetNorm(3)
	i.SetNoise(0.1)
	assert.NoError(i.Update([3]float64{1, 2, 3}))
	i.Init()
	assert.Equal(1.0, i.Norm())
	assert.Equal(1e-6, i.Noise())
	assert.Equal(uint(0), i.MeasurementCount())
	assert.Equal(estimate.State{}, i.store.X)
}

func TestSetNorm(t *testing.T) {
	assert := assert.New(t)

	i, err := New(nil)
	assert.NoError(err)

	i.store.X = estimate.State{0.1, -0.2, 0.3, 0.01, 0.02, 0.03, 0.04, 0.05, 0.06}
	x, p := i.store.X, i.store.P

	// a change within machine epsilon does nothing
	i.SetNorm(math.Nextafter(1, 2))
	assert.Equal(1.0, i.Norm())
	assert.Equal(x, i.store.X)
	assert.Equal(p, i.store.P)

	i.SetNorm(4)
	assert.Equal(4.0, i.Norm())
	for k := range x {
		assert.InDelta(4*x[k], i.store.X[k], 1e-15)
	}
	for k := range p {
		assert.InDelta(16*p[k], i.store.P[k], 1e-15)
	}

	i.SetNorm(2)
	assert.Equal(2.0, i.Norm())
	for k := range x {
		assert.InDelta(2*x[k], i.store.X[k], 1e-15)
	}

	assert.Panics(func() { i.SetNorm(0) })
	assert.Panics(func() { i.SetNorm(-1) })
	assert.Panics(func() { i.SetNorm(math.NaN()) })
}

func TestSetNoise(t *testing.T) {
	assert := assert.New(t)

	i, err := New(nil)
	assert.NoError(err)

	i.SetNoise(0.5)
	assert.Equal(0.5, i.Noise())

	assert.Panics(func() { i.SetNoise(0) })
	assert.Panics(func() { i.SetNoise(-1e-3) })
	assert.Equal(0.5, i.Noise())
}

func TestUpdateCount(t *testing.T) {
	assert := assert.New(t)

	i, err := New(nil)
	assert.NoError(err)
	i.SetNoise(1e-3)

	assert.NoError(i.Update([3]float64{1.1, 0, 0}))
	assert.Equal(uint(1), i.MeasurementCount())
	assert.NoError(i.Update([3]float64{0, 0.9, 0}))
	assert.Equal(uint(2), i.MeasurementCount())

	// degenerate update is counted and leaves the estimate unchanged
	s := i.store
	err = i.Update([3]float64{math.NaN(), 0, 0})
	assert.ErrorIs(err, ukf.ErrDegenerate)
	assert.Equal(uint(3), i.MeasurementCount())
	assert.Equal(s, i.store)
}

func TestEstimate(t *testing.T) {
	assert := assert.New(t)

	i, err := New(nil)
	assert.NoError(err)

	var x estimate.State
	x.SetBias([3]float64{1, 2, 3})
	x.SetScale(matrix.Sym3{0.1, 0.2, 0.3, 0.4, 0.5, 0.6})
	i.store.X = x
	i.store.P[estimate.ScaleIndex(0, 1)*(estimate.StateDim+1)] = 0.5

	bias, scale := i.Estimate()
	assert.Equal([3]float64{1, 2, 3}, bias)
	assert.Equal([9]float64{
		0.1, 0.2, 0.3,
		0.2, 0.4, 0.5,
		0.3, 0.5, 0.6,
	}, scale)

	// scale error is symmetric
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			assert.Equal(scale[r*3+c], scale[c*3+r])
		}
	}

	_, _, biasVar, scaleVar := i.EstimateExt()
	assert.Equal([3]float64{1e-2, 1e-2, 1e-2}, biasVar)
	assert.Equal(0.5, scaleVar[1])
	assert.Equal(0.5, scaleVar[3])
	assert.Equal(1e-2, scaleVar[8])

	snap := i.Snapshot()
	assert.Equal(2.0, snap.Bias().AtVec(1))
	assert.Equal(0.5, snap.Scale().At(2, 1))
	assert.Equal(0.5, snap.Cov().At(4, 4))

	// snapshot is a copy
	i.store.X[0] = 7
	assert.Equal(1.0, snap.Val().AtVec(0))
}

func TestCalibrate(t *testing.T) {
	assert := assert.New(t)

	i, err := New(nil)
	assert.NoError(err)

	// fresh estimate is the identity
	raw := [3]float64{0.3, -0.4, 1.2}
	assert.Equal(raw, i.Calibrate(raw))

	i.store.X = estimate.State{0.1, 0.1, 0.1, 1, 0, 0, 1, 0, 1}
	assert.InDeltaSlice([]float64{0.4, -1, 2.2}, func() []float64 {
		c := i.Calibrate(raw)
		return c[:]
	}(), 1e-12)
}

func TestConvergence(t *testing.T) {
	assert := assert.New(t)

	const sigma = 1e-3

	for _, test := range []struct {
		norm float64
		cal  sim.Calibration
	}{
		{
			norm: 1.0,
			cal: sim.Calibration{
				Bias:  [3]float64{0.05, -0.03, 0.02},
				Scale: matrix.Sym3{0.04, 0.01, -0.005, -0.03, 0.008, 0.02},
			},
		},
		{
			norm: 1.0,
			cal: sim.Calibration{
				Bias:  [3]float64{-0.02, 0.04, 0.01},
				Scale: matrix.Sym3{-0.02, 0.005, 0.01, 0.03, -0.01, 0.01},
			},
		},
	} {
		s := sigma * test.norm
		n, err := noise.NewGaussianWithSeed([]float64{0, 0, 0}, mat.NewSymDense(3, []float64{
			s * s, 0, 0,
			0, s * s, 0,
			0, 0, s * s,
		}), 11)
		assert.NoError(err)

		g, err := sim.NewGenerator(test.cal, test.norm, n, 7)
		assert.NoError(err)

		raw, _, err := g.Generate(5000)
		assert.NoError(err)

		i, err := New(nil)
		assert.NoError(err)
		i.SetNorm(test.norm)
		i.SetNoise(s)

		truth := make([]float64, 0, 12)
		truth = append(truth, test.cal.Bias[:]...)
		d := test.cal.Scale.Dense()
		truth = append(truth, d[:]...)

		initial := estimateError(i, truth)
		for _, z := range sim.Readings(raw) {
			assert.NoError(i.Update(z))
		}
		final := estimateError(i, truth)

		assert.Equal(uint(5000), i.MeasurementCount())
		assert.Less(final, initial)
		assert.Less(final, 0.02*test.norm, "norm %f", test.norm)

		// the calibrated readings lie on the sphere
		var worst float64
		for _, z := range sim.Readings(raw)[4900:] {
			c := i.Calibrate(z)
			worst = math.Max(worst, math.Abs(floats.Norm(c[:], 2)-test.norm))
		}
		assert.Less(worst, 0.01*test.norm)
	}
}

// estimateError returns the largest absolute difference between the estimate and truth
func estimateError(i *Instance, truth []float64) float64 {
	bias, scale := i.Estimate()

	est := make([]float64, 0, 12)
	est = append(est, bias[:]...)
	est = append(est, scale[:]...)

	floats.Sub(est, truth)
	for k := range est {
		est[k] = math.Abs(est[k])
	}

	return floats.Max(est)
}
