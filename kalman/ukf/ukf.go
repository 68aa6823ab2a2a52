package ukf

import (
	"errors"
	"fmt"
	"math"

	trical "github.com/sfwa/TRICAL"
	"github.com/sfwa/TRICAL/estimate"
	"github.com/sfwa/TRICAL/matrix"
)

// ErrDegenerate is returned when the filter statistics become numerically degenerate
var ErrDegenerate = errors.New("degenerate filter statistics")

// Downdate selects how the covariance is corrected after a measurement
type Downdate int

const (
	// Joseph corrects covariance with the Joseph stabilized form
	Joseph Downdate = iota
	// Direct subtracts K*S*K^T from the covariance
	Direct
)

// String implements the Stringer interface.
func (d Downdate) String() string {
	switch d {
	case Joseph:
		return "Joseph"
	case Direct:
		return "Direct"
	}

	return fmt.Sprintf("Downdate(%d)", int(d))
}

// Phase is the phase of the filter iteration
type Phase int

const (
	// Idle means no iteration is in progress
	Idle Phase = iota
	// Predicting means the covariance is being propagated
	Predicting
	// Updating means the measurement update is in progress
	Updating
)

// String implements the Stringer interface.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case Predicting:
		return "Predicting"
	case Updating:
		return "Updating"
	}

	return fmt.Sprintf("Phase(%d)", int(p))
}

// Config contains UKF [unitless] configuration parameters
type Config struct {
	// Alpha is alpha parameter (0,1]
	Alpha float64
	// Beta is beta parameter (2 is optimal choice for Gaussian)
	Beta float64
	// Kappa is kappa parameter (must be non-negative)
	Kappa float64
	// ProcessNoise is the variance added to the covariance diagonal in every prediction
	ProcessNoise float64
	// Downdate selects the covariance correction
	Downdate Downdate
	// Real is scalar arithmetic used by the matrix kernels; nil means matrix.StdReal
	Real matrix.Real
}

// DefaultConfig returns the default UKF configuration.
// It yields central sigma point weight of 1/4 and positive weights for all sigma points.
func DefaultConfig() *Config {
	return &Config{
		Alpha:        1.0,
		Beta:         0.0,
		Kappa:        3.0,
		ProcessNoise: 1e-9,
		Downdate:     Joseph,
	}
}

// UKF is Unscented (aka Sigma Point) Kalman Filter estimating static calibration parameters
type UKF struct {
	// model is UKF measurement model
	model trical.Observer
	// kernel runs matrix computations
	kernel matrix.Kernel
	// spread is the covariance scale of the sigma points: n + lambda
	spread float64
	// Wm0 is mean sigma point weight
	Wm0 float64
	// Wc0 is mean sigma point covariance weight
	Wc0 float64
	// W is weight for regular sigma points and covariances
	W float64
	// q is process noise variance
	q float64
	// downdate is covariance correction
	downdate Downdate
	// phase is the current iteration phase
	phase Phase
}

// New creates new UKF and returns it.
// It accepts the following arguments:
//   - model:  measurement model
//   - c:      filter configuration
//
// It returns error if the configuration is invalid.
func New(model trical.Observer, c *Config) (*UKF, error) {
	if model == nil {
		return nil, fmt.Errorf("invalid model: %v", model)
	}

	if c == nil {
		c = DefaultConfig()
	}

	if c.Alpha <= 0 || c.Alpha > 1 || c.Beta < 0 || c.Kappa < 0 || c.ProcessNoise < 0 {
		return nil, fmt.Errorf("invalid config supplied: %+v", *c)
	}

	if c.Downdate != Joseph && c.Downdate != Direct {
		return nil, fmt.Errorf("invalid downdate: %v", c.Downdate)
	}

	n := float64(estimate.StateDim)

	// lambda is another unitless UKF parameter - calculates using the config ones
	lambda := c.Alpha*c.Alpha*(n+c.Kappa) - n

	spread := n + lambda
	if spread <= 0 {
		return nil, fmt.Errorf("invalid sigma point spread: %f", spread)
	}

	// weight of the mean sigma point
	Wm0 := lambda / spread
	// weight of the mean sigma point covariance
	Wc0 := Wm0 + (1 - c.Alpha*c.Alpha + c.Beta)
	// weight of the rest of sigma points and covariance
	W := 1 / (2 * spread)

	r := c.Real
	if r == nil {
		r = matrix.StdReal{}
	}

	return &UKF{
		model:    model,
		kernel:   matrix.Kernel{R: r},
		spread:   spread,
		Wm0:      Wm0,
		Wc0:      Wc0,
		W:        W,
		q:        c.ProcessNoise,
		downdate: c.Downdate,
	}, nil
}

// Phase returns the current iteration phase.
func (k *UKF) Phase() Phase {
	return k.phase
}

// enter moves the filter to phase p. It panics if an iteration phase is already in progress.
func (k *UKF) enter(p Phase) {
	if k.phase != Idle {
		panic(fmt.Sprintf("ukf: %v entered while %v", p, k.phase))
	}
	k.phase = p
}

func (k *UKF) leave() {
	k.phase = Idle
}

// Predict propagates the estimate in s to the next step.
// Calibration parameters are static: the state is left unchanged and the
// covariance diagonal is inflated by the process noise.
func (k *UKF) Predict(s *estimate.Store) {
	k.enter(Predicting)
	defer k.leave()

	for i := 0; i < len(s.P); i += estimate.StateDim + 1 {
		s.P[i] += k.q
	}
}

// Update corrects the estimate in s so that the magnitude of calibrated raw
// measurement z approaches norm, given measurement noise standard deviation noise.
// It returns error wrapping ErrDegenerate if the statistics are degenerate, in which case s is not modified.
func (k *UKF) Update(s *estimate.Store, z [3]float64, norm, noise float64) error {
	k.enter(Updating)
	defer k.leave()

	var sp SigmaPoints
	if err := k.GenSigmaPoints(&sp, &s.X, &s.P); err != nil {
		return fmt.Errorf("%w: %w", ErrDegenerate, err)
	}

	// predicted field magnitude of every sigma point
	var y [NumSigmaPoints]float64
	for i := range sp.X {
		y[i] = k.model.Observe(&sp.X[i], z)
	}
	yMean := k.Mean(&y)

	r := noise * noise
	pyy, pxy := k.Cov(&sp, &s.X, &y, yMean, r)
	if !(pyy > 0) || math.IsInf(pyy, 0) {
		return fmt.Errorf("%w: innovation covariance %g", ErrDegenerate, pyy)
	}

	// Kalman gain
	var gain [estimate.StateDim]float64
	for i := range gain {
		gain[i] = pxy[i] / pyy
	}

	inn := norm - yMean

	x := s.X
	for i := range x {
		x[i] += gain[i] * inn
	}

	p := s.P
	switch k.downdate {
	case Joseph:
		k.joseph(&p, &sp.L, &pxy, &gain, pyy)
	case Direct:
		var kk estimate.Cov
		k.kernel.Multiply(kk[:], gain[:], gain[:], estimate.StateDim, 1, estimate.StateDim, estimate.StateDim, -pyy)
		for i := range p {
			p[i] += kk[i]
		}
	}
	p.Symmetrize()

	if !finite(x[:]) || !finite(p[:]) {
		return fmt.Errorf("%w: non-finite estimate", ErrDegenerate)
	}

	s.X, s.P = x, p

	return nil
}

// Iterate runs one filter step: it predicts and then updates the estimate in s
// with raw measurement z. s is modified only if the step succeeds.
func (k *UKF) Iterate(s *estimate.Store, z [3]float64, norm, noise float64) error {
	next := *s

	k.Predict(&next)
	if err := k.Update(&next, z, norm, noise); err != nil {
		return err
	}

	*s = next

	return nil
}

// joseph corrects covariance p with (I - K*h^T)*P*(I - K*h^T)^T + r*K*K^T, where
// h = P^-1*Pxy is the statistically linearized observation, l is the square
// root of spread*P and r = pyy - h^T*Pxy is the measurement noise plus the
// linearization residual. The result equals P - pyy*K*K^T.
func (k *UKF) joseph(p, l *estimate.Cov, pxy, gain *[estimate.StateDim]float64, pyy float64) {
	const n = estimate.StateDim

	var h [n]float64
	k.kernel.CholeskySolve(h[:], l[:], pxy[:], n)
	r := pyy
	for i := range h {
		h[i] *= k.spread
		r -= h[i] * pxy[i]
	}

	// m = I - K*h^T
	var m, mt estimate.Cov
	k.kernel.Multiply(m[:], gain[:], h[:], n, 1, n, n, -1)
	for i := 0; i < n; i++ {
		m[i*n+i]++
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			mt[j*n+i] = m[i*n+j]
		}
	}

	var mp estimate.Cov
	k.kernel.Multiply(mp[:], m[:], p[:], n, n, n, n, 1)
	k.kernel.Multiply(p[:], mp[:], mt[:], n, n, n, n, 1)

	var kk estimate.Cov
	k.kernel.Multiply(kk[:], gain[:], gain[:], n, 1, n, n, r)
	for i := range p {
		p[i] += kk[i]
	}
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}

	return true
}
