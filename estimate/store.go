package estimate

import (
	"math"

	"github.com/sfwa/TRICAL/matrix"
)

const (
	// StateDim is the dimension of the calibration state: 3 bias and 6 scale entries
	StateDim = 9
	// InitialVariance is the variance each state element starts with
	InitialVariance = 1e-2
)

// scaleOffset is the index of the first packed scale entry in State
const scaleOffset = 3

// State is the calibration state. Elements 0-2 hold the bias, elements 3-8
// hold the packed upper triangle of the symmetric scale error matrix.
type State [StateDim]float64

// Bias returns the bias estimate.
func (s *State) Bias() [3]float64 {
	return [3]float64{s[0], s[1], s[2]}
}

// SetBias sets the bias estimate to b.
func (s *State) SetBias(b [3]float64) {
	copy(s[:scaleOffset], b[:])
}

// Scale returns the scale error estimate.
func (s *State) Scale() matrix.Sym3 {
	var m matrix.Sym3
	copy(m[:], s[scaleOffset:])

	return m
}

// SetScale sets the scale error estimate to m.
func (s *State) SetScale(m matrix.Sym3) {
	copy(s[scaleOffset:], m[:])
}

// ScaleIndex returns the State index of the scale error element at row r and column c.
func ScaleIndex(r, c int) int {
	return scaleOffset + matrix.SymIndex(r, c)
}

// Cov is a row-major StateDim x StateDim state covariance.
type Cov [StateDim * StateDim]float64

// At returns the covariance of state elements i and j.
func (c *Cov) At(i, j int) float64 {
	return c[i*StateDim+j]
}

// Variances returns bias variances and the variances of the scale error
// elements arranged like the scale error matrix. Cross covariances are not
// included: the off-diagonal scale variances are duplicated from the
// corresponding packed state element.
func (c *Cov) Variances() (bias [3]float64, scale [9]float64) {
	for i := 0; i < 3; i++ {
		bias[i] = c.At(i, i)
	}

	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			k := ScaleIndex(r, col)
			scale[r*3+col] = c.At(k, k)
		}
	}

	return bias, scale
}

// Symmetrize replaces c with (c + c^T)/2.
func (c *Cov) Symmetrize() {
	for i := 0; i < StateDim; i++ {
		for j := i + 1; j < StateDim; j++ {
			v := 0.5 * (c[i*StateDim+j] + c[j*StateDim+i])
			c[i*StateDim+j] = v
			c[j*StateDim+i] = v
		}
	}
}

// Store holds the calibration state and its covariance.
type Store struct {
	// X is the state estimate
	X State
	// P is the state covariance
	P Cov
}

// Reset zeroes the state and sets the covariance to InitialVariance on its diagonal.
func (s *Store) Reset() {
	s.X = State{}
	s.P = Cov{}
	for i := 0; i < len(s.P); i += StateDim + 1 {
		s.P[i] = InitialVariance
	}
}

// Rescale rescales the state by to/from and the covariance by (to/from)^2.
// It does nothing and returns false if to and from are within machine epsilon of each other.
func (s *Store) Rescale(from, to float64) bool {
	if math.Abs(to-from) <= epsilon {
		return false
	}

	r := to / from
	for i := range s.X {
		s.X[i] *= r
	}

	r2 := (to * to) / (from * from)
	for i := range s.P {
		s.P[i] *= r2
	}

	return true
}

// epsilon is the float64 machine epsilon
const epsilon = 0x1p-52
