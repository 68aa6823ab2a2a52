package estimate

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Base is a calibration estimate backed by gonum matrices
type Base struct {
	// val is estimated state
	val *mat.VecDense
	// cov is estimated state covariance
	cov *mat.SymDense
}

// NewBase returns base estimate given val with zero covariance.
// It returns error if val is nil.
func NewBase(val mat.Vector) (*Base, error) {
	if val == nil {
		return nil, fmt.Errorf("invalid estimate value: %v", val)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	c := mat.NewSymDense(v.Len(), nil)

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// NewBaseWithCov returns base estimate given state and covariance
func NewBaseWithCov(val mat.Vector, cov mat.Symmetric) (*Base, error) {
	rv, _ := val.Dims()
	rc := cov.SymmetricDim()

	if rv != rc {
		return nil, fmt.Errorf("invalid dimensions. Val: %d, Cov: %d x %d", rv, rc, rc)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	c := mat.NewSymDense(rc, nil)
	c.CopySym(cov)

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// NewBaseFromStore returns base estimate holding a copy of the state and covariance in s
func NewBaseFromStore(s *Store) *Base {
	x := make([]float64, StateDim)
	copy(x, s.X[:])

	p := make([]float64, len(s.P))
	copy(p, s.P[:])

	return &Base{
		val: mat.NewVecDense(StateDim, x),
		cov: mat.NewSymDense(StateDim, p),
	}
}

// Val returns estimated value
func (b *Base) Val() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(b.val)

	return v
}

// Cov returns covariance estimate
func (b *Base) Cov() mat.Symmetric {
	cov := mat.NewSymDense(b.cov.SymmetricDim(), nil)
	cov.CopySym(b.cov)

	return cov
}

// Bias returns the bias part of the estimate
func (b *Base) Bias() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(b.val.SliceVec(0, scaleOffset))

	return v
}

// Scale returns the scale error part of the estimate as a 3x3 symmetric matrix
func (b *Base) Scale() mat.Symmetric {
	m := mat.NewSymDense(3, nil)
	for r := 0; r < 3; r++ {
		for c := r; c < 3; c++ {
			m.SetSym(r, c, b.val.AtVec(ScaleIndex(r, c)))
		}
	}

	return m
}
