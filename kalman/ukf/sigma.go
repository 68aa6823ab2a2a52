package ukf

import (
	"fmt"

	"github.com/sfwa/TRICAL/estimate"
)

// NumSigmaPoints is the number of UKF sigma points
const NumSigmaPoints = 2*estimate.StateDim + 1

// SigmaPoints stores sigma points and the covariance square root they were generated from
type SigmaPoints struct {
	// X stores sigma points: X[0] is the mean, X[1:n+1] and X[n+1:] are
	// the mean shifted by the positive and negative square root columns
	X [NumSigmaPoints]estimate.State
	// L is the lower triangular square root of the scaled covariance
	L estimate.Cov
}

// GenSigmaPoints generates sigma points around state x with covariance p and stores them in sp.
// It returns error if the scaled covariance is not positive definite.
func (k *UKF) GenSigmaPoints(sp *SigmaPoints, x *estimate.State, p *estimate.Cov) error {
	const n = estimate.StateDim

	if err := k.kernel.CholeskySqrt(sp.L[:], p[:], n, k.spread); err != nil {
		return fmt.Errorf("covariance square root failed: %w", err)
	}

	sp.X[0] = *x
	for i := 0; i < n; i++ {
		pos, neg := &sp.X[1+i], &sp.X[1+n+i]
		for j := 0; j < n; j++ {
			// j-th element of i-th column of L
			c := sp.L[j*n+i]
			pos[j] = x[j] + c
			neg[j] = x[j] - c
		}
	}

	return nil
}

// weights returns the mean and covariance weight of sigma point i
func (k *UKF) weights(i int) (wm, wc float64) {
	if i == 0 {
		return k.Wm0, k.Wc0
	}

	return k.W, k.W
}

// Mean returns the weighted mean of sigma point outputs y.
func (k *UKF) Mean(y *[NumSigmaPoints]float64) float64 {
	var m float64
	for i, v := range y {
		wm, _ := k.weights(i)
		m += wm * v
	}

	return m
}

// StateMean returns the weighted mean of sigma points.
func (k *UKF) StateMean(sp *SigmaPoints) estimate.State {
	var m estimate.State
	for i := range sp.X {
		wm, _ := k.weights(i)
		for j, v := range sp.X[i] {
			m[j] += wm * v
		}
	}

	return m
}

// StateCov returns the weighted covariance of sigma points around their mean.
func (k *UKF) StateCov(sp *SigmaPoints) estimate.Cov {
	const n = estimate.StateDim

	mean := k.StateMean(sp)

	var cov estimate.Cov
	var d estimate.State
	for i := range sp.X {
		_, wc := k.weights(i)
		for j := range d {
			d[j] = sp.X[i][j] - mean[j]
		}
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				cov[r*n+c] += wc * d[r] * d[c]
			}
		}
	}

	return cov
}

// Cov returns the weighted variance of sigma point outputs y around mean, increased by
// additive noise variance r, and the cross covariance of sigma points sp around x with y.
func (k *UKF) Cov(sp *SigmaPoints, x *estimate.State, y *[NumSigmaPoints]float64, mean, r float64) (float64, [estimate.StateDim]float64) {
	pyy := r
	var pxy [estimate.StateDim]float64

	for i := range sp.X {
		_, wc := k.weights(i)
		dy := y[i] - mean
		pyy += wc * dy * dy
		for j := range pxy {
			pxy[j] += wc * (sp.X[i][j] - x[j]) * dy
		}
	}

	return pyy, pxy
}
