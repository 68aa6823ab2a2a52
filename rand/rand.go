package rand

import (
	"fmt"
	"math"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// WithCovN draws n random samples from a zero-mean Normal (aka Gaussian) distribution with covariance cov.
// Samples are drawn from rnd. It returns matrix which contains the randomly generated samples stored in its columns.
// It fails with error if n is non-positive or if SVD factorization of cov fails.
func WithCovN(cov mat.Symmetric, n int, rnd *xrand.Rand) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of samples requested: %d", n)
	}

	// Use SVD instead of Cholesky as Cholesky can be numerically unstable if cov is (almost) singular
	var svd mat.SVD
	ok := svd.Factorize(cov, mat.SVDFull)
	if !ok {
		return nil, fmt.Errorf("SVD factorization failed")
	}

	U := new(mat.Dense)
	svd.UTo(U)
	vals := svd.Values(nil)
	for i := range vals {
		vals[i] = math.Sqrt(vals[i])
	}
	diag := mat.NewDiagDense(len(vals), vals)
	U.Mul(U, diag)

	rows, _ := cov.Dims()
	data := make([]float64, rows*n)
	for i := range data {
		data[i] = rnd.NormFloat64()
	}
	samples := mat.NewDense(rows, n, data)
	samples.Mul(U, samples)

	return samples, nil
}

// UnitN draws n directions uniformly distributed over the unit sphere in dim dimensions.
// It returns matrix which contains the unit vectors stored in its columns.
// It fails with error if dim or n is non-positive.
func UnitN(dim, n int, rnd *xrand.Rand) (*mat.Dense, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension: %d", dim)
	}

	eye := mat.NewDiagDense(dim, nil)
	for i := 0; i < dim; i++ {
		eye.SetDiag(i, 1)
	}

	samples, err := WithCovN(eye, n, rnd)
	if err != nil {
		return nil, err
	}

	col := make([]float64, dim)
	for j := 0; j < n; j++ {
		mat.Col(col, j, samples)
		norm := floats.Norm(col, 2)
		if norm == 0 {
			// practically unreachable; pick an axis
			col[0], norm = 1, 1
		}
		floats.Scale(1/norm, col)
		samples.SetCol(j, col)
	}

	return samples, nil
}
