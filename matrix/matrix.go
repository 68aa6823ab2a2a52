package matrix

import (
	"errors"
	"fmt"
)

// ErrNotPositiveDefinite is returned when a square root decomposition
// encounters a non-positive pivot.
var ErrNotPositiveDefinite = errors.New("matrix is not positive definite")

// Kernel runs the dense matrix kernels using the scalar arithmetic in R.
// All matrices are stored row-major in flat slices.
type Kernel struct {
	// R is scalar arithmetic used by the kernel
	R Real
}

// std is the kernel used by package level functions
var std = Kernel{R: StdReal{}}

// Multiply computes scale*A*B and stores it in out.
// A is rowsA x colsA, B is colsA x colsB and outStride is the row stride of out.
// It panics if any of the slices is too short to hold its matrix.
func Multiply(out, a, b []float64, rowsA, colsA, colsB, outStride int, scale float64) {
	std.Multiply(out, a, b, rowsA, colsA, colsB, outStride, scale)
}

// CholeskySqrt computes lower triangular L such that L*L^T = scale*A.
// l and a may be the same slice.
// It returns ErrNotPositiveDefinite if scale*A is not positive definite.
func CholeskySqrt(l, a []float64, dim int, scale float64) error {
	return std.CholeskySqrt(l, a, dim, scale)
}

// CholeskySolve solves L*L^T*x = b for x, given lower triangular L.
// x and b may be the same slice.
func CholeskySolve(x, l, b []float64, dim int) {
	std.CholeskySolve(x, l, b, dim)
}

// Multiply computes scale*A*B and stores it in out.
// See the package level Multiply for argument description.
func (k Kernel) Multiply(out, a, b []float64, rowsA, colsA, colsB, outStride int, scale float64) {
	if rowsA <= 0 || colsA <= 0 || colsB <= 0 {
		panic(fmt.Sprintf("matrix: invalid dimensions: A is %d x %d, B has %d columns", rowsA, colsA, colsB))
	}
	if outStride < colsB {
		panic(fmt.Sprintf("matrix: output stride %d smaller than %d columns", outStride, colsB))
	}
	if len(a) < rowsA*colsA || len(b) < colsA*colsB || len(out) < (rowsA-1)*outStride+colsB {
		panic("matrix: operand too short")
	}

	for i := 0; i < rowsA; i++ {
		row := a[i*colsA : (i+1)*colsA]
		for j := 0; j < colsB; j++ {
			var s float64
			for k, v := range row {
				s += v * b[k*colsB+j]
			}
			out[i*outStride+j] = s * scale
		}
	}
}

// CholeskySqrt computes lower triangular L such that L*L^T = scale*A.
// Only the lower triangle and the diagonal of A are read; the strict upper
// triangle of L is zeroed.
func (k Kernel) CholeskySqrt(l, a []float64, dim int, scale float64) error {
	if dim <= 0 {
		panic(fmt.Sprintf("matrix: invalid dimension %d", dim))
	}
	if len(l) < dim*dim || len(a) < dim*dim {
		panic("matrix: operand too short")
	}

	for i := 0; i < dim; i++ {
		in := i * dim

		if i == 0 {
			d := a[0] * scale
			if !(d > 0) {
				return fmt.Errorf("pivot 0 is %g: %w", d, ErrNotPositiveDefinite)
			}
			l[0] = k.R.Sqrt(d)
		} else {
			l[in] = k.R.Recip(l[0]) * (a[in] * scale)
		}

		for j := 1; j <= i; j++ {
			jn := j * dim
			var s float64
			for c := 0; c < j; c++ {
				s += l[in+c] * l[jn+c]
			}

			if i == j {
				d := a[in+i]*scale - s
				if !(d > 0) {
					return fmt.Errorf("pivot %d is %g: %w", i, d, ErrNotPositiveDefinite)
				}
				l[in+i] = k.R.Sqrt(d)
			} else {
				l[in+j] = k.R.Recip(l[jn+j]) * (a[in+j]*scale - s)
			}
		}

		for j := i + 1; j < dim; j++ {
			l[in+j] = 0
		}
	}

	return nil
}

// CholeskySolve solves L*L^T*x = b for x by forward and back substitution.
func (k Kernel) CholeskySolve(x, l, b []float64, dim int) {
	if dim <= 0 {
		panic(fmt.Sprintf("matrix: invalid dimension %d", dim))
	}
	if len(x) < dim || len(b) < dim || len(l) < dim*dim {
		panic("matrix: operand too short")
	}

	// L*y = b
	for i := 0; i < dim; i++ {
		s := b[i]
		for c := 0; c < i; c++ {
			s -= l[i*dim+c] * x[c]
		}
		x[i] = s * k.R.Recip(l[i*dim+i])
	}

	// L^T*x = y
	for i := dim - 1; i >= 0; i-- {
		s := x[i]
		for r := i + 1; r < dim; r++ {
			s -= l[r*dim+i] * x[r]
		}
		x[i] = s * k.R.Recip(l[i*dim+i])
	}
}
