package matrix

import "math"

// Real provides the scalar arithmetic the matrix kernels are built on.
type Real interface {
	// Sqrt returns the square root of x
	Sqrt(x float64) float64
	// Recip returns 1/x
	Recip(x float64) float64
}

// StdReal is the portable Real implementation backed by package math.
type StdReal struct{}

// Sqrt returns the square root of x.
func (StdReal) Sqrt(x float64) float64 {
	return math.Sqrt(x)
}

// Recip returns 1/x.
func (StdReal) Recip(x float64) float64 {
	return 1 / x
}

// NewtonReal computes square roots and reciprocals from a single precision
// seed refined with Newton-Raphson iterations, the way DSP targets without
// a hardware divider do it.
type NewtonReal struct{}

// Sqrt returns the square root of x. It returns 0 for non-positive x.
func (NewtonReal) Sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if math.IsInf(x, 1) || math.IsNaN(x) {
		return x
	}

	// x = m*2^e with m in [0.5, 2) and e even, so the seed stays in float32 range
	m, e := math.Frexp(x)
	if e%2 != 0 {
		m *= 2
		e--
	}

	// inverse square root seed from the float32 exponent trick
	y := float64(math.Float32frombits(0x5f3759df - math.Float32bits(float32(m))>>1))

	half := 0.5 * m
	for i := 0; i < 4; i++ {
		y = y * (1.5 - half*y*y)
	}

	return math.Ldexp(m*y, e/2)
}

// Recip returns 1/x. It returns 0 when x is 0 or infinite.
func (NewtonReal) Recip(x float64) float64 {
	if x == 0 {
		return 0
	}
	if math.IsInf(x, 0) {
		return math.Copysign(0, x)
	}

	// x = m*2^e with |m| in [0.5, 1)
	m, e := math.Frexp(x)

	y := float64(1 / float32(m))
	for i := 0; i < 2; i++ {
		y = y * (2 - m*y)
	}

	return math.Ldexp(y, -e)
}
