package matrix

import "fmt"

// Sym3 is a symmetric 3x3 matrix stored as its packed upper triangle:
//
//	[0] [1] [2]
//	[1] [3] [4]
//	[2] [4] [5]
type Sym3 [6]float64

// SymIndex returns the packed Sym3 index of the element at row r and column c.
// It panics if r or c is outside [0,2].
func SymIndex(r, c int) int {
	if r < 0 || r > 2 || c < 0 || c > 2 {
		panic(fmt.Sprintf("matrix: index (%d, %d) out of range", r, c))
	}
	if r > c {
		r, c = c, r
	}

	return r*3 - r*(r-1)/2 + c - r
}

// At returns the element at row r and column c.
func (s *Sym3) At(r, c int) float64 {
	return s[SymIndex(r, c)]
}

// Set sets the element at row r and column c (and thus c and r) to v.
func (s *Sym3) Set(r, c int, v float64) {
	s[SymIndex(r, c)] = v
}

// Dense returns the full row-major 3x3 matrix.
func (s *Sym3) Dense() [9]float64 {
	var d [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			d[r*3+c] = s.At(r, c)
		}
	}

	return d
}

// MulVecPlusIdentity returns (I + S)*v.
func (s *Sym3) MulVecPlusIdentity(v [3]float64) [3]float64 {
	var out [3]float64
	for r := 0; r < 3; r++ {
		out[r] = v[r]
		for c := 0; c < 3; c++ {
			out[r] += s.At(r, c) * v[c]
		}
	}

	return out
}
