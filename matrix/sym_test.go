package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymIndex(t *testing.T) {
	assert := assert.New(t)

	exp := [3][3]int{
		{0, 1, 2},
		{1, 3, 4},
		{2, 4, 5},
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			assert.Equal(exp[r][c], SymIndex(r, c))
		}
	}

	assert.Panics(func() { SymIndex(3, 0) })
	assert.Panics(func() { SymIndex(0, -1) })
}

func TestSym3(t *testing.T) {
	assert := assert.New(t)

	s := Sym3{1, 2, 3, 4, 5, 6}
	assert.Equal([9]float64{
		1, 2, 3,
		2, 4, 5,
		3, 5, 6,
	}, s.Dense())

	s.Set(2, 1, -5)
	assert.Equal(-5.0, s.At(1, 2))
	assert.Equal(-5.0, s.At(2, 1))

	var d Sym3
	d.Set(0, 0, 0.5)
	d.Set(0, 1, 0.25)
	v := d.MulVecPlusIdentity([3]float64{2, 4, 6})
	assert.Equal([3]float64{2 + 1 + 1, 4 + 0.5, 6}, v)
}
