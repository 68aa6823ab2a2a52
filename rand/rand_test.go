package rand

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestWithCovN(t *testing.T) {
	assert := assert.New(t)

	rnd := xrand.New(xrand.NewSource(1))

	data := []float64{1.0, 0.0, 0.0, 1.0}
	covTest := mat.NewSymDense(2, data)
	covR, _ := covTest.Dims()

	// n must be bigger than 1
	nTest := -3
	res, err := WithCovN(covTest, nTest, rnd)
	assert.Error(err)
	assert.Nil(res)

	nTest = 1
	res, err = WithCovN(covTest, nTest, rnd)
	assert.NoError(err)
	assert.NotNil(res)

	// 2 samples
	nTest = 2
	res, err = WithCovN(covTest, nTest, rnd)
	assert.NoError(err)
	assert.NotNil(res)
	r, c := res.Dims()
	assert.Equal(r, covR)
	assert.Equal(c, nTest)

	// sample variance follows cov
	cov := mat.NewSymDense(2, []float64{4, 0, 0, 0.25})
	res, err = WithCovN(cov, 20000, rnd)
	assert.NoError(err)
	assert.InDelta(2.0, stat.StdDev(mat.Row(nil, 0, res), nil), 0.1)
	assert.InDelta(0.5, stat.StdDev(mat.Row(nil, 1, res), nil), 0.05)
}

func TestUnitN(t *testing.T) {
	assert := assert.New(t)

	rnd := xrand.New(xrand.NewSource(2))

	res, err := UnitN(3, 1000, rnd)
	assert.NoError(err)
	r, c := res.Dims()
	assert.Equal(3, r)
	assert.Equal(1000, c)

	for j := 0; j < c; j++ {
		assert.InDelta(1.0, floats.Norm(mat.Col(nil, j, res), 2), 1e-12)
	}

	// directions cover the sphere evenly
	for i := 0; i < r; i++ {
		assert.InDelta(0.0, stat.Mean(mat.Row(nil, i, res), nil), 0.1)
		assert.InDelta(1/math.Sqrt(3), stat.StdDev(mat.Row(nil, i, res), nil), 0.05)
	}

	res, err = UnitN(0, 10, rnd)
	assert.Nil(res)
	assert.Error(err)

	res, err = UnitN(3, 0, rnd)
	assert.Nil(res)
	assert.Error(err)
}
