// Package sim simulates tri-axial sensor readings and plots calibration results.
package sim

import (
	"fmt"

	mx "github.com/milosgajdos/matrix"
	trical "github.com/sfwa/TRICAL"
	"github.com/sfwa/TRICAL/matrix"
	"github.com/sfwa/TRICAL/noise"
	trand "github.com/sfwa/TRICAL/rand"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Calibration is sensor calibration: a reading z is calibrated as (I + Scale)*(z - Bias)
type Calibration struct {
	// Bias is sensor bias
	Bias [3]float64
	// Scale is symmetric scale error
	Scale matrix.Sym3
}

// Generator generates raw readings of a field of known magnitude as seen
// by a sensor whose calibration is known
type Generator struct {
	// cal is the calibration the raw readings need
	cal Calibration
	// norm is the field magnitude
	norm float64
	// distort maps true field to uncalibrated field: (I + Scale)^-1
	distort *mat.Dense
	// noise is measurement noise
	noise trical.Noise
	// rnd draws field directions
	rnd *rand.Rand
}

// NewGenerator creates new Generator and returns it.
// It accepts the following arguments:
//   - cal:   calibration the generated readings require
//   - norm:  field magnitude
//   - n:     measurement noise; nil means no noise
//   - seed:  seed of the field direction source
//
// It returns error if norm is non-positive, n is not 3 dimensional or I + cal.Scale is singular.
func NewGenerator(cal Calibration, norm float64, n trical.Noise, seed uint64) (*Generator, error) {
	if norm <= 0 {
		return nil, fmt.Errorf("invalid field norm: %f", norm)
	}

	if n == nil {
		z, err := noise.NewZero(3)
		if err != nil {
			return nil, err
		}
		n = z
	}

	if n.Cov().SymmetricDim() != 3 {
		return nil, fmt.Errorf("invalid noise dimension: %d", n.Cov().SymmetricDim())
	}

	eye, err := mx.NewDenseValIdentity(3, 1.0)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %v", err)
	}
	d := cal.Scale.Dense()
	eye.Add(eye, mat.NewDense(3, 3, d[:]))

	distort := &mat.Dense{}
	if err := distort.Inverse(eye); err != nil {
		return nil, fmt.Errorf("invalid scale error: %v", err)
	}

	return &Generator{
		cal:     cal,
		norm:    norm,
		distort: distort,
		noise:   n,
		rnd:     rand.New(rand.NewSource(seed)),
	}, nil
}

// Calibration returns the calibration of the generated readings.
func (g *Generator) Calibration() Calibration {
	return g.cal
}

// Generate generates n readings. It returns the raw readings and the
// true field vectors, both stored in matrix columns.
// It returns error if n is non-positive.
func (g *Generator) Generate(n int) (raw, field *mat.Dense, err error) {
	field, err = trand.UnitN(3, n, g.rnd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to draw field directions: %v", err)
	}
	field.Scale(g.norm, field)

	raw = &mat.Dense{}
	raw.Mul(g.distort, field)

	col := mat.NewVecDense(3, nil)
	for j := 0; j < n; j++ {
		col.CopyVec(raw.ColView(j))
		col.AddVec(col, g.noise.Sample())
		for i := 0; i < 3; i++ {
			raw.Set(i, j, col.AtVec(i)+g.cal.Bias[i])
		}
	}

	return raw, field, nil
}

// Readings returns the columns of m as readings.
// It panics if m does not have 3 rows.
func Readings(m *mat.Dense) [][3]float64 {
	r, c := m.Dims()
	if r != 3 {
		panic(fmt.Sprintf("sim: readings must have 3 rows, got %d", r))
	}

	out := make([][3]float64, c)
	for j := range out {
		for i := 0; i < 3; i++ {
			out[j][i] = m.At(i, j)
		}
	}

	return out
}

// FromReadings returns readings stored in matrix columns.
// It panics if readings is empty.
func FromReadings(readings [][3]float64) *mat.Dense {
	m := mat.NewDense(3, len(readings), nil)
	for j, v := range readings {
		m.SetCol(j, v[:])
	}

	return m
}
