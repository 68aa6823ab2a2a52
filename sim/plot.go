package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var axisNames = [3]string{"X", "Y", "Z"}

// NewProjectionPlot creates new plot of raw and calibrated readings projected
// onto the plane of axes a and b. Readings are stored in matrix columns.
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * either of the supplied data matrices is nil
// * the data matrices do not have 3 rows
// * the axes are invalid
// * gonum plot fails to be created
func NewProjectionPlot(raw, calibrated *mat.Dense, a, b int) (*plot.Plot, error) {
	if err := checkData(raw, calibrated); err != nil {
		return nil, err
	}

	if a < 0 || a > 2 || b < 0 || b > 2 || a == b {
		return nil, fmt.Errorf("invalid projection axes: %d, %d", a, b)
	}

	p := plot.New()

	p.Title.Text = fmt.Sprintf("Readings %s%s", axisNames[a], axisNames[b])
	p.X.Label.Text = axisNames[a]
	p.Y.Label.Text = axisNames[b]

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	// Make a scatter plotter for raw data
	rawScatter, err := plotter.NewScatter(makeProjection(raw, a, b))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	rawScatter.GlyphStyle.Color = color.RGBA{R: 255, B: 128, A: 255}
	rawScatter.Shape = draw.PyramidGlyph{}
	rawScatter.GlyphStyle.Radius = vg.Points(2)

	p.Add(rawScatter)
	p.Legend.Add("raw", rawScatter)

	// Make a scatter plotter for calibrated data
	calScatter, err := plotter.NewScatter(makeProjection(calibrated, a, b))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	calScatter.GlyphStyle.Color = color.RGBA{G: 160, A: 255}
	calScatter.Shape = draw.CrossGlyph{}
	calScatter.GlyphStyle.Radius = vg.Points(2)

	p.Add(calScatter)
	p.Legend.Add("calibrated", calScatter)

	return p, nil
}

// NewNormPlot creates new plot of raw and calibrated reading magnitudes against
// the reading index, together with the expected field norm.
// It returns error if the data is invalid or the plot fails to be created.
func NewNormPlot(raw, calibrated *mat.Dense, norm float64) (*plot.Plot, error) {
	if err := checkData(raw, calibrated); err != nil {
		return nil, err
	}

	p := plot.New()

	p.Title.Text = "Field magnitude"
	p.X.Label.Text = "reading"
	p.Y.Label.Text = "magnitude"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	rawScatter, err := plotter.NewScatter(makeNorms(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	rawScatter.GlyphStyle.Color = color.RGBA{R: 255, B: 128, A: 255}
	rawScatter.GlyphStyle.Radius = vg.Points(1)

	p.Add(rawScatter)
	p.Legend.Add("raw", rawScatter)

	calScatter, err := plotter.NewScatter(makeNorms(calibrated))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	calScatter.GlyphStyle.Color = color.RGBA{G: 160, A: 255}
	calScatter.GlyphStyle.Radius = vg.Points(1)

	p.Add(calScatter)
	p.Legend.Add("calibrated", calScatter)

	_, c := raw.Dims()
	ref, err := plotter.NewLine(plotter.XYs{{X: 0, Y: norm}, {X: float64(c - 1), Y: norm}})
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %v", err)
	}
	ref.LineStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	ref.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(ref)
	p.Legend.Add("field norm", ref)

	return p, nil
}

func checkData(raw, calibrated *mat.Dense) error {
	if raw == nil || calibrated == nil {
		return fmt.Errorf("invalid data supplied")
	}

	rr, cr := raw.Dims()
	rc, cc := calibrated.Dims()
	if rr != 3 || rc != 3 || cr != cc {
		return fmt.Errorf("invalid data dimensions: [%d x %d], [%d x %d]", rr, cr, rc, cc)
	}

	return nil
}

func makeProjection(m *mat.Dense, a, b int) plotter.XYs {
	_, c := m.Dims()
	pts := make(plotter.XYs, c)
	for j := 0; j < c; j++ {
		pts[j].X = m.At(a, j)
		pts[j].Y = m.At(b, j)
	}

	return pts
}

func makeNorms(m *mat.Dense) plotter.XYs {
	_, c := m.Dims()
	pts := make(plotter.XYs, c)
	for j := 0; j < c; j++ {
		pts[j].X = float64(j)
		pts[j].Y = mat.Norm(m.ColView(j), 2)
	}

	return pts
}
