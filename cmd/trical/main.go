// Command trical calibrates tri-axial sensor readings read from standard input.
//
// Every input line holds one raw reading formatted as x,y,z. Malformed lines
// are skipped. The calibrated reading is written to standard output after
// each line and the final calibration is summarized on standard error.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sfwa/TRICAL/calibrator"
	"github.com/sfwa/TRICAL/kalman/ukf"
	"github.com/sfwa/TRICAL/sim"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg"
)

type options struct {
	// norm is expected field magnitude
	norm float64
	// noise is measurement noise standard deviation
	noise float64
	// downdate is the covariance correction name
	downdate string
	// plot is the path of the norm plot; empty means no plots
	plot string
}

func main() {
	var opts options

	flag.Float64Var(&opts.norm, "norm", 1.0, "expected field magnitude")
	flag.Float64Var(&opts.noise, "noise", 1e-6, "measurement noise standard deviation")
	flag.StringVar(&opts.downdate, "downdate", "joseph", "covariance correction: joseph or direct")
	flag.StringVar(&opts.plot, "plot", "", "save plots of raw and calibrated readings to this PNG file")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, os.Stderr, opts); err != nil {
		log.Fatalf("Failed to run calibration: %v", err)
	}
}

// run calibrates readings from in, writing calibrated readings to out and
// the summary to errOut.
func run(in io.Reader, out, errOut io.Writer, opts options) error {
	if !(opts.norm > 0) {
		return fmt.Errorf("invalid field norm: %g", opts.norm)
	}

	if !(opts.noise > 0) {
		return fmt.Errorf("invalid measurement noise: %g", opts.noise)
	}

	c := ukf.DefaultConfig()
	switch strings.ToLower(opts.downdate) {
	case "joseph":
		c.Downdate = ukf.Joseph
	case "direct":
		c.Downdate = ukf.Direct
	default:
		return fmt.Errorf("invalid downdate: %q", opts.downdate)
	}

	inst, err := calibrator.New(c)
	if err != nil {
		return err
	}
	inst.SetNorm(opts.norm)
	inst.SetNoise(opts.noise)

	logger := log.New(errOut, "trical: ", 0)
	w := bufio.NewWriter(out)

	var readings [][3]float64
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		z, ok := parseReading(scanner.Text())
		if !ok {
			continue
		}

		if err := inst.Update(z); err != nil {
			logger.Printf("measurement %d rejected: %v", inst.MeasurementCount(), err)
		}

		cal := inst.Calibrate(z)
		if _, err := fmt.Fprintf(w, "%.7f,%.7f,%.7f\n", cal[0], cal[1], cal[2]); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}

		if opts.plot != "" {
			readings = append(readings, z)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if err := summary(errOut, inst); err != nil {
		return err
	}

	if opts.plot != "" && len(readings) > 0 {
		return savePlots(opts.plot, inst, readings)
	}

	return nil
}

// parseReading parses a x,y,z line. It returns false if the line is not a reading.
func parseReading(line string) ([3]float64, bool) {
	var z [3]float64

	fields := strings.Split(strings.Trim(line, "\n\r\t "), ",")
	if len(fields) != len(z) {
		return z, false
	}

	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return z, false
		}
		z[i] = v
	}

	return z, true
}

func summary(w io.Writer, inst *calibrator.Instance) error {
	b, d := inst.Estimate()

	_, err := fmt.Fprintf(w, "################# CALIBRATION #################\n"+
		" b = [%10.7f, %10.7f, %10.7f]\n"+
		" D = [ [ %10.7f, %10.7f, %10.7f ]\n"+
		"       [ %10.7f, %10.7f, %10.7f ]\n"+
		"       [ %10.7f, %10.7f, %10.7f ] ]\n",
		b[0], b[1], b[2],
		d[0], d[1], d[2],
		d[3], d[4], d[5],
		d[6], d[7], d[8])
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	return nil
}

// savePlots saves the norm plot to path and the axis projections next to it,
// calibrating all readings with the final estimate.
func savePlots(path string, inst *calibrator.Instance, readings [][3]float64) error {
	calibrated := make([][3]float64, len(readings))
	for i, z := range readings {
		calibrated[i] = inst.Calibrate(z)
	}

	raw := sim.FromReadings(readings)
	cal := sim.FromReadings(calibrated)

	p, err := sim.NewNormPlot(raw, cal, inst.Norm())
	if err != nil {
		return fmt.Errorf("failed to create norm plot: %w", err)
	}
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save norm plot: %w", err)
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for _, axes := range [][2]int{{0, 1}, {0, 2}, {1, 2}} {
		p, err := sim.NewProjectionPlot(raw, cal, axes[0], axes[1])
		if err != nil {
			return fmt.Errorf("failed to create projection plot: %w", err)
		}

		name := base + "_" + strings.ToLower(p.X.Label.Text+p.Y.Label.Text) + ext
		if err := p.Save(10*vg.Inch, 10*vg.Inch, name); err != nil {
			return fmt.Errorf("failed to save projection plot: %w", err)
		}
	}

	return nil
}
