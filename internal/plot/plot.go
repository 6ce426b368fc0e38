// internal/plot/plot.go
package plot

import (
	"errors"
	"fmt"
	"image/color"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ColonelBlimp/qrsdetect/internal/analysis"
	"github.com/ColonelBlimp/qrsdetect/internal/qrs"
)

// integratedScale matches the debug telemetry scaling so plots and serial traces agree
const integratedScale = 4000

var ErrEmptyTrace = errors.New("trace has no samples in range")

var (
	rawColor        = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	filteredColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	integratedColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	thresholdColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	beatColor       = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// Options selects what to draw.
type Options struct {
	Title string
	// From and To bound the plotted sample indexes; To <= 0 means the end of the trace.
	From, To int
	Width    vg.Length
	Height   vg.Length
}

// Render draws the raw, filtered and integrated signals with the threshold and
// beat markers, and saves the figure to path. The format follows the extension.
func Render(trace []analysis.TracePoint, path string, opts Options) error {
	from, to := opts.From, opts.To
	if to <= 0 || to > len(trace) {
		to = len(trace)
	}
	if from < 0 {
		from = 0
	}
	if from >= to {
		return ErrEmptyTrace
	}
	window := trace[from:to]

	p := gonumplot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = "QRS detection"
	}
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Amplitude"
	p.Legend.Top = true

	raw := make(plotter.XYs, len(window))
	filtered := make(plotter.XYs, len(window))
	integrated := make(plotter.XYs, len(window))
	threshold := make(plotter.XYs, len(window))
	var beats plotter.XYs
	for i, tp := range window {
		x := float64(tp.Tick) / qrs.SampleRate
		raw[i] = plotter.XY{X: x, Y: float64(tp.Raw) - qrs.ADCMidScale}
		filtered[i] = plotter.XY{X: x, Y: float64(tp.HighPass)}
		integrated[i] = plotter.XY{X: x, Y: float64(tp.Integrated) / integratedScale}
		threshold[i] = plotter.XY{X: x, Y: float64(tp.Threshold) / integratedScale}
		if tp.Beat && i > 0 {
			// the confirmed peak is one sample behind the confirming tick
			beats = append(beats, plotter.XY{X: float64(tp.Tick-1) / qrs.SampleRate, Y: integrated[i-1].Y})
		}
	}

	series := []struct {
		name  string
		pts   plotter.XYs
		color color.Color
	}{
		{"raw - 2048", raw, rawColor},
		{"band-passed", filtered, filteredColor},
		{"integrated / 4000", integrated, integratedColor},
		{"threshold / 4000", threshold, thresholdColor},
	}
	for _, s := range series {
		l, err := plotter.NewLine(s.pts)
		if err != nil {
			return fmt.Errorf("create %s line: %w", s.name, err)
		}
		l.Color = s.color
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(s.name, l)
	}

	if len(beats) > 0 {
		sc, err := plotter.NewScatter(beats)
		if err != nil {
			return fmt.Errorf("create beat markers: %w", err)
		}
		sc.GlyphStyle.Color = beatColor
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add("beat", sc)
	}
	p.Add(plotter.NewGrid())

	w, h := opts.Width, opts.Height
	if w == 0 {
		w = 14 * vg.Inch
	}
	if h == 0 {
		h = 6 * vg.Inch
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
