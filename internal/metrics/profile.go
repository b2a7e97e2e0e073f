package metrics

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"

	"github.com/x956606865/reiChan-sub000/internal/edgetex"
)

const (
	profileWidth  = 1920
	profileHeight = 1080
)

func createLine(xvalues []float64, y float64, c drawing.Color, name string) chart.ContinuousSeries {
	yvalues := make([]float64, len(xvalues))
	for i := range yvalues {
		yvalues[i] = y
	}
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xvalues,
		YValues: yvalues,
		Style: chart.Style{
			StrokeColor:     c,
			StrokeDashArray: []float64{5.0, 5.0},
		},
	}
}

func series(name string, xvalues []float64, v []float32, normalize bool, c drawing.Color) chart.ContinuousSeries {
	yvalues := make([]float64, len(v))
	for i, f := range v {
		yvalues[i] = float64(f)
	}
	if normalize && len(yvalues) > 0 {
		lo, hi := floats.Min(yvalues), floats.Max(yvalues)
		if hi-lo > 1e-5 {
			floats.AddConst(-lo, yvalues)
			floats.Scale(1/(hi-lo), yvalues)
		} else {
			for i := range yvalues {
				yvalues[i] = 0
			}
		}
	}
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xvalues,
		YValues: yvalues,
		Style: chart.Style{
			StrokeColor: c,
			StrokeWidth: 1,
		},
	}
}

// RenderProfile draws the white score and the normalized column metrics of
// an outcome as a PNG. The white threshold and the chosen split column are
// marked.
func RenderProfile(out *edgetex.Outcome, title string, w io.Writer) error {
	n := len(out.WhiteScore)
	if n == 0 {
		return fmt.Errorf("no columns to plot")
	}
	xvalues := make([]float64, n)
	for i := range xvalues {
		xvalues[i] = float64(i)
	}

	all := []chart.Series{
		series("white score", xvalues, out.WhiteScore, false, chart.ColorBlue),
		series("gradient mean", xvalues, out.GradMean, true, chart.ColorOrange),
		series("gradient variance", xvalues, out.GradVariance, true, chart.ColorAlternateGreen),
		series("entropy", xvalues, out.Entropy, true, chart.ColorAlternateGray),
		createLine(xvalues, float64(out.Notes.WhiteThreshold), chart.ColorRed, "white threshold"),
	}
	if out.SplitX != nil {
		x := float64(*out.SplitX)
		all = append(all, chart.ContinuousSeries{
			Name:    fmt.Sprintf("split %d", *out.SplitX),
			XValues: []float64{x, x},
			YValues: []float64{0, 1},
			Style: chart.Style{
				StrokeColor: chart.ColorBlack,
				StrokeWidth: 2,
			},
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  profileWidth,
		Height: profileHeight,
		XAxis: chart.XAxis{
			Name: "Column",
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: float64(n - 1),
			},
		},
		YAxis: chart.YAxis{
			Name: "Score",
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: 1,
			},
		},
		Series: all,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}
