// Agreement checks between edge-texture backends
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
	"github.com/x956606865/reiChan-sub000/internal/edgetex"
)

// Quantity is one vector two backends must agree on.
type Quantity struct {
	Name      string
	Tolerance float64
	// Trace marks quantities that are only present when a trace was
	// requested.
	Trace   bool
	Extract func(*edgetex.Columns) []float32
}

// Evaluator compares backend outputs quantity by quantity.
type Evaluator struct {
	quantities map[string]Quantity
}

// NewEvaluator creates an evaluator with the default tolerances.
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		quantities: make(map[string]Quantity),
	}
	e.RegisterDefaultQuantities()
	return e
}

// RegisterDefaultQuantities registers the kernel outputs with their
// maximum absolute error.
func (e *Evaluator) RegisterDefaultQuantities() {
	e.Register(Quantity{Name: "gamma", Tolerance: 1e-4, Trace: true, Extract: func(c *edgetex.Columns) []float32 { return c.Trace.Gamma }})
	e.Register(Quantity{Name: "gaussian", Tolerance: 1e-4, Trace: true, Extract: func(c *edgetex.Columns) []float32 { return c.Trace.Blurred }})
	e.Register(Quantity{Name: "gradient_magnitude", Tolerance: 2e-4, Trace: true, Extract: func(c *edgetex.Columns) []float32 { return c.Trace.Gradient }})
	e.Register(Quantity{Name: "mean_intensity", Tolerance: 1e-4, Extract: func(c *edgetex.Columns) []float32 { return c.MeanIntensity }})
	e.Register(Quantity{Name: "grad_mean", Tolerance: 1e-4, Extract: func(c *edgetex.Columns) []float32 { return c.GradMean }})
	e.Register(Quantity{Name: "grad_variance", Tolerance: 2e-2, Extract: func(c *edgetex.Columns) []float32 { return c.GradVariance }})
	e.Register(Quantity{Name: "entropy", Tolerance: 1e-3, Extract: func(c *edgetex.Columns) []float32 { return c.Entropy }})
}

// Register adds or replaces a quantity.
func (e *Evaluator) Register(q Quantity) {
	e.quantities[q.Name] = q
}

// Tolerance returns the tolerance registered for name.
func (e *Evaluator) Tolerance(name string) (float64, bool) {
	q, ok := e.quantities[name]
	return q.Tolerance, ok
}

// Agreement is the comparison of one quantity.
type Agreement struct {
	Name         string  `json:"name"`
	MaxAbsError  float64 `json:"max_abs_error"`
	MeanAbsError float64 `json:"mean_abs_error"`
	StdDev       float64 `json:"std_dev"`
	Worst        int     `json:"worst_index"`
	Tolerance    float64 `json:"tolerance"`
	Within       bool    `json:"within"`
}

// AgreementReport collects the comparisons of two backend runs.
type AgreementReport struct {
	Reference  string      `json:"reference"`
	Candidate  string      `json:"candidate"`
	Quantities []Agreement `json:"quantities"`
	Agree      bool        `json:"agree"`
	Timestamp  string      `json:"timestamp"`
}

// Failures lists the quantities outside tolerance.
func (r *AgreementReport) Failures() []string {
	var out []string
	for _, q := range r.Quantities {
		if !q.Within {
			out = append(out, q.Name)
		}
	}
	return out
}

// Compare checks candidate against reference. Trace quantities are only
// compared when both runs carry a trace.
func (e *Evaluator) Compare(reference, candidate *edgetex.Columns) (*AgreementReport, error) {
	if reference.Width != candidate.Width {
		return nil, fmt.Errorf("%w: widths %d and %d", edgetex.ErrLengthMismatch, reference.Width, candidate.Width)
	}
	names := make([]string, 0, len(e.quantities))
	for name := range e.quantities {
		names = append(names, name)
	}
	sort.Strings(names)

	report := &AgreementReport{Agree: true, Timestamp: time.Now().Format("2006-01-02 15:04:05")}
	for _, name := range names {
		q := e.quantities[name]
		if q.Trace && (reference.Trace == nil || candidate.Trace == nil) {
			continue
		}
		a, err := compareVectors(q, q.Extract(reference), q.Extract(candidate))
		if err != nil {
			return nil, err
		}
		report.Quantities = append(report.Quantities, a)
		report.Agree = report.Agree && a.Within
	}
	return report, nil
}

// Measure runs both backends with traces on luma and compares them.
func (e *Evaluator) Measure(reference, candidate edgetex.Backend, luma *algorithms.Surface, cfg edgetex.Config) (*AgreementReport, error) {
	ref, err := reference.Compute(luma, cfg, true)
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", reference.Name(), err)
	}
	cand, err := candidate.Compute(luma, cfg, true)
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", candidate.Name(), err)
	}
	report, err := e.Compare(ref, cand)
	if err != nil {
		return nil, err
	}
	report.Reference = string(reference.Name())
	report.Candidate = string(candidate.Name())
	return report, nil
}

func compareVectors(q Quantity, ref, cand []float32) (Agreement, error) {
	if len(ref) != len(cand) {
		return Agreement{}, fmt.Errorf("%w: %s has %d and %d values", edgetex.ErrLengthMismatch, q.Name, len(ref), len(cand))
	}
	a := Agreement{Name: q.Name, Tolerance: q.Tolerance, Within: true}
	if len(ref) == 0 {
		return a, nil
	}
	diffs := make([]float64, len(ref))
	for i := range ref {
		diffs[i] = math.Abs(float64(ref[i]) - float64(cand[i]))
	}
	a.Worst = floats.MaxIdx(diffs)
	a.MaxAbsError = diffs[a.Worst]
	a.MeanAbsError, a.StdDev = stat.MeanStdDev(diffs, nil)
	if math.IsNaN(a.StdDev) {
		a.StdDev = 0
	}
	a.Within = a.MaxAbsError <= q.Tolerance
	return a, nil
}
