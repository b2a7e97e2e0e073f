package edgetex

import (
	"math"
)

const epsilon = 1e-5

// Region is a run of columns. EndX is inclusive.
type Region struct {
	StartX     int     `json:"startX"`
	EndX       int     `json:"endX"`
	MeanScore  float32 `json:"meanScore"`
	Confidence float32 `json:"confidence"`
}

// Width is the number of columns in the run.
func (r Region) Width() int { return r.EndX - r.StartX + 1 }

// Notes records the search boundaries and thresholds an outcome used.
type Notes struct {
	LeftLimit            int        `json:"leftLimit"`
	RightStart           int        `json:"rightStart"`
	CenterStart          int        `json:"centerStart"`
	CenterEnd            int        `json:"centerEnd"`
	MinMarginWidth       int        `json:"minMarginWidth"`
	CenterMaxWidth       int        `json:"centerMaxWidth"`
	WhiteThreshold       float32    `json:"whiteThreshold"`
	BrightnessThresholds [2]float32 `json:"brightnessThresholds"`
	BrightnessWeight     float32    `json:"brightnessWeight"`
	DualBrightness       bool       `json:"dualBrightness"`
}

// Outcome is the result of analyzing one image.
type Outcome struct {
	SplitX      *int
	Confidence  float32
	LeftMargin  *Region
	RightMargin *Region
	CenterBand  *Region

	GradMean      []float32
	GradVariance  []float32
	Entropy       []float32
	MeanIntensity []float32
	WhiteScore    []float32

	Notes       Notes
	Accelerator Accelerator
}

type direction int

const (
	fromLeft direction = iota
	fromRight
)

// brightness classes for the dual-brightness predicate
type brightness int

const (
	neutral brightness = iota
	bright
	dark
)

// Evaluate turns column metrics into an outcome: white score, margins,
// center band and the candidate split column.
func Evaluate(cols *Columns, cfg Config) *Outcome {
	w := cols.Width
	out := &Outcome{
		GradMean:      cols.GradMean,
		GradVariance:  cols.GradVariance,
		Entropy:       cols.Entropy,
		MeanIntensity: cols.MeanIntensity,
		WhiteScore:    WhiteScore(cols, cfg.ScoreWeights),
	}
	out.Notes = searchNotes(w, cfg)
	if w == 0 {
		return out
	}

	a := analysis{cfg: cfg, score: out.WhiteScore, intensity: cols.MeanIntensity, notes: out.Notes}
	out.LeftMargin = a.findMargin(fromLeft)
	out.RightMargin = a.findMargin(fromRight)
	out.CenterBand = a.findCenterBand()

	if out.CenterBand != nil {
		mid := (out.CenterBand.StartX + out.CenterBand.EndX) / 2
		out.SplitX = &mid
	}
	out.Confidence = combineConfidence(out.LeftMargin, out.RightMargin, out.CenterBand)
	return out
}

// WhiteScore combines the inverted, min-max normalized gradient mean,
// gradient variance and entropy into a per-column score in [0, 1].
func WhiteScore(cols *Columns, weights [3]float32) []float32 {
	gm := normalize(cols.GradMean)
	gv := normalize(cols.GradVariance)
	en := normalize(cols.Entropy)
	score := make([]float32, cols.Width)
	for x := range score {
		s := weights[0]*(1-gm[x]) + weights[1]*(1-gv[x]) + weights[2]*(1-en[x])
		score[x] = clamp01(s)
	}
	return score
}

func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	if len(v) == 0 {
		return out
	}
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	rng := hi - lo
	if rng <= epsilon {
		return out
	}
	for i, x := range v {
		out[i] = (x - lo) / rng
	}
	return out
}

func searchNotes(w int, cfg Config) Notes {
	n := Notes{
		WhiteThreshold:       cfg.WhiteThreshold,
		BrightnessThresholds: cfg.BrightnessThresholds,
		BrightnessWeight:     cfg.BrightnessWeight,
		DualBrightness:       cfg.EnableDualBrightness,
	}
	if w == 0 {
		return n
	}
	fw := float64(w)

	n.LeftLimit = clampInt(int(math.Floor(fw*float64(cfg.LeftSearchRatio))), 1, w)
	n.RightStart = w - int(math.Floor(fw*float64(cfg.RightSearchRatio)))
	n.RightStart = clampInt(n.RightStart, 0, w-1)

	half := fw * float64(cfg.CenterSearchRatio) / 2
	center := fw / 2
	n.CenterStart = clampInt(int(math.Floor(center-half)), 0, w)
	n.CenterEnd = clampInt(int(math.Ceil(center+half)), n.CenterStart, w)

	n.MinMarginWidth = max(3, int(math.Floor(fw*float64(cfg.MinMarginRatio))))
	n.CenterMaxWidth = max(3, int(math.Floor(fw*float64(cfg.CenterMaxRatio))))
	return n
}

type analysis struct {
	cfg       Config
	score     []float32
	intensity []float32
	notes     Notes
}

func (a analysis) classify(v float32) brightness {
	switch {
	case v >= a.cfg.BrightMin():
		return bright
	case v <= a.cfg.DarkMax():
		return dark
	default:
		return neutral
	}
}

func (a analysis) brightnessConfidence(v float32) float32 {
	switch a.classify(v) {
	case bright:
		den := 255 - a.cfg.BrightMin()
		if den <= 0 {
			return 1
		}
		return clamp01((v - a.cfg.BrightMin()) / den)
	case dark:
		if a.cfg.DarkMax() <= 0 {
			return 1
		}
		return clamp01((a.cfg.DarkMax() - v) / a.cfg.DarkMax())
	default:
		return 0
	}
}

func (a analysis) passes(x int) bool {
	if a.score[x] > a.cfg.WhiteThreshold {
		return false
	}
	if !a.cfg.EnableDualBrightness {
		return true
	}
	return a.classify(a.intensity[x]) != neutral
}

// findMargin walks inward from one edge and evaluates the run of passing
// columns anchored at that edge. A failing edge column means no margin.
func (a analysis) findMargin(dir direction) *Region {
	w := len(a.score)
	var cols []int
	switch dir {
	case fromLeft:
		for x := 0; x < a.notes.LeftLimit; x++ {
			cols = append(cols, x)
		}
	case fromRight:
		for x := w - 1; x >= a.notes.RightStart; x-- {
			cols = append(cols, x)
		}
	}

	var run []int
	for _, x := range cols {
		if !a.passes(x) {
			break
		}
		run = append(run, x)
	}
	if len(run) == 0 || len(run) < a.notes.MinMarginWidth {
		return nil
	}
	return a.marginRegion(run)
}

func (a analysis) marginRegion(run []int) *Region {
	var scoreSum, brightSum float32
	start, end := run[0], run[0]
	for _, x := range run {
		scoreSum += a.score[x]
		if a.cfg.EnableDualBrightness {
			brightSum += a.brightnessConfidence(a.intensity[x])
		}
		start = min(start, x)
		end = max(end, x)
	}
	n := float32(len(run))
	mean := scoreSum / n
	conf := clamp01(1 - mean/(a.cfg.WhiteThreshold+epsilon))
	if a.cfg.EnableDualBrightness {
		bw := a.cfg.BrightnessWeight
		conf = clamp01((1-bw)*conf + bw*(brightSum/n))
	}
	return &Region{StartX: start, EndX: end, MeanScore: mean, Confidence: conf}
}

// findCenterBand picks the most confident narrow run of low-score columns
// inside the center search window. Ties keep the first run seen.
func (a analysis) findCenterBand() *Region {
	var best *Region
	consider := func(start, end int) {
		width := end - start
		if width <= 0 || width > a.notes.CenterMaxWidth {
			return
		}
		var sum float32
		for x := start; x < end; x++ {
			sum += a.score[x]
		}
		mean := sum / float32(width)
		conf := clamp01(1 - mean/(a.cfg.WhiteThreshold+epsilon))
		if best == nil || conf > best.Confidence {
			best = &Region{StartX: start, EndX: end - 1, MeanScore: mean, Confidence: conf}
		}
	}

	runStart := -1
	for x := a.notes.CenterStart; x < a.notes.CenterEnd; x++ {
		if a.score[x] <= a.cfg.WhiteThreshold {
			if runStart < 0 {
				runStart = x
			}
			continue
		}
		if runStart >= 0 {
			consider(runStart, x)
			runStart = -1
		}
	}
	if runStart >= 0 {
		consider(runStart, a.notes.CenterEnd)
	}
	return best
}

func combineConfidence(left, right, center *Region) float32 {
	switch {
	case center != nil && left != nil && right != nil:
		return clamp01(center.Confidence * (left.Confidence + right.Confidence) / 2)
	case center != nil:
		return clamp01(center.Confidence)
	case left != nil && right != nil:
		return clamp01((left.Confidence + right.Confidence) / 2)
	case left != nil:
		return clamp01(left.Confidence)
	case right != nil:
		return clamp01(right.Confidence)
	default:
		return 0
	}
}

func clamp01(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
