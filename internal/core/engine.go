// Page decision engine: skip, cover trim or spread split
package core

import (
	"image"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
	"github.com/x956606865/reiChan-sub000/internal/edgetex"
	"github.com/x956606865/reiChan-sub000/internal/projection"
	"github.com/x956606865/reiChan-sub000/internal/report"
)

// Split sources recorded under the splitSource metadata key.
const (
	SourceProjection = "projection"
	SourceCenter     = "center"
)

// Engine decides what to do with each page. It holds no per-image state
// and is safe for concurrent use.
type Engine struct {
	thresholds Thresholds
	edge       edgetex.Config
	directive  edgetex.Directive
	mask       algorithms.MaskParams
	logger     logrus.FieldLogger
}

// NewEngine creates a decision engine.
func NewEngine(thresholds Thresholds, edge edgetex.Config, directive edgetex.Directive, logger logrus.FieldLogger) *Engine {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Engine{
		thresholds: thresholds,
		edge:       edge,
		directive:  directive,
		mask:       algorithms.DefaultMaskParams(),
		logger:     logger,
	}
}

// Thresholds returns the engine's thresholds.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// Process classifies one page.
func (e *Engine) Process(page *Page) ProcessResult {
	t := e.thresholds
	w, h := page.Width(), page.Height()
	meta := map[string]any{}

	aspect := float64(w) / float64(h)
	meta["aspectRatio"] = aspect
	if w < h || aspect < t.MinAspectRatio {
		return skip(ReasonAspectRatio, meta)
	}

	mask, err := algorithms.BuildForegroundMask(page.Gray(), e.mask)
	if err != nil {
		e.logger.WithError(err).WithField("source", page.Source).Warn("Foreground mask failed")
		meta["error"] = err.Error()
		return skip(ReasonMaskError, meta)
	}

	ratio := mask.Ratio()
	meta["foregroundRatio"] = ratio
	bbox, ok := mask.Bounds()
	if !ok {
		return skip(ReasonNoForeground, meta)
	}
	meta["bbox"] = BoxMetadata(bbox)
	if ratio < t.MinForegroundRatio {
		return skip(ReasonNoForeground, meta)
	}

	contentWidth := float64(bbox.Dx()) / float64(w)
	bboxHeight := float64(bbox.Dy()) / float64(h)
	meta["contentWidthRatio"] = contentWidth
	meta["bboxHeightRatio"] = bboxHeight

	padX, padY := Padding(w, h, t.PaddingRatio)
	if contentWidth < t.CoverContentRatio && bboxHeight > t.CoverHeightRatio {
		meta["splitMode"] = string(report.ModeCoverTrim)
		return &CoverTrim{
			Crop:              PadAndClamp(bbox, padX, padY, w, h),
			ContentWidthRatio: contentWidth,
			Meta:              meta,
		}
	}

	edge := e.analyzeEdges(page, meta)

	proj := projection.Analyze(mask.Projection, t.EdgeExclusionRatio)
	if proj != nil {
		meta["projectionImbalance"] = proj.Imbalance
		meta["projectionEdgeMargin"] = proj.EdgeMargin
		meta["projectionTotalMass"] = proj.TotalMass
		meta["projectionConfidence"] = proj.Confidence
		meta["projectionSplitX"] = proj.SplitX
	}

	d := e.locateSplit(w, proj)
	if edge != nil && edge.SplitX != nil {
		meta["edgeOffset"] = *edge.SplitX - d.splitX
	}
	meta["splitX"] = d.splitX
	meta["confidence"] = d.confidence
	meta["splitClamped"] = d.clamped
	meta["splitSource"] = d.source
	if d.fallback {
		meta["splitMode"] = string(report.ModeFallbackCenter)
	} else {
		meta["splitMode"] = string(report.ModeSplit)
	}

	return &Split{
		Right:             halfCrop(mask, d.splitX, w, h, padX, padY),
		Left:              halfCrop(mask, 0, d.splitX, h, padX, padY),
		SplitX:            d.splitX,
		Confidence:        d.confidence,
		ContentWidthRatio: contentWidth,
		Fallback:          d.fallback,
		Meta:              meta,
	}
}

type splitDecision struct {
	splitX     int
	confidence float64
	fallback   bool
	clamped    bool
	source     string
}

// locateSplit applies the confidence gate and the center-bias clamp. A
// projection that is missing, unconfident or out of band falls back to the
// center; a clamped fallback carries zero confidence.
func (e *Engine) locateSplit(w int, proj *projection.Analysis) splitDecision {
	t := e.thresholds
	center := float64(w) / 2
	maxOffset := math.Max(1, float64(w)*t.MaxCenterOffsetRatio)

	d := splitDecision{splitX: w / 2, fallback: true, source: SourceCenter}
	if proj == nil {
		return d
	}
	if proj.Confidence < t.ConfidenceThreshold {
		d.confidence = proj.Confidence
		return d
	}
	candidate := clampInt(proj.SplitX, 1, w-1)
	if math.Abs(float64(candidate)-center) > maxOffset {
		d.clamped = true
		return d
	}
	return splitDecision{splitX: candidate, confidence: proj.Confidence, source: SourceProjection}
}

func (e *Engine) analyzeEdges(page *Page, meta map[string]any) *edgetex.Outcome {
	luma, err := algorithms.SurfaceFromMat(page.Gray())
	if err != nil {
		e.logger.WithError(err).WithField("source", page.Source).Warn("Edge analysis input invalid")
		return nil
	}
	out, err := edgetex.AnalyzeWithAcceleration(luma, e.edge, e.directive, e.logger)
	if err != nil {
		e.logger.WithError(err).WithField("source", page.Source).Warn("Edge analysis failed")
		return nil
	}
	meta["edgeConfidence"] = out.Confidence
	meta["edgeAccelerator"] = string(out.Accelerator)
	if out.SplitX != nil {
		meta["edgeSplitX"] = *out.SplitX
	}
	return out
}

// halfCrop pads the foreground envelope of columns [x0, x1). A half with no
// foreground keeps its full extent.
func halfCrop(mask *algorithms.ForegroundMask, x0, x1, h, padX, padY int) image.Rectangle {
	box, ok := mask.BoundsWithin(x0, x1)
	if !ok {
		return image.Rect(x0, 0, x1, h)
	}
	return PadAndClamp(box, padX, padY, mask.Width, mask.Height)
}

func skip(reason string, meta map[string]any) *Skip {
	meta["reason"] = reason
	meta["splitMode"] = string(report.ModeSkip)
	return &Skip{Reason: reason, Meta: meta}
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
