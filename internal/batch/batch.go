// Package batch runs the page-decision engine over a directory of scans,
// writes the cropped pages into a session workspace and records every
// decision in a split report.
package batch

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/x956606865/reiChan-sub000/internal/core"
	"github.com/x956606865/reiChan-sub000/internal/edgetex"
	imgio "github.com/x956606865/reiChan-sub000/internal/io"
	"github.com/x956606865/reiChan-sub000/internal/report"
)

// DefaultWorkerCap bounds the worker pool when the request sets no cap.
const DefaultWorkerCap = 8

// Request describes one batch run.
type Request struct {
	Directory string
	DryRun    bool
	Overwrite bool
	// Thresholds and Edge override the engine defaults when non-nil.
	Thresholds *core.Thresholds
	Edge       *edgetex.Config
	Directive  edgetex.Directive
	// Workers caps the pool size; zero means DefaultWorkerCap.
	Workers int
}

// Stage is the phase a progress event belongs to.
type Stage string

const (
	StageInitializing Stage = "initializing"
	StageProcessing   Stage = "processing"
	StageCompleted    Stage = "completed"
)

// Progress is emitted once when the run starts, once per file in input
// order and once when the run completes.
type Progress struct {
	Stage          Stage
	TotalFiles     int
	ProcessedFiles int
	CurrentFile    string
	Mode           report.SplitMode
}

// Outcome summarizes a finished run.
type Outcome struct {
	Workspace      string
	ReportPath     string
	Reused         bool
	AnalyzedFiles  int
	SplitPages     int
	CoverTrims     int
	FallbackSplits int
	Skipped        int
	EmittedFiles   int
	Warnings       []string
	Items          []report.Item
}

// Runner executes batch requests.
type Runner struct {
	logger logrus.FieldLogger
	loader *imgio.ImageLoader
	now    func() time.Time
}

func NewRunner(logger logrus.FieldLogger) *Runner {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Runner{
		logger: logger,
		loader: imgio.NewImageLoader(logger),
		now:    time.Now,
	}
}

// fileResult is what a worker publishes for one input file.
type fileResult struct {
	item    report.Item
	warning string
	emitted int
}

// Run processes every image below req.Directory. Per-file failures become
// skipped items with a warning; only workspace and report failures abort.
func (r *Runner) Run(req Request, onProgress func(Progress)) (*Outcome, error) {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	root, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, &Error{Kind: ErrDirectoryNotFound, Path: req.Directory, Err: err}
	}
	files, err := CollectImages(root)
	if err != nil {
		return nil, err
	}

	thresholds := core.DefaultThresholds()
	if req.Thresholds != nil {
		thresholds = *req.Thresholds
	}
	edgeCfg := edgetex.DefaultConfig()
	if req.Edge != nil {
		edgeCfg = *req.Edge
	}
	engine := core.NewEngine(thresholds, edgeCfg, req.Directive, r.logger)

	total := len(files)
	onProgress(Progress{Stage: StageInitializing, TotalFiles: total})

	outcome := &Outcome{AnalyzedFiles: total}
	if !req.DryRun {
		outcome.Workspace = SessionDir(root, r.now())
		outcome.Reused, err = prepareWorkspace(outcome.Workspace, req.Overwrite)
		if err != nil {
			return nil, err
		}
	}

	workers := workerCount(total, req.Workers)
	r.logger.WithFields(logrus.Fields{
		"directory": root,
		"files":     total,
		"workers":   workers,
		"dry_run":   req.DryRun,
	}).Info("Starting batch split")

	buf := newOrderedBuffer[fileResult]()
	var cursor atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1) - 1)
				if i >= total {
					return
				}
				buf.Put(i, r.processFile(engine, root, outcome.Workspace, files[i], req.DryRun))
			}
		}()
	}

	items := make([]report.Item, 0, total)
	for i := 0; i < total; i++ {
		res := buf.Take(i)
		items = append(items, res.item)
		outcome.tally(res)
		onProgress(Progress{
			Stage:          StageProcessing,
			TotalFiles:     total,
			ProcessedFiles: i + 1,
			CurrentFile:    files[i],
			Mode:           res.item.Mode,
		})
	}
	wg.Wait()
	outcome.Items = items

	if !req.DryRun {
		rep := report.New(r.now())
		rep.Items = items
		outcome.ReportPath = filepath.Join(outcome.Workspace, report.FileName)
		if err := rep.Save(outcome.ReportPath); err != nil {
			return nil, &Error{Kind: ErrReport, Path: outcome.ReportPath, Err: err}
		}
	}

	onProgress(Progress{Stage: StageCompleted, TotalFiles: total, ProcessedFiles: total})
	r.logger.WithFields(logrus.Fields{
		"split":     outcome.SplitPages,
		"cover":     outcome.CoverTrims,
		"fallback":  outcome.FallbackSplits,
		"skipped":   outcome.Skipped,
		"emitted":   outcome.EmittedFiles,
		"warnings":  len(outcome.Warnings),
		"workspace": outcome.Workspace,
	}).Info("Batch split completed")
	return outcome, nil
}

func (o *Outcome) tally(res fileResult) {
	switch res.item.Mode {
	case report.ModeSplit:
		o.SplitPages++
	case report.ModeFallbackCenter:
		o.FallbackSplits++
	case report.ModeCoverTrim:
		o.CoverTrims++
	default:
		o.Skipped++
	}
	o.EmittedFiles += res.emitted
	if res.warning != "" {
		o.Warnings = append(o.Warnings, res.warning)
	}
}

// workerCount is min(available parallelism, files, cap).
func workerCount(files, limit int) int {
	if limit <= 0 {
		limit = DefaultWorkerCap
	}
	n := runtime.NumCPU()
	if files < n {
		n = files
	}
	if limit < n {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return n
}

// processFile decodes, classifies and writes one page.
func (r *Runner) processFile(engine *core.Engine, root, workspace, source string, dryRun bool) fileResult {
	log := r.logger.WithField("source", source)

	mat, err := r.loader.LoadImage(source)
	if err != nil {
		log.WithError(err).Warn("Failed to decode image")
		return r.skipResult(root, workspace, source, core.ReasonDecodeError, err, dryRun)
	}
	page, err := core.NewPage(mat, source)
	if err != nil {
		mat.Close()
		log.WithError(err).Warn("Invalid image")
		return r.skipResult(root, workspace, source, core.ReasonDecodeError, err, dryRun)
	}
	defer page.Close()

	decision := engine.Process(page)
	res := fileResult{item: report.Item{
		Source:   source,
		Outputs:  []string{},
		Metadata: decision.Metadata(),
	}}

	switch d := decision.(type) {
	case *core.Skip:
		res.item.Mode = report.ModeSkip
		if v, ok := d.Meta["contentWidthRatio"].(float64); ok {
			res.item.ContentWidthRatio = float32(v)
		}
		if !dryRun {
			out := outputPath(workspace, root, source, "")
			if err := imgio.CopyFile(source, out); err != nil {
				return r.writeFailure(res, source, err)
			}
			res.item.Outputs = append(res.item.Outputs, out)
		}

	case *core.CoverTrim:
		res.item.Mode = report.ModeCoverTrim
		res.item.Confidence = 1
		res.item.ContentWidthRatio = float32(d.ContentWidthRatio)
		res.emitted = 1
		if !dryRun {
			out := outputPath(workspace, root, source, "_cover")
			if err := r.writeCrop(page, d.Crop, out); err != nil {
				return r.writeFailure(res, source, err)
			}
			res.item.Outputs = append(res.item.Outputs, out)
		}

	case *core.Split:
		res.item.Mode = report.ModeSplit
		if d.Fallback {
			res.item.Mode = report.ModeFallbackCenter
		}
		x := d.SplitX
		res.item.SplitX = &x
		res.item.Confidence = float32(d.Confidence)
		res.item.ContentWidthRatio = float32(d.ContentWidthRatio)
		res.emitted = 2
		if !dryRun {
			right := outputPath(workspace, root, source, "_R")
			left := outputPath(workspace, root, source, "_L")
			if err := r.writeCrop(page, d.Right, right); err != nil {
				return r.writeFailure(res, source, err)
			}
			res.item.Outputs = append(res.item.Outputs, right)
			if err := r.writeCrop(page, d.Left, left); err != nil {
				return r.writeFailure(res, source, err)
			}
			res.item.Outputs = append(res.item.Outputs, left)
		}
	}

	log.WithFields(logrus.Fields{
		"mode":       res.item.Mode,
		"confidence": res.item.Confidence,
	}).Debug("Page processed")
	return res
}

func (r *Runner) writeCrop(page *core.Page, rect image.Rectangle, path string) error {
	crop := core.Crop(page.Color(), rect)
	defer crop.Close()
	return r.loader.SaveImage(crop, path)
}

// skipResult records a page that could not be analyzed. The source is
// still copied so the workspace mirrors the input.
func (r *Runner) skipResult(root, workspace, source, reason string, cause error, dryRun bool) fileResult {
	res := fileResult{
		item: report.Item{
			Source:  source,
			Mode:    report.ModeSkip,
			Outputs: []string{},
			Metadata: map[string]any{
				"reason":    reason,
				"splitMode": string(report.ModeSkip),
				"error":     cause.Error(),
			},
		},
		warning: fmt.Sprintf("%s: %v", source, cause),
	}
	if !dryRun {
		out := outputPath(workspace, root, source, "")
		if err := imgio.CopyFile(source, out); err != nil {
			res.warning = fmt.Sprintf("%s: %v (copy failed: %v)", source, cause, err)
			return res
		}
		res.item.Outputs = append(res.item.Outputs, out)
	}
	return res
}

// writeFailure turns a page whose outputs could not be written into a
// skipped item and removes whatever was written for it.
func (r *Runner) writeFailure(res fileResult, source string, err error) fileResult {
	r.logger.WithError(err).WithField("source", source).Warn("Failed to write outputs")
	for _, out := range res.item.Outputs {
		_ = os.Remove(out)
	}
	res.item.Outputs = []string{}
	res.item.Mode = report.ModeSkip
	res.item.SplitX = nil
	res.item.Metadata["writeError"] = err.Error()
	res.emitted = 0
	res.warning = fmt.Sprintf("%s: %v", source, err)
	return res
}
