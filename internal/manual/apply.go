package manual

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/x956606865/reiChan-sub000/internal/core"
	"github.com/x956606865/reiChan-sub000/internal/edgetex"
	"github.com/x956606865/reiChan-sub000/internal/report"
)

// Override is the user's correction for one source image.
type Override struct {
	Source        string     `json:"source"`
	Lines         [4]float32 `json:"lines"`
	ImageKind     ImageKind  `json:"imageKind"`
	Rotate90      bool       `json:"rotate90"`
	GutterRatio   *float32   `json:"gutterRatio,omitempty"`
	Locked        bool       `json:"locked"`
	ThumbnailPath string     `json:"thumbnailPath,omitempty"`
}

// ApplyRequest applies overrides to a workspace. Directive ForceCPU skips
// the GPU probe.
type ApplyRequest struct {
	Workspace string
	Overrides []Override
	Directive edgetex.Directive
}

// ApplyProgress reports how many overrides have been handled.
type ApplyProgress struct {
	Total     int
	Completed int
	Current   string
}

// ApplyResult summarizes an apply.
type ApplyResult struct {
	Workspace      string
	Total          int
	Applied        int
	Skipped        int
	SkippedSources []string
	Entries        []ReportEntry
	CanRevert      bool
	ManifestPath   string
}

// Apply writes the crops for every override and updates the workspace
// documents. Either every file is written and a revert manifest recorded,
// or the workspace is restored and the error returned.
func (s *Service) Apply(req ApplyRequest, onProgress func(ApplyProgress)) (*ApplyResult, error) {
	if onProgress == nil {
		onProgress = func(ApplyProgress) {}
	}
	root, err := canonical(req.Workspace)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSplitReportMissing, req.Workspace)
	}
	l := layout{root: root}
	if !exists(l.splitReport()) {
		return nil, fmt.Errorf("%w: %s", ErrSplitReportMissing, root)
	}
	if len(req.Overrides) == 0 {
		return nil, ErrNoOverrides
	}

	overrides, err := dedupe(req.Overrides)
	if err != nil {
		return nil, err
	}
	total := len(overrides)
	onProgress(ApplyProgress{Total: total})

	var previous *Manifest
	if exists(l.manifest()) {
		var m Manifest
		if err := report.ReadJSON(l.manifest(), &m); err == nil {
			previous = &m
		}
	}
	keep := ""
	if previous != nil {
		keep = previous.BackupDir
	}

	log := s.logger.WithField("workspace", root)
	tx, err := begin(l, stamp(s.now()), keep, s.loader, log)
	if err != nil {
		return nil, err
	}

	ov, err := loadOverrides(l.overrides())
	if err != nil {
		tx.rollback()
		return nil, err
	}
	rep, err := report.Load(l.splitReport())
	if err != nil {
		tx.rollback()
		return nil, err
	}

	var accel edgetex.Accelerator
	accelerator := func() edgetex.Accelerator {
		if accel == "" {
			accel = edgetex.ResolveAccelerator(req.Directive)
			log.WithField("accelerator", accel).Debug("Accelerator selected")
		}
		return accel
	}

	result := &ApplyResult{Workspace: root, Total: total, Entries: []ReportEntry{}}
	for i, o := range overrides {
		mark := len(tx.created)
		entry, err := s.applyOne(tx, o, accelerator, ov, rep)
		if err != nil {
			log.WithError(err).WithField("source", o.Source).Error("Manual apply failed")
			tx.dropCreatedSince(mark)
			tx.rollback()
			return nil, err
		}
		if entry == nil {
			result.Skipped++
			result.SkippedSources = append(result.SkippedSources, o.Source)
		} else {
			result.Applied++
			result.Entries = append(result.Entries, *entry)
		}
		onProgress(ApplyProgress{Total: total, Completed: i + 1, Current: o.Source})
	}

	now := report.Timestamp(s.now())
	ov.Version = overridesVersion
	ov.UpdatedAt = now
	rep.GeneratedAt = now
	manualReport := &Report{
		Version:     reportVersion,
		GeneratedAt: now,
		Total:       total,
		Applied:     result.Applied,
		Skipped:     result.Skipped,
		Entries:     result.Entries,
	}
	for _, write := range []func() error{
		func() error { return report.WriteJSON(l.overrides(), ov) },
		func() error { return rep.Save(l.splitReport()) },
		func() error { return report.WriteJSON(l.manualReport(), manualReport) },
	} {
		if err := write(); err != nil {
			tx.rollback()
			return nil, err
		}
	}

	if result.Applied == 0 {
		tx.discard()
		onProgress(ApplyProgress{Total: total, Completed: total})
		return result, nil
	}

	if err := report.WriteJSON(l.manifest(), tx.manifest(root, now)); err != nil {
		tx.rollback()
		return nil, err
	}
	if previous != nil && previous.BackupDir != "" && previous.BackupDir != tx.dir {
		if err := os.RemoveAll(previous.BackupDir); err != nil {
			log.WithError(err).Warn("Failed to remove previous backup directory")
		}
	}
	result.CanRevert = true
	result.ManifestPath = l.manifest()

	log.WithFields(logrus.Fields{
		"applied": result.Applied,
		"skipped": result.Skipped,
	}).Info("Manual splits applied")
	onProgress(ApplyProgress{Total: total, Completed: total})
	return result, nil
}

// dedupe canonicalizes sources and keeps the first override per source.
func dedupe(in []Override) ([]Override, error) {
	seen := make(map[string]bool, len(in))
	out := make([]Override, 0, len(in))
	for _, o := range in {
		c, err := canonical(o.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, o.Source)
		}
		if info, err := os.Stat(c); err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, o.Source)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		o.Source = c
		kind, err := ParseImageKind(string(o.ImageKind))
		if err != nil {
			return nil, err
		}
		o.ImageKind = kind
		out = append(out, o)
	}
	return out, nil
}

// applyOne writes the crops of one override. A nil entry with a nil error
// means the override was skipped.
func (s *Service) applyOne(tx *transaction, o Override, accelerator func() edgetex.Accelerator, ov *Overrides, rep *report.SplitReport) (*ReportEntry, error) {
	start := time.Now()
	log := s.logger.WithField("source", o.Source)

	mat, err := s.loader.LoadImage(o.Source)
	if err != nil {
		log.WithError(err).Warn("Skipping override: decode failed")
		return nil, nil
	}
	defer mat.Close()
	w, h := mat.Cols(), mat.Rows()
	if w == 0 || h == 0 {
		log.Warn("Skipping override: empty image")
		return nil, nil
	}

	ratios, px := NormalizeLines(o.Lines, w)
	stem, ext := splitExt(o.Source)
	root := tx.l.root
	manualDir := tx.l.manualDir()

	var (
		outputs []string
		gutter  *float32
		rotate  bool
		splitX  *int
	)

	switch o.ImageKind {
	case KindContent:
		right, left, ok := contentCrops(px, h)
		if !ok {
			log.WithField("pixels", px).Warn("Skipping override: empty page after normalization")
			return nil, nil
		}
		rootR := filepath.Join(root, stem+"_R"+ext)
		rootL := filepath.Join(root, stem+"_L"+ext)
		manR := filepath.Join(manualDir, stem+"_manual_R"+ext)
		manL := filepath.Join(manualDir, stem+"_manual_L"+ext)

		if err := s.writeCrop(tx, mat, left, false, manL); err != nil {
			return nil, fmt.Errorf("write %s: %w", manL, err)
		}
		if err := s.writeCrop(tx, mat, right, false, manR); err != nil {
			return nil, fmt.Errorf("write %s: %w", manR, err)
		}
		if err := tx.copy(manR, rootR); err != nil {
			return nil, err
		}
		if err := tx.copy(manL, rootL); err != nil {
			return nil, err
		}
		outputs = []string{rootR, rootL}
		if px[RightPageStart] > px[LeftPageEnd] {
			g := float32(px[RightPageStart]-px[LeftPageEnd]) / float32(w)
			gutter = &g
		}
		x := px[RightPageStart]
		splitX = &x

	case KindCover, KindSpread:
		rect, adjusted, ok := singleCrop(px, w, h)
		if !ok {
			log.WithField("pixels", px).Warn("Skipping override: empty crop after normalization")
			return nil, nil
		}
		px = adjusted
		rotate = o.ImageKind == KindSpread && o.Rotate90
		suffix := "_" + string(o.ImageKind)
		rootP := filepath.Join(root, stem+suffix+ext)
		manP := filepath.Join(manualDir, stem+"_manual"+suffix+ext)

		if err := s.writeCrop(tx, mat, rect, rotate, manP); err != nil {
			return nil, fmt.Errorf("write %s: %w", manP, err)
		}
		if err := tx.copy(manP, rootP); err != nil {
			return nil, err
		}
		outputs = []string{rootP}
		gutter = o.GutterRatio

	default:
		return nil, fmt.Errorf("unknown image kind %q", o.ImageKind)
	}

	appliedAt := report.Timestamp(s.now())
	accel := string(accelerator())
	pixels := px

	ov.replace(OverrideEntry{
		Source:        o.Source,
		Width:         w,
		Height:        h,
		Lines:         ratios,
		Pixels:        &pixels,
		GutterRatio:   gutter,
		Accelerator:   accel,
		Locked:        o.Locked,
		LastAppliedAt: appliedAt,
		Outputs:       outputs,
		ImageKind:     o.ImageKind,
		Rotate90:      rotate,
		ThumbnailPath: o.ThumbnailPath,
	})

	percentages := make([]float32, len(ratios))
	for i, r := range ratios {
		percentages[i] = r * 100
	}
	rep.Upsert(report.Item{
		Source:            o.Source,
		Mode:              report.ModeManual,
		SplitX:            splitX,
		Confidence:        1,
		ContentWidthRatio: float32(px[RightTrim]-px[LeftTrim]) / float32(w),
		Outputs:           outputs,
		Metadata: map[string]any{
			"manualLines":       pixels,
			"manualPercentages": percentages,
			"manualSource":      "user",
			"manualAppliedAt":   appliedAt,
			"manualAccelerator": accel,
			"splitMode":         string(report.ModeManual),
			"manualImageKind":   string(o.ImageKind),
			"manualRotate90":    rotate,
		},
	})

	log.WithFields(logrus.Fields{
		"kind":        o.ImageKind,
		"pixels":      px,
		"accelerator": accel,
	}).Debug("Override applied")

	return &ReportEntry{
		Source:      o.Source,
		Outputs:     outputs,
		Lines:       ratios,
		Pixels:      pixels,
		GutterRatio: gutter,
		Accelerator: accel,
		Width:       w,
		Height:      h,
		AppliedAt:   appliedAt,
		DurationMS:  time.Since(start).Milliseconds(),
		ImageKind:   o.ImageKind,
		Rotate90:    rotate,
	}, nil
}

func (s *Service) writeCrop(tx *transaction, src gocv.Mat, rect image.Rectangle, rotate bool, path string) error {
	crop := core.Crop(src, rect)
	defer crop.Close()
	if !rotate {
		return tx.save(crop, path)
	}
	rotated := gocv.NewMat()
	defer rotated.Close()
	gocv.Rotate(crop, &rotated, gocv.Rotate90Clockwise)
	return tx.save(rotated, path)
}
