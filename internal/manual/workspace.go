package manual

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"github.com/sirupsen/logrus"

	imgio "github.com/x956606865/reiChan-sub000/internal/io"
	"github.com/x956606865/reiChan-sub000/internal/report"
)

// PrepareRequest selects the source folder and where its workspace lives.
// WorkspaceRoot defaults to <source>/split-manual.
type PrepareRequest struct {
	SourceDirectory string
	WorkspaceRoot   string
	Overwrite       bool
}

// Prepare opens the workspace for a source folder. An existing workspace is
// reused unless Overwrite is set; one that cannot be loaded is an error. A
// clean workspace gets a baseline split report and an empty override store.
// Overwrite only removes folders that carry the workspace layout.
func (s *Service) Prepare(req PrepareRequest) (*Context, error) {
	source, err := canonical(req.SourceDirectory)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, req.SourceDirectory)
	}
	if info, err := os.Stat(source); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceMissing, source)
	}

	workspace := req.WorkspaceRoot
	if workspace == "" {
		workspace = filepath.Join(source, DefaultWorkspaceName)
	}
	workspace, err = filepath.Abs(workspace)
	if err != nil {
		return nil, err
	}
	log := s.logger.WithFields(logrus.Fields{"source": source, "workspace": workspace})

	if encloses(workspace, source) {
		return nil, fmt.Errorf("%w: %s contains the source folder", ErrWorkspaceUnsafe, workspace)
	}
	if exists(workspace) {
		if !req.Overwrite {
			ctx, err := s.LoadContext(workspace)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrWorkspaceUnreadable, err)
			}
			ctx.SourceDirectory = source
			ctx.Reused = true
			log.Info("Reusing manual workspace")
			return ctx, nil
		}
		if !removable(workspace) {
			return nil, fmt.Errorf("%w: %s is not a manual workspace", ErrWorkspaceUnsafe, workspace)
		}
		log.Info("Recreating manual workspace")
		if err := os.RemoveAll(workspace); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWorkspaceNotCreated, err)
		}
	}

	fresh := layout{root: workspace}
	for _, dir := range []string{fresh.manualDir(), fresh.previewsDir(), fresh.backupsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWorkspaceNotCreated, err)
		}
	}
	workspace, err = canonical(workspace)
	if err != nil {
		return nil, err
	}
	l := layout{root: workspace}

	sources, err := collectSources(source, workspace)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rep := report.New(now)
	ctx := &Context{SourceDirectory: source, Workspace: workspace, Entries: make([]ContextEntry, 0, len(sources))}
	for _, src := range sources {
		w, h := imageSize(src)
		rep.Items = append(rep.Items, report.Item{
			Source:   src,
			Mode:     report.ModeManual,
			Outputs:  []string{},
			Metadata: map[string]any{"splitMode": string(report.ModeManual)},
		})
		ctx.Entries = append(ctx.Entries, ContextEntry{
			Source:           src,
			DisplayName:      filepath.Base(src),
			Width:            w,
			Height:           h,
			RecommendedLines: RecommendedLines(0.5),
			ImageKind:        KindContent,
		})
	}

	if err := rep.Save(l.splitReport()); err != nil {
		return nil, err
	}
	ov := &Overrides{Version: overridesVersion, UpdatedAt: report.Timestamp(now), Entries: []OverrideEntry{}}
	if err := report.WriteJSON(l.overrides(), ov); err != nil {
		return nil, err
	}

	log.WithField("images", len(sources)).Info("Manual workspace prepared")
	return ctx, nil
}

// LoadContext reads an existing workspace.
func (s *Service) LoadContext(workspace string) (*Context, error) {
	root, err := canonical(workspace)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSplitReportMissing, workspace)
	}
	l := layout{root: root}

	rep, err := report.Load(l.splitReport())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSplitReportMissing, root)
		}
		return nil, err
	}
	ov, err := loadOverrides(l.overrides())
	if err != nil {
		return nil, err
	}

	ctx := &Context{Workspace: root, Entries: make([]ContextEntry, 0, len(rep.Items))}
	for _, item := range rep.Items {
		e := ContextEntry{
			Source:      item.Source,
			DisplayName: filepath.Base(item.Source),
			ImageKind:   KindContent,
		}
		if i := ov.find(item.Source); i >= 0 {
			o := ov.Entries[i]
			lines := o.Lines
			e.ExistingLines = &lines
			e.Locked = o.Locked
			e.LastAppliedAt = o.LastAppliedAt
			e.ThumbnailPath = o.ThumbnailPath
			e.ImageKind = o.ImageKind
			e.Rotate90 = o.Rotate90
			e.Width, e.Height = o.Width, o.Height
		}
		if e.Width == 0 {
			e.Width, e.Height = imageSize(item.Source)
		}
		split := float32(0.5)
		if item.SplitX != nil && e.Width > 0 {
			split = float32(*item.SplitX) / float32(e.Width)
		}
		e.RecommendedLines = RecommendedLines(split)
		ctx.Entries = append(ctx.Entries, e)
	}

	if exists(l.manualReport()) {
		if mr, err := loadManualReport(l.manualReport()); err == nil {
			ctx.ManualReport = mr.Summary()
		} else {
			s.logger.WithError(err).Warn("Ignoring unreadable manual split report")
		}
	}
	ctx.HasRevertHistory = exists(l.manifest())
	return ctx, nil
}

// collectSources lists the images below source in natural order, skipping
// the workspace itself and hidden folders.
func collectSources(source, workspace string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != source && (path == workspace || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !imgio.IsSupportedImage(path) {
			return nil
		}
		c, err := canonical(path)
		if err != nil {
			return nil
		}
		if _, dup := seen[c]; dup {
			return nil
		}
		seen[c] = struct{}{}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return natural.Less(out[i], out[j]) })
	return out, nil
}

func imageSize(path string) (int, int) {
	cfg, err := imgio.DecodeConfig(path)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
