package manual

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/x956606865/reiChan-sub000/internal/report"
)

// Workspace layout.
const (
	DefaultWorkspaceName = "split-manual"
	ManualDir            = "manual"
	OverridesDir         = "manual-overrides"
	OverridesFile        = "manual_overrides.json"
	ManualReportFile     = "manual_split_report.json"
	ManifestFile         = "last_apply.json"
	TelemetryFile        = "manual_split_telemetry.jsonl"

	overridesVersion = 2
	reportVersion    = 2
)

// layout resolves the well-known paths of one workspace.
type layout struct {
	root string
}

func (l layout) manualDir() string          { return filepath.Join(l.root, ManualDir) }
func (l layout) previewsDir() string        { return filepath.Join(l.root, OverridesDir, "previews") }
func (l layout) backupsDir() string         { return filepath.Join(l.root, OverridesDir, "backups") }
func (l layout) tmpDir() string             { return filepath.Join(l.root, OverridesDir, ".tmp") }
func (l layout) splitReport() string        { return filepath.Join(l.root, report.FileName) }
func (l layout) overrides() string          { return filepath.Join(l.root, OverridesDir, OverridesFile) }
func (l layout) manualReport() string       { return filepath.Join(l.root, ManualReportFile) }
func (l layout) manifest() string           { return filepath.Join(l.root, OverridesDir, "backups", ManifestFile) }
func (l layout) telemetry() string          { return filepath.Join(l.root, OverridesDir, TelemetryFile) }
func (l layout) backupDir(ts string) string { return filepath.Join(l.tmpDir(), ts) }

// canonical returns the absolute, symlink-free form of an existing path.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// encloses reports whether dir is path or one of its ancestors. Both are
// resolved through symlinks when they exist.
func encloses(dir, path string) bool {
	if c, err := canonical(dir); err == nil {
		dir = c
	}
	if c, err := canonical(path); err == nil {
		path = c
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// removable reports whether an existing folder is empty or looks like a
// manual workspace.
func removable(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	if len(entries) == 0 {
		return true
	}
	l := layout{root: dir}
	return exists(l.splitReport()) || exists(filepath.Join(dir, OverridesDir))
}

// stamp formats the backup directory name.
func stamp(t time.Time) string {
	return t.UTC().Format("20060102-150405")
}

func splitExt(path string) (stem, ext string) {
	base := filepath.Base(path)
	ext = filepath.Ext(base)
	return base[:len(base)-len(ext)], ext
}
