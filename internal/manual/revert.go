package manual

import (
	"errors"
	"fmt"
	"os"

	"github.com/x956606865/reiChan-sub000/internal/report"
)

// RevertResult reports what a revert restored.
type RevertResult struct {
	RestoredOutputs int
	ManualReport    *ReportSummary
}

// Revert undoes the last successful apply of workspace and removes its
// manifest.
func (s *Service) Revert(workspace string) (*RevertResult, error) {
	root, err := canonical(workspace)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrManifestMissing, workspace)
	}
	l := layout{root: root}
	log := s.logger.WithField("workspace", root)

	var m Manifest
	if err := report.ReadJSON(l.manifest(), &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, root)
		}
		return nil, err
	}
	if m.Workspace != root {
		return nil, fmt.Errorf("%w: manifest %s, workspace %s", ErrWorkspaceMismatch, m.Workspace, root)
	}

	for i := len(m.CreatedPaths) - 1; i >= 0; i-- {
		if err := os.Remove(m.CreatedPaths[i]); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	restored := 0
	for _, rec := range m.OriginalRecords {
		if !exists(rec.Backup) {
			return nil, fmt.Errorf("%w: %s", ErrBackupMissing, rec.Backup)
		}
		if err := restoreFile(rec.Backup, rec.Path); err != nil {
			return nil, err
		}
		restored++
	}

	docs := []struct{ backup, path string }{
		{m.OverridesBackup, l.overrides()},
		{m.SplitReportBackup, l.splitReport()},
		{m.ManualSplitReportBackup, l.manualReport()},
	}
	for _, d := range docs {
		if d.backup == "" {
			if err := os.Remove(d.path); err != nil && !os.IsNotExist(err) {
				return nil, err
			}
			continue
		}
		if !exists(d.backup) {
			return nil, fmt.Errorf("%w: %s", ErrBackupMissing, d.backup)
		}
		if err := restoreFile(d.backup, d.path); err != nil {
			return nil, err
		}
	}

	if err := os.Remove(l.manifest()); err != nil {
		return nil, err
	}
	if m.BackupDir != "" {
		if err := os.RemoveAll(m.BackupDir); err != nil {
			log.WithError(err).Warn("Failed to remove backup directory")
		}
	}

	result := &RevertResult{RestoredOutputs: restored}
	if exists(l.manualReport()) {
		if mr, err := loadManualReport(l.manualReport()); err == nil {
			result.ManualReport = mr.Summary()
		}
	}
	log.WithField("restored", restored).Info("Manual apply reverted")
	return result, nil
}
