package manual

import (
	"time"

	"github.com/x956606865/reiChan-sub000/internal/report"
)

// Template is an exported set of override entries.
type Template struct {
	GeneratedAt string          `json:"generatedAt"`
	Workspace   string          `json:"workspace"`
	Accelerator string          `json:"accelerator"`
	GutterRatio float32         `json:"gutterRatio"`
	EntryCount  int             `json:"entryCount"`
	Entries     []OverrideEntry `json:"entries"`
}

// ExportTemplate writes entries to path as a template document.
func ExportTemplate(path, workspace, accelerator string, gutterRatio float32, entries []OverrideEntry, now time.Time) (*Template, error) {
	if entries == nil {
		entries = []OverrideEntry{}
	}
	t := &Template{
		GeneratedAt: report.Timestamp(now),
		Workspace:   workspace,
		Accelerator: accelerator,
		GutterRatio: gutterRatio,
		EntryCount:  len(entries),
		Entries:     entries,
	}
	if err := report.WriteJSON(path, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Overrides returns the stored override entries of a workspace.
func (s *Service) Overrides(workspace string) (*Overrides, error) {
	root, err := canonical(workspace)
	if err != nil {
		return nil, err
	}
	return loadOverrides(layout{root: root}.overrides())
}
