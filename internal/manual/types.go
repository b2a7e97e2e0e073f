// Package manual lets a user correct split lines per image inside a
// workspace. Applies are transactional: every file touched is backed up
// first, and the last successful apply can be reverted from its manifest.
package manual

import (
	"fmt"
	"strings"
)

// ImageKind says how an override is cut.
type ImageKind string

const (
	// KindContent splits into a right page and a left page.
	KindContent ImageKind = "content"
	// KindCover keeps one trimmed crop.
	KindCover ImageKind = "cover"
	// KindSpread keeps one trimmed crop, optionally rotated.
	KindSpread ImageKind = "spread"
)

// ParseImageKind accepts content, cover and spread. Empty means content.
func ParseImageKind(s string) (ImageKind, error) {
	switch ImageKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindContent:
		return KindContent, nil
	case KindCover:
		return KindCover, nil
	case KindSpread:
		return KindSpread, nil
	}
	return "", fmt.Errorf("unknown image kind %q", s)
}

// OverrideEntry is one record of manual_overrides.json.
type OverrideEntry struct {
	Source        string     `json:"source"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Lines         [4]float32 `json:"lines"`
	Pixels        *[4]int    `json:"pixels,omitempty"`
	GutterRatio   *float32   `json:"gutterRatio,omitempty"`
	Accelerator   string     `json:"accelerator,omitempty"`
	Locked        bool       `json:"locked"`
	LastAppliedAt string     `json:"lastAppliedAt,omitempty"`
	Outputs       []string   `json:"outputs,omitempty"`
	ImageKind     ImageKind  `json:"imageKind"`
	Rotate90      bool       `json:"rotate90"`
	ThumbnailPath string     `json:"thumbnailPath,omitempty"`
}

// Overrides is the document stored in manual_overrides.json.
type Overrides struct {
	Version   int             `json:"version"`
	UpdatedAt string          `json:"updatedAt"`
	Entries   []OverrideEntry `json:"entries"`
}

func (o *Overrides) find(source string) int {
	for i := range o.Entries {
		if o.Entries[i].Source == source {
			return i
		}
	}
	return -1
}

// replace drops any entry for e.Source and appends e.
func (o *Overrides) replace(e OverrideEntry) {
	if i := o.find(e.Source); i >= 0 {
		o.Entries = append(o.Entries[:i], o.Entries[i+1:]...)
	}
	o.Entries = append(o.Entries, e)
}

// ReportEntry is one applied row of manual_split_report.json.
type ReportEntry struct {
	Source      string     `json:"source"`
	Outputs     []string   `json:"outputs"`
	Lines       [4]float32 `json:"lines"`
	Pixels      [4]int     `json:"pixels"`
	GutterRatio *float32   `json:"gutterRatio,omitempty"`
	Accelerator string     `json:"accelerator"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	AppliedAt   string     `json:"appliedAt"`
	DurationMS  int64      `json:"duration_ms"`
	ImageKind   ImageKind  `json:"imageKind"`
	Rotate90    bool       `json:"rotate90"`
}

// Report is the document stored in manual_split_report.json.
type Report struct {
	Version     int           `json:"version"`
	GeneratedAt string        `json:"generatedAt"`
	Total       int           `json:"total"`
	Applied     int           `json:"applied"`
	Skipped     int           `json:"skipped"`
	Entries     []ReportEntry `json:"entries"`
}

// ReportSummary is the short form of a manual report.
type ReportSummary struct {
	GeneratedAt string `json:"generatedAt"`
	Total       int    `json:"total"`
	Applied     int    `json:"applied"`
	Skipped     int    `json:"skipped"`
}

func (r *Report) Summary() *ReportSummary {
	return &ReportSummary{GeneratedAt: r.GeneratedAt, Total: r.Total, Applied: r.Applied, Skipped: r.Skipped}
}

// OriginalRecord pairs a file that existed before an apply with its backup.
type OriginalRecord struct {
	Path   string `json:"path"`
	Backup string `json:"backup"`
}

// Manifest is the undo plan of the last successful apply.
type Manifest struct {
	Workspace               string           `json:"workspace"`
	Timestamp               string           `json:"timestamp"`
	BackupDir               string           `json:"backup_dir"`
	CreatedPaths            []string         `json:"created_paths"`
	OriginalRecords         []OriginalRecord `json:"original_records"`
	OverridesBackup         string           `json:"overrides_backup,omitempty"`
	SplitReportBackup       string           `json:"split_report_backup"`
	ManualSplitReportBackup string           `json:"manual_split_report_backup,omitempty"`
}

// ContextEntry describes one source image of a workspace.
type ContextEntry struct {
	Source           string      `json:"source"`
	DisplayName      string      `json:"displayName"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
	RecommendedLines [4]float32  `json:"recommendedLines"`
	ExistingLines    *[4]float32 `json:"existingLines,omitempty"`
	Locked           bool        `json:"locked"`
	LastAppliedAt    string      `json:"lastAppliedAt,omitempty"`
	ThumbnailPath    string      `json:"thumbnailPath,omitempty"`
	ImageKind        ImageKind   `json:"imageKind"`
	Rotate90         bool        `json:"rotate90"`
}

// Context is everything an editor needs to open a workspace.
type Context struct {
	SourceDirectory  string         `json:"sourceDirectory,omitempty"`
	Workspace        string         `json:"workspace"`
	Entries          []ContextEntry `json:"entries"`
	ManualReport     *ReportSummary `json:"manualReport,omitempty"`
	HasRevertHistory bool           `json:"hasRevertHistory"`
	Reused           bool           `json:"reused"`
}
