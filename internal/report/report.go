// Package report reads and writes the JSON documents that describe split
// results: the split report, plus the shared write helpers used by the
// manual workspace files.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// FileName is the split report's file name inside a workspace.
const FileName = "split-report.json"

// SplitMode is the decision recorded for one source image.
type SplitMode string

const (
	ModeSkip           SplitMode = "skip"
	ModeCoverTrim      SplitMode = "cover-trim"
	ModeSplit          SplitMode = "split"
	ModeFallbackCenter SplitMode = "fallback-center"
	ModeManual         SplitMode = "manual"
)

// Item is one entry of the split report.
type Item struct {
	Source            string         `json:"source"`
	Mode              SplitMode      `json:"mode"`
	SplitX            *int           `json:"split_x,omitempty"`
	Confidence        float32        `json:"confidence"`
	ContentWidthRatio float32        `json:"content_width_ratio"`
	Outputs           []string       `json:"outputs"`
	Metadata          map[string]any `json:"metadata"`
}

// SplitReport is the document stored in split-report.json.
type SplitReport struct {
	GeneratedAt string `json:"generatedAt"`
	Items       []Item `json:"items"`
}

// New returns an empty report stamped with now.
func New(now time.Time) *SplitReport {
	return &SplitReport{GeneratedAt: Timestamp(now), Items: []Item{}}
}

// Timestamp formats t as ISO-8601 UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Find returns the index of the item for source, or -1.
func (r *SplitReport) Find(source string) int {
	for i := range r.Items {
		if r.Items[i].Source == source {
			return i
		}
	}
	return -1
}

// Upsert replaces the item with the same source or appends it.
func (r *SplitReport) Upsert(item Item) {
	if i := r.Find(item.Source); i >= 0 {
		r.Items[i] = item
		return
	}
	r.Items = append(r.Items, item)
}

// Load reads a split report.
func Load(path string) (*SplitReport, error) {
	var r SplitReport
	if err := ReadJSON(path, &r); err != nil {
		return nil, err
	}
	if r.Items == nil {
		r.Items = []Item{}
	}
	return &r, nil
}

// Save writes the whole report atomically.
func (r *SplitReport) Save(path string) error {
	return WriteJSON(path, r)
}

// ReadJSON decodes the JSON document at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteJSON serializes v with two-space indentation and a trailing newline
// and replaces path in one step.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
