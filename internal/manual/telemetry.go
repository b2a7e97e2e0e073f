package manual

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/x956606865/reiChan-sub000/internal/report"
)

type telemetryEvent struct {
	Timestamp  string         `json:"timestamp"`
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
}

// AppendTelemetry appends one event line to the workspace's telemetry log.
// It does nothing without a workspace or an event name.
func AppendTelemetry(workspace, event string, properties map[string]any, now time.Time) error {
	if workspace == "" || event == "" {
		return nil
	}
	if properties == nil {
		properties = map[string]any{}
	}
	line, err := json.Marshal(telemetryEvent{
		Timestamp:  report.Timestamp(now),
		Event:      event,
		Properties: properties,
	})
	if err != nil {
		return err
	}

	path := layout{root: workspace}.telemetry()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
