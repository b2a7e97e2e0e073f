package manual

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	imgio "github.com/x956606865/reiChan-sub000/internal/io"
	"github.com/x956606865/reiChan-sub000/internal/report"
)

// Service runs workspace operations. Calls on the same workspace must not
// overlap.
type Service struct {
	logger logrus.FieldLogger
	loader *imgio.ImageLoader
	now    func() time.Time
}

func NewService(logger logrus.FieldLogger) *Service {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Service{
		logger: logger,
		loader: imgio.NewImageLoader(logger),
		now:    time.Now,
	}
}

func loadOverrides(path string) (*Overrides, error) {
	ov := &Overrides{Version: overridesVersion, Entries: []OverrideEntry{}}
	if err := report.ReadJSON(path, ov); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Overrides{Version: overridesVersion, Entries: []OverrideEntry{}}, nil
		}
		return nil, err
	}
	if ov.Entries == nil {
		ov.Entries = []OverrideEntry{}
	}
	return ov, nil
}

func loadManualReport(path string) (*Report, error) {
	var r Report
	if err := report.ReadJSON(path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
