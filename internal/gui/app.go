// Manual split editor window
package gui

import (
	"fmt"
	"image"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/x956606865/reiChan-sub000/internal/edgetex"
	"github.com/x956606865/reiChan-sub000/internal/manual"
	"github.com/x956606865/reiChan-sub000/internal/report"
)

// displayLimit bounds the resolution of the page shown on screen. Lines are
// ratios so the downscale does not affect them.
const displayLimit = 1600

// Application is the manual split editor for one workspace.
type Application struct {
	app       fyne.App
	window    fyne.Window
	logger    logrus.FieldLogger
	service   *manual.Service
	directive edgetex.Directive
	workspace string

	session *session
	width   int
	busy    bool

	canvas   *LineCanvas
	controls *ControlPanel
	pages    *PageList
	title    *widget.Label
}

func NewApplication(a fyne.App, service *manual.Service, ctx *manual.Context, directive edgetex.Directive, logger logrus.FieldLogger) *Application {
	window := a.NewWindow("Manual split - " + ctx.Workspace)
	window.Resize(fyne.NewSize(1600, 1000))
	window.CenterOnScreen()

	app := &Application{
		app:       a,
		window:    window,
		logger:    logger,
		service:   service,
		directive: directive,
		workspace: ctx.Workspace,
		session:   newSession(ctx),
	}
	app.initializeGUI()
	app.setupLayout()
	app.setupCallbacks()
	return app
}

func (a *Application) initializeGUI() {
	a.canvas = NewLineCanvas(a.logger)
	a.controls = NewControlPanel(ControlActions{
		Preview:  a.renderPreview,
		Apply:    a.applyCurrent,
		ApplyAll: a.applyPending,
		Revert:   a.confirmRevert,
		Reset:    a.resetPage,
		Export:   a.exportTemplate,
		Import:   a.importTemplate,
	})
	a.pages = NewPageList(a.session, a.selectPage)
	a.title = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
}

func (a *Application) setupLayout() {
	center := container.NewBorder(a.title, nil, nil, nil, container.NewPadded(a.canvas))

	centerAndRight := container.NewHSplit(center, a.controls.GetContainer())
	centerAndRight.SetOffset(0.72)

	content := container.NewHSplit(a.pages.GetContainer(), centerAndRight)
	content.SetOffset(0.18)
	a.window.SetContent(content)
}

func (a *Application) setupCallbacks() {
	a.canvas.SetCallbacks(
		a.session.nearestLine,
		func(line int, ratio float32) {
			if a.session.setLine(line, ratio) {
				a.refreshEditor()
			}
		},
	)
	a.controls.SetHandlers(
		func(line int, ratio float32) {
			if a.session.setLine(line, ratio) {
				a.refreshEditor()
			}
		},
		func(k manual.ImageKind) {
			a.session.setKind(k)
			a.refreshEditor()
		},
		func(on bool) {
			a.session.setRotate(on)
			a.refreshEditor()
		},
		func(on bool) {
			a.session.setLocked(on)
			a.refreshEditor()
		},
	)
}

// ShowAndRun opens the first page and blocks until the window closes.
func (a *Application) ShowAndRun() {
	a.logger.WithField("pages", a.session.len()).Info("Showing manual split editor")
	a.track("editor_opened", map[string]any{"pages": a.session.len(), "reused": a.session.ctx.Reused})

	a.controls.SetRevertable(a.session.ctx.HasRevertHistory)
	if a.session.len() > 0 {
		a.pages.Select(0)
	} else {
		a.controls.SetStatus("No images in workspace")
	}

	a.window.SetCloseIntercept(func() {
		if n := len(a.session.pending()); n > 0 {
			dialog.ShowConfirm("Unapplied edits",
				fmt.Sprintf("%d page(s) have edits that were not applied. Quit anyway?", n),
				func(ok bool) {
					if ok {
						a.quit()
					}
				}, a.window)
			return
		}
		a.quit()
	})
	a.window.ShowAndRun()
}

func (a *Application) quit() {
	a.track("editor_closed", map[string]any{"pending": len(a.session.pending())})
	a.app.Quit()
}

func (a *Application) selectPage(i int) {
	if !a.session.selectPage(i) {
		return
	}
	e := a.session.entry()
	img, err := imaging.Open(e.Source)
	if err != nil {
		a.showError("Cannot open page", err)
		return
	}
	a.width = e.Width
	if a.width == 0 {
		a.width = img.Bounds().Dx()
	}
	a.canvas.SetImage(displayImage(img))
	a.title.SetText(fmt.Sprintf("%s  (%d x %d)", e.DisplayName, a.width, img.Bounds().Dy()))
	a.refreshEditor()
	a.logger.WithField("source", e.Source).Debug("Page selected")
}

func displayImage(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= displayLimit && b.Dy() <= displayLimit {
		return img
	}
	return imaging.Fit(img, displayLimit, displayLimit, imaging.Linear)
}

func (a *Application) refreshEditor() {
	ed := a.session.edit()
	if ed == nil {
		return
	}
	a.canvas.SetLines(ed.lines)
	a.controls.Show(ed, a.width)
	a.pages.Refresh()
}

func (a *Application) resetPage() {
	a.session.resetCurrent()
	a.refreshEditor()
}

func (a *Application) renderPreview() {
	o, ok := a.session.override()
	if !ok {
		return
	}
	ws := a.workspace
	a.run("Rendering preview", func() (string, func(), error) {
		p, err := a.service.RenderPreview(manual.PreviewRequest{
			Workspace:   ws,
			Source:      o.Source,
			Lines:       o.Lines,
			TargetWidth: 320,
		})
		if err != nil {
			return "", nil, err
		}
		a.track("preview_rendered", map[string]any{"source": o.Source, "gutter": p.Gutter != nil})
		return "Preview updated", func() { a.controls.ShowPreview(p) }, nil
	})
}

func (a *Application) applyCurrent() {
	if o, ok := a.session.override(); ok {
		a.apply([]manual.Override{o})
	}
}

func (a *Application) applyPending() {
	pending := a.session.pending()
	if len(pending) == 0 {
		a.controls.SetStatus("Nothing to apply")
		return
	}
	a.apply(pending)
}

func (a *Application) apply(overrides []manual.Override) {
	ws := a.workspace
	a.run(fmt.Sprintf("Applying %d page(s)", len(overrides)), func() (string, func(), error) {
		res, err := a.service.Apply(manual.ApplyRequest{
			Workspace: ws,
			Overrides: overrides,
			Directive: a.directive,
		}, func(p manual.ApplyProgress) {
			fyne.Do(func() { a.controls.SetProgress(p.Completed, p.Total) })
		})
		if err != nil {
			a.track("apply_failed", map[string]any{"error": err.Error()})
			return "", nil, err
		}
		ctx, err := a.service.LoadContext(ws)
		if err != nil {
			return "", nil, err
		}
		applied := make([]string, 0, len(res.Entries))
		for _, e := range res.Entries {
			applied = append(applied, e.Source)
		}
		a.track("apply_completed", map[string]any{"applied": res.Applied, "skipped": res.Skipped})

		msg := fmt.Sprintf("Applied %d, skipped %d", res.Applied, res.Skipped)
		return msg, func() {
			a.session.reload(ctx, applied)
			a.controls.SetRevertable(res.CanRevert || ctx.HasRevertHistory)
			a.refreshEditor()
		}, nil
	})
}

func (a *Application) confirmRevert() {
	dialog.ShowConfirm("Revert last apply",
		"Restore every file written by the last apply?",
		func(ok bool) {
			if ok {
				a.revert()
			}
		}, a.window)
}

func (a *Application) revert() {
	ws := a.workspace
	a.run("Reverting", func() (string, func(), error) {
		res, err := a.service.Revert(ws)
		if err != nil {
			return "", nil, err
		}
		ctx, err := a.service.LoadContext(ws)
		if err != nil {
			return "", nil, err
		}
		a.track("revert_completed", map[string]any{"restored": res.RestoredOutputs})
		return fmt.Sprintf("Reverted, %d file(s) restored", res.RestoredOutputs), func() {
			a.session.reload(ctx, nil)
			a.controls.SetRevertable(ctx.HasRevertHistory)
			a.refreshEditor()
		}, nil
	})
}

func (a *Application) exportTemplate() {
	entries := a.session.templateEntries()
	if len(entries) == 0 {
		a.controls.SetStatus("No unapplied edits to export")
		return
	}
	ws := a.workspace
	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil || w == nil {
			return
		}
		path := w.URI().Path()
		w.Close()
		a.run("Exporting template", func() (string, func(), error) {
			accel := edgetex.ResolveAccelerator(a.directive)
			tpl, err := manual.ExportTemplate(path, ws, string(accel), manual.DefaultGutterRatio, entries, time.Now())
			if err != nil {
				return "", nil, err
			}
			a.track("template_exported", map[string]any{"entries": tpl.EntryCount})
			return fmt.Sprintf("Exported %d entries", tpl.EntryCount), nil, nil
		})
	}, a.window)
	save.SetFileName("manual-split-template.json")
	save.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	save.Show()
}

func (a *Application) importTemplate() {
	open := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			return
		}
		path := r.URI().Path()
		r.Close()
		var tpl manual.Template
		if err := report.ReadJSON(path, &tpl); err != nil {
			a.showError("Cannot read template", err)
			return
		}
		n := a.session.applyTemplate(tpl.Entries)
		a.track("template_loaded", map[string]any{"entries": len(tpl.Entries), "matched": n})
		a.refreshEditor()
		a.controls.SetStatus(fmt.Sprintf("Template set lines on %d page(s)", n))
	}, a.window)
	open.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	open.Show()
}

// run executes work off the UI goroutine. work returns a status message and
// an optional UI update applied on success.
func (a *Application) run(label string, work func() (string, func(), error)) {
	if a.busy {
		return
	}
	a.busy = true
	a.controls.SetBusy(true)
	a.controls.SetStatus(label + "...")

	go func() {
		msg, update, err := work()
		fyne.Do(func() {
			a.busy = false
			a.controls.SetBusy(false)
			a.controls.SetProgress(0, 0)
			if err != nil {
				a.showError(label+" failed", err)
				return
			}
			if update != nil {
				update()
			}
			a.controls.SetStatus(msg)
		})
	}()
}

func (a *Application) track(event string, props map[string]any) {
	if err := manual.AppendTelemetry(a.workspace, event, props, time.Now()); err != nil {
		a.logger.WithError(err).Warn("Failed to append telemetry")
	}
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.controls.SetStatus(fmt.Sprintf("%s: %v", title, err))
}
