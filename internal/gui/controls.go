package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/x956606865/reiChan-sub000/internal/manual"
)

var lineNames = [4]string{"Left trim", "Left page end", "Right page start", "Right trim"}

// ControlPanel edits the lines and options of the current page and holds
// the preview and apply actions.
type ControlPanel struct {
	container *container.Scroll

	sliders    [4]*widget.Slider
	values     [4]*widget.Label
	kindSelect *widget.Select
	rotate     *widget.Check
	lock       *widget.Check

	previews [3]*fyne.Container

	previewBtn  *widget.Button
	applyBtn    *widget.Button
	applyAllBtn *widget.Button
	revertBtn   *widget.Button
	resetBtn    *widget.Button
	exportBtn   *widget.Button
	importBtn   *widget.Button

	statusLabel *widget.Label
	progress    *widget.ProgressBar

	revertable bool

	// syncing is set while widgets are updated from the session so their
	// change handlers do not echo back.
	syncing bool

	onLine   func(int, float32)
	onKind   func(manual.ImageKind)
	onRotate func(bool)
	onLock   func(bool)
}

// ControlActions are the buttons' handlers.
type ControlActions struct {
	Preview  func()
	Apply    func()
	ApplyAll func()
	Revert   func()
	Reset    func()
	Export   func()
	Import   func()
}

func NewControlPanel(actions ControlActions) *ControlPanel {
	cp := &ControlPanel{}

	lineBox := container.NewVBox()
	for i := range cp.sliders {
		i := i
		s := widget.NewSlider(0, 1)
		s.Step = 0.001
		s.OnChanged = func(v float64) {
			if !cp.syncing && cp.onLine != nil {
				cp.onLine(i, float32(v))
			}
		}
		cp.sliders[i] = s
		cp.values[i] = widget.NewLabel("--")
		lineBox.Add(container.NewBorder(nil, nil,
			widget.NewLabelWithStyle(lineNames[i], fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			cp.values[i], nil))
		lineBox.Add(s)
	}

	kinds := []string{string(manual.KindContent), string(manual.KindCover), string(manual.KindSpread)}
	cp.kindSelect = widget.NewSelect(kinds, func(v string) {
		if !cp.syncing && cp.onKind != nil {
			cp.onKind(manual.ImageKind(v))
		}
	})
	cp.rotate = widget.NewCheck("Rotate 90° clockwise", func(on bool) {
		if !cp.syncing && cp.onRotate != nil {
			cp.onRotate(on)
		}
	})
	cp.lock = widget.NewCheck("Locked", func(on bool) {
		if !cp.syncing && cp.onLock != nil {
			cp.onLock(on)
		}
	})

	for i := range cp.previews {
		cp.previews[i] = container.NewStack(widget.NewLabel("No preview"))
	}

	cp.previewBtn = widget.NewButtonWithIcon("Preview", theme.VisibilityIcon(), actions.Preview)
	cp.applyBtn = widget.NewButtonWithIcon("Apply page", theme.ConfirmIcon(), actions.Apply)
	cp.applyBtn.Importance = widget.HighImportance
	cp.applyAllBtn = widget.NewButtonWithIcon("Apply all edits", theme.DoneIcon(), actions.ApplyAll)
	cp.revertBtn = widget.NewButtonWithIcon("Revert last apply", theme.ContentUndoIcon(), actions.Revert)
	cp.revertBtn.Importance = widget.DangerImportance
	cp.resetBtn = widget.NewButtonWithIcon("Reset page", theme.ViewRefreshIcon(), actions.Reset)
	cp.exportBtn = widget.NewButtonWithIcon("Export template", theme.DocumentSaveIcon(), actions.Export)
	cp.importBtn = widget.NewButtonWithIcon("Load template", theme.FolderOpenIcon(), actions.Import)

	cp.statusLabel = widget.NewLabel("Ready")
	cp.statusLabel.Wrapping = fyne.TextWrapWord
	cp.progress = widget.NewProgressBar()
	cp.progress.Hide()

	content := container.NewVBox(
		widget.NewCard("LINES", "", lineBox),
		widget.NewCard("PAGE", "", container.NewVBox(cp.kindSelect, cp.rotate, cp.lock)),
		widget.NewCard("PREVIEW", "", container.NewGridWithColumns(3, cp.previews[0], cp.previews[1], cp.previews[2])),
		widget.NewCard("ACTIONS", "", container.NewVBox(
			container.NewGridWithColumns(2, cp.previewBtn, cp.resetBtn),
			container.NewGridWithColumns(2, cp.applyBtn, cp.applyAllBtn),
			cp.revertBtn,
			container.NewGridWithColumns(2, cp.exportBtn, cp.importBtn),
		)),
		widget.NewCard("STATUS", "", container.NewVBox(cp.statusLabel, cp.progress)),
	)
	cp.container = container.NewVScroll(content)
	return cp
}

func (cp *ControlPanel) GetContainer() fyne.CanvasObject { return cp.container }

// SetHandlers wires edits back to the session.
func (cp *ControlPanel) SetHandlers(onLine func(int, float32), onKind func(manual.ImageKind), onRotate, onLock func(bool)) {
	cp.onLine, cp.onKind, cp.onRotate, cp.onLock = onLine, onKind, onRotate, onLock
}

// Show loads an edit into the widgets. width converts ratios to pixels.
func (cp *ControlPanel) Show(ed *edit, width int) {
	cp.syncing = true
	defer func() { cp.syncing = false }()

	_, px := manual.NormalizeLines(ed.lines, width)
	for i := range cp.sliders {
		cp.sliders[i].SetValue(float64(ed.lines[i]))
		cp.values[i].SetText(fmt.Sprintf("%.1f%%  %dpx", ed.lines[i]*100, px[i]))
		if ed.locked {
			cp.sliders[i].Disable()
		} else {
			cp.sliders[i].Enable()
		}
	}
	cp.kindSelect.SetSelected(string(ed.kind))
	cp.rotate.SetChecked(ed.rotate)
	if ed.kind == manual.KindSpread {
		cp.rotate.Enable()
	} else {
		cp.rotate.Disable()
	}
	cp.lock.SetChecked(ed.locked)
}

// ShowPreview replaces the preview images. Missing parts show a label.
func (cp *ControlPanel) ShowPreview(p *manual.Preview) {
	for i, img := range []*manual.PreviewImage{p.Left, p.Gutter, p.Right} {
		var obj fyne.CanvasObject = widget.NewLabel("None")
		if img != nil {
			ci := canvas.NewImageFromFile(img.Path)
			ci.FillMode = canvas.ImageFillContain
			ci.SetMinSize(fyne.NewSize(90, 130))
			obj = ci
		}
		cp.previews[i].Objects = []fyne.CanvasObject{obj}
		cp.previews[i].Refresh()
	}
}

func (cp *ControlPanel) SetStatus(msg string) {
	cp.statusLabel.SetText(msg)
}

func (cp *ControlPanel) SetProgress(done, total int) {
	if total <= 0 || done >= total {
		cp.progress.Hide()
		return
	}
	cp.progress.Show()
	cp.progress.SetValue(float64(done) / float64(total))
}

// SetBusy disables the actions while a workspace operation runs.
func (cp *ControlPanel) SetBusy(busy bool) {
	for _, b := range []*widget.Button{cp.previewBtn, cp.applyBtn, cp.applyAllBtn, cp.resetBtn, cp.exportBtn, cp.importBtn} {
		if busy {
			b.Disable()
		} else {
			b.Enable()
		}
	}
	if !busy && cp.revertable {
		cp.revertBtn.Enable()
	} else {
		cp.revertBtn.Disable()
	}
}

// SetRevertable enables the revert button when the workspace has history.
func (cp *ControlPanel) SetRevertable(ok bool) {
	cp.revertable = ok
	if ok {
		cp.revertBtn.Enable()
	} else {
		cp.revertBtn.Disable()
	}
}
