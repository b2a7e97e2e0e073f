package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// PageList shows the workspace pages. Pages with a stored override are
// marked, pages with unapplied edits get a pencil.
type PageList struct {
	list    *widget.List
	session *session
	card    *widget.Card
}

func NewPageList(s *session, onSelect func(int)) *PageList {
	pl := &PageList{session: s}
	pl.list = widget.NewList(
		func() int { return pl.session.len() },
		func() fyne.CanvasObject {
			return container.NewHBox(widget.NewIcon(theme.FileImageIcon()), widget.NewLabel("page"))
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id >= pl.session.len() {
				return
			}
			e := pl.session.ctx.Entries[id]
			row := item.(*fyne.Container)
			icon := row.Objects[0].(*widget.Icon)
			label := row.Objects[1].(*widget.Label)

			switch ed, ok := pl.session.edits[e.Source]; {
			case ok && ed.dirty:
				icon.SetResource(theme.DocumentCreateIcon())
			case e.LastAppliedAt != "":
				icon.SetResource(theme.ConfirmIcon())
			default:
				icon.SetResource(theme.FileImageIcon())
			}
			label.SetText(e.DisplayName)
		},
	)
	pl.list.OnSelected = func(id widget.ListItemID) { onSelect(id) }
	pl.card = widget.NewCard("PAGES", "", pl.list)
	return pl
}

func (pl *PageList) GetContainer() fyne.CanvasObject { return pl.card }

func (pl *PageList) Select(i int) { pl.list.Select(i) }

func (pl *PageList) Refresh() { pl.list.Refresh() }
