package gui

import (
	"path/filepath"

	"github.com/x956606865/reiChan-sub000/internal/manual"
)

// edit is the in-memory state of one page while the user works on it.
type edit struct {
	lines  [4]float32
	kind   manual.ImageKind
	rotate bool
	locked bool
	dirty  bool
}

// session tracks the pages of a workspace and the unapplied edits. It holds
// no widgets so the editing rules can be exercised without a display.
type session struct {
	ctx     *manual.Context
	current int
	edits   map[string]*edit
}

func newSession(ctx *manual.Context) *session {
	return &session{ctx: ctx, edits: make(map[string]*edit)}
}

func (s *session) len() int { return len(s.ctx.Entries) }

func (s *session) entry() *manual.ContextEntry {
	if s.current < 0 || s.current >= len(s.ctx.Entries) {
		return nil
	}
	return &s.ctx.Entries[s.current]
}

// selectPage makes page i current. It reports false for an index out of
// range.
func (s *session) selectPage(i int) bool {
	if i < 0 || i >= len(s.ctx.Entries) {
		return false
	}
	s.current = i
	return true
}

// edit returns the state of the current page, seeding it from the stored
// override or the recommended lines.
func (s *session) edit() *edit {
	e := s.entry()
	if e == nil {
		return nil
	}
	if ed, ok := s.edits[e.Source]; ok {
		return ed
	}
	ed := &edit{
		lines:  e.RecommendedLines,
		kind:   e.ImageKind,
		rotate: e.Rotate90,
		locked: e.Locked,
	}
	if e.ExistingLines != nil {
		ed.lines = *e.ExistingLines
	}
	if ed.kind == "" {
		ed.kind = manual.KindContent
	}
	s.edits[e.Source] = ed
	return ed
}

// setLine moves line i to v and pushes its neighbours so the four lines
// stay ordered. Locked pages do not move.
func (s *session) setLine(i int, v float32) bool {
	ed := s.edit()
	if ed == nil || ed.locked || i < 0 || i > 3 {
		return false
	}
	v = min(max(v, 0), 1)
	ed.lines[i] = v
	for j := i - 1; j >= 0; j-- {
		ed.lines[j] = min(ed.lines[j], v)
	}
	for j := i + 1; j < 4; j++ {
		ed.lines[j] = max(ed.lines[j], v)
	}
	ed.dirty = true
	return true
}

// nearestLine returns the line closest to ratio.
func (s *session) nearestLine(ratio float32) int {
	ed := s.edit()
	if ed == nil {
		return -1
	}
	best, dist := 0, float32(2)
	for i, l := range ed.lines {
		d := l - ratio
		if d < 0 {
			d = -d
		}
		// Ties go to the line on the side of the cursor.
		if d < dist || (d == dist && ratio > l) {
			best, dist = i, d
		}
	}
	return best
}

func (s *session) setKind(k manual.ImageKind) {
	if ed := s.edit(); ed != nil && ed.kind != k {
		ed.kind = k
		if k != manual.KindSpread {
			ed.rotate = false
		}
		ed.dirty = true
	}
}

func (s *session) setRotate(on bool) {
	if ed := s.edit(); ed != nil && ed.rotate != on && ed.kind == manual.KindSpread {
		ed.rotate = on
		ed.dirty = true
	}
}

func (s *session) setLocked(on bool) {
	if ed := s.edit(); ed != nil && ed.locked != on {
		ed.locked = on
		ed.dirty = true
	}
}

// resetCurrent drops the edit of the current page.
func (s *session) resetCurrent() {
	if e := s.entry(); e != nil {
		delete(s.edits, e.Source)
	}
}

// override converts the current page's edit into an override.
func (s *session) override() (manual.Override, bool) {
	e, ed := s.entry(), s.edit()
	if e == nil {
		return manual.Override{}, false
	}
	return toOverride(e, ed), true
}

// pending lists every edited page in workspace order.
func (s *session) pending() []manual.Override {
	var out []manual.Override
	for i := range s.ctx.Entries {
		e := &s.ctx.Entries[i]
		if ed, ok := s.edits[e.Source]; ok && ed.dirty {
			out = append(out, toOverride(e, ed))
		}
	}
	return out
}

// templateEntries converts the pending edits into template entries with
// normalized lines and their pixel positions.
func (s *session) templateEntries() []manual.OverrideEntry {
	out := []manual.OverrideEntry{}
	for i := range s.ctx.Entries {
		e := &s.ctx.Entries[i]
		ed, ok := s.edits[e.Source]
		if !ok || !ed.dirty {
			continue
		}
		ratios, px := manual.NormalizeLines(ed.lines, e.Width)
		out = append(out, manual.OverrideEntry{
			Source:        e.Source,
			Width:         e.Width,
			Height:        e.Height,
			Lines:         ratios,
			Pixels:        &px,
			Locked:        ed.locked,
			ImageKind:     ed.kind,
			Rotate90:      ed.rotate,
			ThumbnailPath: e.ThumbnailPath,
		})
	}
	return out
}

func toOverride(e *manual.ContextEntry, ed *edit) manual.Override {
	return manual.Override{
		Source:        e.Source,
		Lines:         ed.lines,
		ImageKind:     ed.kind,
		Rotate90:      ed.rotate,
		Locked:        ed.locked,
		ThumbnailPath: e.ThumbnailPath,
	}
}

// reload swaps in a freshly loaded context after an apply or a revert. The
// applied edits and every clean edit are dropped so those pages are seeded
// from the stored state again. The current page is kept.
func (s *session) reload(ctx *manual.Context, applied []string) {
	for _, src := range applied {
		delete(s.edits, src)
	}
	for src, ed := range s.edits {
		if !ed.dirty {
			delete(s.edits, src)
		}
	}
	s.ctx = ctx
	if s.current >= len(ctx.Entries) {
		s.current = len(ctx.Entries) - 1
	}
	if s.current < 0 {
		s.current = 0
	}
}

// applyTemplate copies lines from exported entries onto unlocked pages
// with the same file name. It returns how many pages changed.
func (s *session) applyTemplate(entries []manual.OverrideEntry) int {
	byName := make(map[string]manual.OverrideEntry, len(entries))
	for _, t := range entries {
		byName[filepath.Base(t.Source)] = t
	}
	keep := s.current
	defer func() { s.current = keep }()

	changed := 0
	for i := range s.ctx.Entries {
		t, ok := byName[s.ctx.Entries[i].DisplayName]
		if !ok {
			continue
		}
		s.current = i
		ed := s.edit()
		if ed.locked {
			continue
		}
		ed.lines = t.Lines
		ed.kind = t.ImageKind
		if ed.kind == "" {
			ed.kind = manual.KindContent
		}
		ed.rotate = t.Rotate90 && ed.kind == manual.KindSpread
		ed.dirty = true
		changed++
	}
	return changed
}
