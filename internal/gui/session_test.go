package gui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x956606865/reiChan-sub000/internal/manual"
)

func testContext() *manual.Context {
	stored := [4]float32{0.1, 0.45, 0.55, 0.9}
	return &manual.Context{
		Workspace: "/ws",
		Entries: []manual.ContextEntry{
			{Source: "/src/p1.png", DisplayName: "p1.png", Width: 1000, RecommendedLines: [4]float32{0, 0.49, 0.51, 1}, ImageKind: manual.KindContent},
			{Source: "/src/p2.png", DisplayName: "p2.png", Width: 1000, RecommendedLines: [4]float32{0, 0.49, 0.51, 1}, ExistingLines: &stored, ImageKind: manual.KindSpread, Rotate90: true},
			{Source: "/src/p3.png", DisplayName: "p3.png", Width: 1000, RecommendedLines: [4]float32{0, 0.49, 0.51, 1}, Locked: true},
		},
	}
}

func TestSessionSeedsEdits(t *testing.T) {
	s := newSession(testContext())
	assert.Equal(t, [4]float32{0, 0.49, 0.51, 1}, s.edit().lines)
	assert.Equal(t, manual.KindContent, s.edit().kind)

	require.True(t, s.selectPage(1))
	ed := s.edit()
	assert.Equal(t, [4]float32{0.1, 0.45, 0.55, 0.9}, ed.lines)
	assert.Equal(t, manual.KindSpread, ed.kind)
	assert.True(t, ed.rotate)
	assert.False(t, ed.dirty)

	require.True(t, s.selectPage(2))
	assert.Equal(t, manual.KindContent, s.edit().kind)
	assert.False(t, s.selectPage(3))
	assert.Empty(t, s.pending())
}

func TestSessionSetLineKeepsOrder(t *testing.T) {
	s := newSession(testContext())

	require.True(t, s.setLine(1, 0.7))
	assert.Equal(t, [4]float32{0, 0.7, 0.7, 1}, s.edit().lines)

	require.True(t, s.setLine(3, 0.2))
	assert.Equal(t, [4]float32{0, 0.2, 0.2, 0.2}, s.edit().lines)

	require.True(t, s.setLine(0, -3))
	assert.Equal(t, float32(0), s.edit().lines[0])
	assert.False(t, s.setLine(4, 0.5))

	s.selectPage(2)
	assert.False(t, s.setLine(1, 0.3), "locked page")
}

func TestSessionNearestLine(t *testing.T) {
	s := newSession(testContext())
	assert.Equal(t, 0, s.nearestLine(0.1))
	assert.Equal(t, 1, s.nearestLine(0.47))
	assert.Equal(t, 2, s.nearestLine(0.53))
	assert.Equal(t, 3, s.nearestLine(0.97))

	s.setLine(1, 0.5)
	s.setLine(2, 0.5)
	assert.Equal(t, 1, s.nearestLine(0.45))
	assert.Equal(t, 2, s.nearestLine(0.55))
}

func TestSessionKindAndRotate(t *testing.T) {
	s := newSession(testContext())
	s.setRotate(true)
	assert.False(t, s.edit().rotate, "rotation only applies to spreads")

	s.setKind(manual.KindSpread)
	s.setRotate(true)
	assert.True(t, s.edit().rotate)
	s.setKind(manual.KindCover)
	assert.False(t, s.edit().rotate)
	assert.True(t, s.edit().dirty)
}

func TestSessionPendingAndReload(t *testing.T) {
	s := newSession(testContext())
	s.setLine(1, 0.4)
	s.selectPage(1)
	s.edit()
	s.selectPage(2)
	s.setLocked(false)
	s.setLine(2, 0.6)

	pending := s.pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "/src/p1.png", pending[0].Source)
	assert.Equal(t, "/src/p3.png", pending[1].Source)
	assert.False(t, pending[1].Locked)

	ctx := testContext()
	ctx.Entries = ctx.Entries[:2]
	s.reload(ctx, []string{"/src/p1.png"})
	assert.Equal(t, 1, s.current)
	assert.NotContains(t, s.edits, "/src/p1.png")
	assert.NotContains(t, s.edits, "/src/p2.png")
	assert.Contains(t, s.edits, "/src/p3.png")
	assert.Empty(t, s.pending())
}

func TestSessionTemplateEntries(t *testing.T) {
	s := newSession(testContext())
	assert.Empty(t, s.templateEntries())

	s.setLine(1, 0.4)
	s.selectPage(1)
	s.setLine(0, 0.2)
	s.selectPage(2)
	s.edit()

	entries := s.templateEntries()
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "/src/p1.png", first.Source)
	assert.Equal(t, 1000, first.Width)
	assert.Equal(t, manual.KindContent, first.ImageKind)
	require.NotNil(t, first.Pixels)
	assert.Equal(t, [4]int{0, 400, 510, 1000}, *first.Pixels)
	assert.Empty(t, first.LastAppliedAt)
	assert.Empty(t, first.Outputs)

	second := entries[1]
	assert.Equal(t, "/src/p2.png", second.Source)
	assert.InDelta(t, 0.2, second.Lines[0], 1e-6)
	assert.Equal(t, manual.KindSpread, second.ImageKind)
	assert.True(t, second.Rotate90)
}

func TestSessionOverride(t *testing.T) {
	s := newSession(testContext())
	s.selectPage(1)
	o, ok := s.override()
	require.True(t, ok)
	assert.Equal(t, manual.Override{
		Source:    "/src/p2.png",
		Lines:     [4]float32{0.1, 0.45, 0.55, 0.9},
		ImageKind: manual.KindSpread,
		Rotate90:  true,
	}, o)

	s.setLine(0, 0.2)
	s.resetCurrent()
	assert.Equal(t, float32(0.1), s.edit().lines[0])
}

func TestSessionApplyTemplate(t *testing.T) {
	s := newSession(testContext())
	s.selectPage(1)

	n := s.applyTemplate([]manual.OverrideEntry{
		{Source: "/elsewhere/p1.png", Lines: [4]float32{0.05, 0.4, 0.6, 0.95}},
		{Source: "/elsewhere/p3.png", Lines: [4]float32{0.2, 0.3, 0.7, 0.8}, ImageKind: manual.KindCover},
		{Source: "/elsewhere/p9.png"},
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.current)

	s.selectPage(0)
	assert.Equal(t, [4]float32{0.05, 0.4, 0.6, 0.95}, s.edit().lines)
	assert.Equal(t, manual.KindContent, s.edit().kind)
	s.selectPage(2)
	assert.Equal(t, [4]float32{0, 0.49, 0.51, 1}, s.edit().lines)
}

func TestContainFit(t *testing.T) {
	f := containFit(800, 300, 2000, 1000)
	assert.InDelta(t, 0.3, f.scale, 1e-9)
	assert.InDelta(t, 100, f.offsetX, 1e-9)
	assert.InDelta(t, 0, f.offsetY, 1e-9)

	assert.InDelta(t, 0.5, f.ratioAt(400), 1e-6)
	assert.Equal(t, float32(0), f.ratioAt(50))
	assert.Equal(t, float32(1), f.ratioAt(790))
	assert.InDelta(t, 250, f.xAt(0.25), 1e-6)

	assert.Equal(t, fit{}, containFit(0, 100, 10, 10))
	assert.Equal(t, float32(0), fit{}.ratioAt(10))
}
