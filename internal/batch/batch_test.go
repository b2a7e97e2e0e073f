package batch

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x956606865/reiChan-sub000/internal/edgetex"
	"github.com/x956606865/reiChan-sub000/internal/report"
)

// writePage saves a white w x h PNG with dark blocks.
func writePage(t *testing.T, path string, w, h int, blocks ...image.Rectangle) {
	t.Helper()
	img := imaging.New(w, h, color.White)
	for _, r := range blocks {
		draw.Draw(img, r, &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, imaging.Save(img, path))
}

func testRunner() *Runner {
	r := NewRunner(nil)
	r.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }
	return r
}

func seedScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, "001.png"), 1000, 700,
		image.Rect(20, 30, 448, 670), image.Rect(472, 30, 960, 670))
	writePage(t, filepath.Join(dir, "002.png"), 1400, 1000, image.Rect(550, 50, 850, 950))
	writePage(t, filepath.Join(dir, "003.png"), 1400, 1000, image.Rect(20, 20, 1380, 980))
	return dir
}

func TestRunScenarios(t *testing.T) {
	dir := seedScenario(t)

	var events []Progress
	out, err := testRunner().Run(Request{Directory: dir, Directive: edgetex.ForceCPU}, func(p Progress) {
		events = append(events, p)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, out.AnalyzedFiles)
	assert.Equal(t, 1, out.SplitPages)
	assert.Equal(t, 1, out.CoverTrims)
	assert.Equal(t, 1, out.FallbackSplits)
	assert.Zero(t, out.Skipped)
	assert.Equal(t, 5, out.EmittedFiles)
	assert.Empty(t, out.Warnings)
	assert.False(t, out.Reused)

	ws := SessionDir(dir, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC))
	assert.Equal(t, ws, out.Workspace)
	for _, name := range []string{"001_R.png", "001_L.png", "002_cover.png", "003_R.png", "003_L.png"} {
		assert.FileExists(t, filepath.Join(ws, name))
	}

	cover, err := imaging.Open(filepath.Join(ws, "002_cover.png"))
	require.NoError(t, err)
	assert.InDelta(t, 328, cover.Bounds().Dx(), 6)
	assert.InDelta(t, 920, cover.Bounds().Dy(), 6)

	rep, err := report.Load(out.ReportPath)
	require.NoError(t, err)
	require.Len(t, rep.Items, 3)
	assert.Equal(t, report.ModeSplit, rep.Items[0].Mode)
	require.NotNil(t, rep.Items[0].SplitX)
	assert.InDelta(t, 460, *rep.Items[0].SplitX, 5)
	assert.GreaterOrEqual(t, rep.Items[0].Confidence, float32(0.9))
	assert.Equal(t, report.ModeCoverTrim, rep.Items[1].Mode)
	assert.Nil(t, rep.Items[1].SplitX)
	assert.Equal(t, report.ModeFallbackCenter, rep.Items[2].Mode)
	require.NotNil(t, rep.Items[2].SplitX)
	assert.InDelta(t, 700, *rep.Items[2].SplitX, 5)
	assert.LessOrEqual(t, rep.Items[2].Confidence, float32(0.1))

	require.Len(t, events, 5)
	assert.Equal(t, StageInitializing, events[0].Stage)
	assert.Equal(t, 3, events[0].TotalFiles)
	for i, ev := range events[1:4] {
		assert.Equal(t, StageProcessing, ev.Stage)
		assert.Equal(t, i+1, ev.ProcessedFiles)
		assert.Equal(t, rep.Items[i].Source, ev.CurrentFile)
		assert.Equal(t, rep.Items[i].Mode, ev.Mode)
	}
	assert.Equal(t, StageCompleted, events[4].Stage)
	assert.Equal(t, 3, events[4].ProcessedFiles)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	dir := seedScenario(t)

	out, err := testRunner().Run(Request{Directory: dir, DryRun: true, Directive: edgetex.ForceCPU}, nil)
	require.NoError(t, err)
	assert.Empty(t, out.Workspace)
	assert.Empty(t, out.ReportPath)
	assert.Equal(t, 5, out.EmittedFiles)
	for _, item := range out.Items {
		assert.Empty(t, item.Outputs)
	}
	assert.NoDirExists(t, filepath.Join(dir, CacheDirName))
}

func TestRunWorkspaceReuseAndOverwrite(t *testing.T) {
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, "a.png"), 700, 1000, image.Rect(50, 50, 650, 950))

	r := testRunner()
	first, err := r.Run(Request{Directory: dir, Directive: edgetex.ForceCPU}, nil)
	require.NoError(t, err)
	assert.False(t, first.Reused)

	stale := filepath.Join(first.Workspace, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	second, err := r.Run(Request{Directory: dir, Directive: edgetex.ForceCPU}, nil)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.FileExists(t, stale)

	third, err := r.Run(Request{Directory: dir, Overwrite: true, Directive: edgetex.ForceCPU}, nil)
	require.NoError(t, err)
	assert.False(t, third.Reused)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(third.Workspace, "a.png"))
}

func TestRunSkipsAndDecodeFailures(t *testing.T) {
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, "portrait.png"), 700, 1000, image.Rect(50, 50, 650, 950))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not an image"), 0o644))

	out, err := testRunner().Run(Request{Directory: dir, Directive: edgetex.ForceCPU}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Skipped)
	assert.Zero(t, out.EmittedFiles)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "broken.jpg")

	require.Len(t, out.Items, 2)
	broken, portrait := out.Items[0], out.Items[1]
	assert.Equal(t, "decode_error", broken.Metadata["reason"])
	assert.Equal(t, "aspect_ratio", portrait.Metadata["reason"])
	assert.FileExists(t, filepath.Join(out.Workspace, "broken.jpg"))
	assert.FileExists(t, filepath.Join(out.Workspace, "portrait.png"))
}

func TestRunMirrorsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, "vol1", "p.png"), 700, 1000)
	writePage(t, filepath.Join(dir, "vol2", "p.png"), 700, 1000)

	out, err := testRunner().Run(Request{Directory: dir, Directive: edgetex.ForceCPU}, nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out.Workspace, "vol1", "p.png"))
	assert.FileExists(t, filepath.Join(out.Workspace, "vol2", "p.png"))
}

func TestRunErrors(t *testing.T) {
	_, err := testRunner().Run(Request{Directory: filepath.Join(t.TempDir(), "missing")}, nil)
	assert.ErrorIs(t, err, ErrDirectoryNotFound)

	empty := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(empty, "notes.txt"), []byte("hi"), 0o644))
	_, err = testRunner().Run(Request{Directory: empty}, nil)
	assert.ErrorIs(t, err, ErrEmptyDirectory)
}

func TestCollectImagesSkipsCache(t *testing.T) {
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, "b.png"), 10, 10)
	writePage(t, filepath.Join(dir, "a.jpg"), 10, 10)
	writePage(t, filepath.Join(dir, CacheDirName, "doublepage", "old.png"), 10, 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), nil, 0o644))

	files, err := CollectImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.png")}, files)
}

func TestWorkerCount(t *testing.T) {
	assert.Equal(t, 1, workerCount(1, 0))
	assert.Equal(t, 1, workerCount(0, 4))
	assert.LessOrEqual(t, workerCount(100, 3), 3)
	assert.LessOrEqual(t, workerCount(100, 0), DefaultWorkerCap)
}

func TestOutputPath(t *testing.T) {
	got := outputPath("/ws", "/in", "/in/vol1/003.png", "_R")
	assert.Equal(t, filepath.Join("/ws", "vol1", "003_R.png"), got)
}

func TestOrderedBuffer(t *testing.T) {
	buf := newOrderedBuffer[int]()
	var wg sync.WaitGroup
	for i := 9; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buf.Put(i, i*i)
		}(i)
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, i*i, buf.Take(i))
	}
	wg.Wait()
}
