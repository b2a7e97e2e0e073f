package algorithms

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func pageMat(t *testing.T, w, h int, blocks ...image.Rectangle) gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), h, w, gocv.MatTypeCV8UC3)
	for _, r := range blocks {
		gocv.Rectangle(&mat, r, color.RGBA{0, 0, 0, 255}, -1)
	}
	return mat
}

func TestGrayscaleMat(t *testing.T) {
	src := pageMat(t, 40, 20, image.Rect(5, 5, 10, 10))
	defer src.Close()

	gray, err := GrayscaleMat(src)
	require.NoError(t, err)
	defer gray.Close()
	assert.Equal(t, 1, gray.Channels())
	assert.Equal(t, 40, gray.Cols())
	assert.Equal(t, uint8(0), gray.GetUCharAt(7, 7))
	assert.Equal(t, uint8(255), gray.GetUCharAt(0, 0))

	_, err = GrayscaleMat(gocv.NewMat())
	assert.Error(t, err)
}

func TestBuildForegroundMask(t *testing.T) {
	block := image.Rect(60, 40, 140, 160)
	src := pageMat(t, 200, 200, block)
	defer src.Close()
	gray, err := GrayscaleMat(src)
	require.NoError(t, err)
	defer gray.Close()

	mask, err := BuildForegroundMask(gray, DefaultMaskParams())
	require.NoError(t, err)
	require.Len(t, mask.Projection, 200)

	bounds, ok := mask.Bounds()
	require.True(t, ok)
	assert.InDelta(t, block.Min.X, bounds.Min.X, 3)
	assert.InDelta(t, block.Max.X, bounds.Max.X, 3)
	assert.InDelta(t, block.Min.Y, bounds.Min.Y, 3)
	assert.InDelta(t, block.Max.Y, bounds.Max.Y, 3)

	assert.InDelta(t, 80.0*120.0/(200.0*200.0), mask.Ratio(), 0.02)
	assert.InDelta(t, 0, mask.Projection[10], 1e-6)
	assert.InDelta(t, 120, mask.Projection[100], 3)

	left, ok := mask.BoundsWithin(0, 50)
	assert.False(t, ok)
	assert.Equal(t, image.Rectangle{}, left)
}

func TestBuildForegroundMaskBlankPage(t *testing.T) {
	src := pageMat(t, 120, 80)
	defer src.Close()
	gray, err := GrayscaleMat(src)
	require.NoError(t, err)
	defer gray.Close()

	mask, err := BuildForegroundMask(gray, DefaultMaskParams())
	require.NoError(t, err)
	_, ok := mask.Bounds()
	assert.False(t, ok)
	assert.Zero(t, mask.Ratio())
}
