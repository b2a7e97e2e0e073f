package core

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestPadding(t *testing.T) {
	px, py := Padding(1001, 700, 0.01)
	assert.Equal(t, 11, px)
	assert.Equal(t, 7, py)
}

func TestPadAndClamp(t *testing.T) {
	r := PadAndClamp(image.Rect(5, 5, 95, 40), 10, 10, 100, 50)
	assert.Equal(t, image.Rect(0, 0, 100, 50), r)

	r = PadAndClamp(image.Rect(30, 20, 60, 30), 2, 3, 100, 50)
	assert.Equal(t, image.Rect(28, 17, 62, 33), r)
}

func TestCrop(t *testing.T) {
	src := gocv.NewMatWithSize(40, 60, gocv.MatTypeCV8UC3)
	defer src.Close()

	crop := Crop(src, image.Rect(10, 5, 30, 25))
	defer crop.Close()
	assert.Equal(t, 20, crop.Cols())
	assert.Equal(t, 20, crop.Rows())

	outside := Crop(src, image.Rect(100, 100, 120, 120))
	defer outside.Close()
	assert.True(t, outside.Empty())
}

func TestBoxMetadata(t *testing.T) {
	assert.Equal(t, map[string]int{"x": 1, "y": 2, "width": 3, "height": 4}, BoxMetadata(image.Rect(1, 2, 4, 6)))
}

func TestThresholdsValidate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())
	bad := DefaultThresholds()
	bad.PaddingRatio = 2
	assert.Error(t, bad.Validate())
}

func TestNewPageRejectsEmpty(t *testing.T) {
	_, err := NewPage(gocv.NewMat(), "empty.png")
	assert.Error(t, err)
}
