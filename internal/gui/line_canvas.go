// Page canvas with draggable split lines
package gui

import (
	"image"
	"image/color"
	"image/draw"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

var (
	trimColor   = color.NRGBA{R: 220, G: 40, B: 40, A: 255}
	pageColor   = color.NRGBA{R: 30, G: 110, B: 230, A: 255}
	gutterShade = color.NRGBA{R: 30, G: 110, B: 230, A: 60}
	outsideTrim = color.NRGBA{A: 110}
)

// LineCanvas shows a page with the four split lines drawn over it. A line
// can be dragged; the closest line to the pointer is picked up.
type LineCanvas struct {
	widget.BaseWidget

	logger logrus.FieldLogger

	img     image.Image
	lines   [4]float32
	display *canvas.Image
	overlay *canvas.Raster

	dragging int

	// onPick returns the line to drag for a ratio; onMove moves it.
	onPick func(ratio float32) int
	onMove func(line int, ratio float32)
}

func NewLineCanvas(logger logrus.FieldLogger) *LineCanvas {
	lc := &LineCanvas{logger: logger, dragging: -1}
	lc.ExtendBaseWidget(lc)
	return lc
}

func (lc *LineCanvas) CreateRenderer() fyne.WidgetRenderer {
	lc.display = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	lc.display.FillMode = canvas.ImageFillContain
	if lc.img != nil {
		lc.display.Image = lc.img
	}
	lc.overlay = canvas.NewRaster(lc.drawOverlay)
	return &lineCanvasRenderer{canvas: lc, image: lc.display, overlay: lc.overlay}
}

// SetCallbacks wires the drag handlers.
func (lc *LineCanvas) SetCallbacks(onPick func(float32) int, onMove func(int, float32)) {
	lc.onPick = onPick
	lc.onMove = onMove
}

// SetImage replaces the page shown.
func (lc *LineCanvas) SetImage(img image.Image) {
	lc.img = img
	if lc.display != nil && img != nil {
		lc.display.Image = img
		lc.display.Refresh()
	}
	lc.refreshOverlay()
}

// SetLines updates the overlay.
func (lc *LineCanvas) SetLines(lines [4]float32) {
	lc.lines = lines
	lc.refreshOverlay()
}

func (lc *LineCanvas) refreshOverlay() {
	if lc.overlay != nil {
		lc.overlay.Refresh()
	}
}

func (lc *LineCanvas) fit(w, h float64) fit {
	if lc.img == nil {
		return fit{}
	}
	b := lc.img.Bounds()
	return containFit(w, h, b.Dx(), b.Dy())
}

func (lc *LineCanvas) ratioAt(pos fyne.Position) float32 {
	size := lc.Size()
	return lc.fit(float64(size.Width), float64(size.Height)).ratioAt(float64(pos.X))
}

func (lc *LineCanvas) MouseDown(event *desktop.MouseEvent) {
	if lc.img == nil || lc.onPick == nil {
		return
	}
	r := lc.ratioAt(event.Position)
	lc.dragging = lc.onPick(r)
	lc.logger.WithFields(logrus.Fields{"line": lc.dragging, "ratio": r}).Debug("Line picked")
}

func (lc *LineCanvas) MouseUp(event *desktop.MouseEvent) {
	if lc.dragging >= 0 && lc.onMove != nil {
		lc.onMove(lc.dragging, lc.ratioAt(event.Position))
	}
	lc.dragging = -1
}

func (lc *LineCanvas) Dragged(event *fyne.DragEvent) {
	if lc.dragging < 0 || lc.onMove == nil {
		return
	}
	lc.onMove(lc.dragging, lc.ratioAt(event.Position))
}

func (lc *LineCanvas) DragEnd() {
	lc.dragging = -1
}

// drawOverlay shades the trimmed margins and the gutter and draws the four
// lines.
func (lc *LineCanvas) drawOverlay(w, h int) image.Image {
	overlay := image.NewNRGBA(image.Rect(0, 0, w, h))
	f := lc.fit(float64(w), float64(h))
	if f.width <= 0 {
		return overlay
	}
	top, bottom := int(f.offsetY), int(f.offsetY+f.height)
	x := func(i int) int { return int(f.xAt(lc.lines[i])) }

	shade := func(x0, x1 int, c color.NRGBA) {
		if x1 > x0 {
			draw.Draw(overlay, image.Rect(x0, top, x1, bottom), &image.Uniform{C: c}, image.Point{}, draw.Over)
		}
	}
	shade(int(f.offsetX), x(0), outsideTrim)
	shade(x(3), int(f.offsetX+f.width), outsideTrim)
	shade(x(1), x(2), gutterShade)

	for i := range lc.lines {
		c := pageColor
		if i == 0 || i == 3 {
			c = trimColor
		}
		draw.Draw(overlay, image.Rect(x(i)-1, top, x(i)+1, bottom), &image.Uniform{C: c}, image.Point{}, draw.Src)
	}
	return overlay
}

type lineCanvasRenderer struct {
	canvas  *LineCanvas
	image   *canvas.Image
	overlay *canvas.Raster
}

func (r *lineCanvasRenderer) Layout(size fyne.Size) {
	r.image.Resize(size)
	r.overlay.Resize(size)
}

func (r *lineCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

func (r *lineCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.image, r.overlay}
}

func (r *lineCanvasRenderer) Refresh() {
	r.image.Refresh()
	r.overlay.Refresh()
}

func (r *lineCanvasRenderer) Destroy() {}
