package ui

import (
	"image"
	"log/slog"
	"sync"

	"FadingInk/internal/logging"
	"FadingInk/internal/state"
	"FadingInk/internal/surface"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// Board hosts a drawing surface inside a fyne window. Pointer and touch
// events go to the surface in pixel coordinates and every frame is painted
// through one raster.
type Board struct {
	widget.BaseWidget

	logger *slog.Logger
	raster *canvas.Raster
	status *widget.Label

	mu      sync.Mutex
	surface *surface.Surface
	scale   float32
}

var _ fyne.Widget = (*Board)(nil)
var _ fyne.Draggable = (*Board)(nil)
var _ desktop.Mouseable = (*Board)(nil)
var _ mobile.Touchable = (*Board)(nil)

func NewBoard(logger *slog.Logger) *Board {
	b := &Board{
		logger: logging.Component(logger, "ui"),
		status: widget.NewLabel("Ready"),
		scale:  1,
	}
	b.raster = canvas.NewRaster(b.frame)
	b.raster.SetMinSize(fyne.NewSize(300, 300))
	b.ExtendBaseWidget(b)
	return b
}

// Attach connects the surface the board draws. The surface should have
// been created with the board as its invalidator.
func (b *Board) Attach(s *surface.Surface) {
	b.mu.Lock()
	b.surface = s
	b.mu.Unlock()
	b.Invalidate()
}

func (b *Board) current() (*surface.Surface, float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surface, b.scale
}

// Invalidate schedules a repaint on the fyne goroutine. Safe to call from
// any goroutine; requests made before the app starts are dropped since the
// first paint covers them.
func (b *Board) Invalidate() {
	if fyne.CurrentApp() == nil {
		return
	}
	fyne.Do(b.raster.Refresh)
}

// Status is the label the board reports relay state on.
func (b *Board) Status() *widget.Label { return b.status }

// SetStatus updates the status label. Before the app starts it only sets
// the initial text and must be called from the main goroutine.
func (b *Board) SetStatus(text string) {
	if fyne.CurrentApp() == nil {
		b.status.Text = text
		return
	}
	fyne.Do(func() { b.status.SetText(text) })
}

func (b *Board) SetColor(c state.Color) {
	if s, _ := b.current(); s != nil {
		s.SetColor(c)
	}
}

// Color is the ink color of the next stroke, red until a surface is
// attached.
func (b *Board) Color() state.Color {
	if s, _ := b.current(); s != nil {
		return s.Color()
	}
	return state.Red
}

// frame is the raster generator. It runs whenever the raster is refreshed
// and keeps the stroke buffer the size of the widget in pixels.
func (b *Board) frame(w, h int) image.Image {
	s, _ := b.current()
	if s == nil || w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	}

	b.mu.Lock()
	b.scale = pixelScale(w, b.Size().Width)
	b.mu.Unlock()

	if sw, sh := s.Size(); sw != w || sh != h {
		if err := s.Resize(w, h); err != nil {
			b.logger.Error("resize stroke buffer", "err", err, "width", w, "height", h)
		} else {
			b.logger.Debug("stroke buffer resized", "width", w, "height", h)
		}
	}
	return s.Frame(w, h)
}

func (b *Board) down(pos fyne.Position) {
	if s, scale := b.current(); s != nil {
		s.Down(toPixels(pos, scale))
	}
}

func (b *Board) move(pos fyne.Position) {
	if s, scale := b.current(); s != nil {
		s.Move(toPixels(pos, scale))
	}
}

func (b *Board) up() {
	if s, _ := b.current(); s != nil {
		s.Up()
	}
}

func (b *Board) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.down(e.Position)
	}
}

func (b *Board) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.up()
	}
}

func (b *Board) Dragged(e *fyne.DragEvent) { b.move(e.Position) }

func (b *Board) DragEnd() { b.up() }

func (b *Board) TouchDown(e *mobile.TouchEvent) { b.down(e.Position) }

func (b *Board) TouchUp(*mobile.TouchEvent) { b.up() }

func (b *Board) TouchCancel(*mobile.TouchEvent) { b.up() }

func (b *Board) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.raster)
}

// pixelScale converts fyne units to raster pixels.
func pixelScale(pixels int, units float32) float32 {
	if units <= 0 || pixels <= 0 {
		return 1
	}
	return float32(pixels) / units
}

func toPixels(pos fyne.Position, scale float32) (float64, float64) {
	return float64(pos.X * scale), float64(pos.Y * scale)
}
