// Package ink rasterizes stroke curves: the persistent buffer that finished
// strokes are baked into, and the per-frame overlay of live strokes.
package ink

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"FadingInk/internal/logging"
	"FadingInk/internal/state"

	"github.com/anthonynsimon/bild/blur"
	"github.com/gogpu/gg"
)

// ErrNotAllocated is the panic value when a buffer is drawn into before
// its first Resize.
var ErrNotAllocated = errors.New("ink: stroke buffer used before Resize")

// Buffer is the persistent raster that finished strokes are composited into.
// Resize and Commit are mutually exclusive.
type Buffer struct {
	mu      sync.Mutex
	dc      *gg.Context
	version atomic.Uint64
	logger  *slog.Logger
}

func NewBuffer(logger *slog.Logger) *Buffer {
	return &Buffer{logger: logging.Component(logger, "buffer")}
}

// Resize reallocates the raster, discarding its content.
func (b *Buffer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize stroke buffer to %dx%d: dimensions must be positive", width, height)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dc != nil {
		_ = b.dc.Close()
	}
	b.dc = gg.NewContext(width, height)
	b.version.Add(1)
	b.logger.Debug("stroke buffer allocated", "width", width, "height", height)
	return nil
}

// Size returns the allocated dimensions, or zero before the first Resize.
func (b *Buffer) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dc == nil {
		return 0, 0
	}
	return b.dc.Width(), b.dc.Height()
}

// Commit bakes curve into the buffer with paint p: a blurred shadow in the
// stroke color first, then the stroke itself. It panics with ErrNotAllocated
// if Resize was never called.
func (b *Buffer) Commit(c state.Curve, p state.Paint) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dc == nil {
		panic(ErrNotAllocated)
	}
	if c.Empty() {
		return
	}
	if p.ShadowRadius > 0 {
		b.drawShadow(c, p)
	}
	if err := Stroke(b.dc, c, p); err != nil {
		b.logger.Warn("stroke commit failed", "err", err)
		return
	}
	b.version.Add(1)
}

// Version changes every time the buffer content changes. Hosts use it to
// skip re-uploading an unchanged image.
func (b *Buffer) Version() uint64 { return b.version.Load() }

// Image returns a copy of the buffer pixels, or nil before the first Resize.
func (b *Buffer) Image() image.Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dc == nil {
		return nil
	}
	return b.dc.Image()
}

// drawShadow strokes c onto a scratch layer cropped to the stroke bounds,
// blurs it and draws the result beneath the stroke.
func (b *Buffer) drawShadow(c state.Curve, p state.Paint) {
	area, ok := shadowArea(c, p, b.dc.Width(), b.dc.Height())
	if !ok {
		return
	}
	layer := gg.NewContext(area.Dx(), area.Dy())
	defer layer.Close()
	layer.Translate(-float64(area.Min.X), -float64(area.Min.Y))
	if err := Stroke(layer, c, p); err != nil {
		b.logger.Warn("shadow layer failed", "err", err)
		return
	}
	blurred := blur.Gaussian(layer.Image(), p.ShadowRadius/2)
	b.dc.DrawImage(gg.ImageBufFromImage(blurred), float64(area.Min.X), float64(area.Min.Y))
}

// shadowArea is the curve's bounding box grown by the stroke half-width and
// the blur radius, clipped to the buffer.
func shadowArea(c state.Curve, p state.Paint, width, height int) (image.Rectangle, bool) {
	minV, maxV, ok := c.Bounds()
	if !ok {
		return image.Rectangle{}, false
	}
	pad := p.Width/2 + p.ShadowRadius
	r := image.Rect(
		int(math.Floor(minV.X-pad)), int(math.Floor(minV.Y-pad)),
		int(math.Ceil(maxV.X+pad)), int(math.Ceil(maxV.Y+pad)),
	).Intersect(image.Rect(0, 0, width, height))
	return r, !r.Empty()
}

// Stroke replays c into dc and strokes it with p.
func Stroke(dc *gg.Context, c state.Curve, p state.Paint) error {
	dc.SetColor(p.Color.NRGBA())
	dc.SetLineWidth(p.Width)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	c.Replay(dc)
	return dc.Stroke()
}
