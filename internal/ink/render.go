package ink

import (
	"image"
	"log/slog"
	"sync"

	"FadingInk/internal/logging"
	"FadingInk/internal/state"

	"github.com/gogpu/gg"
)

// Invalidator asks the host for another paint.
type Invalidator interface {
	Invalidate()
}

// InvalidatorFunc adapts a plain function to Invalidator.
type InvalidatorFunc func()

func (f InvalidatorFunc) Invalidate() { f() }

// Renderer paints the live strokes of a Registry. After each paint it asks
// for the next frame while any stroke is still fading, and goes idle
// otherwise; input events restart it.
type Renderer struct {
	reg    *state.Registry
	inv    Invalidator
	logger *slog.Logger

	mu sync.Mutex
	dc *gg.Context

	// finalized ink converted for drawing, valid while the buffer version
	// stays inkVersion
	ink         *gg.ImageBuf
	inkVersion  uint64
	inkUploads  int
	inkUploaded bool
}

func NewRenderer(reg *state.Registry, inv Invalidator, logger *slog.Logger) *Renderer {
	if inv == nil {
		inv = InvalidatorFunc(func() {})
	}
	return &Renderer{reg: reg, inv: inv, logger: logging.Component(logger, "render")}
}

// Paint draws every live stroke onto dc, oldest first, and returns how many
// were drawn.
func (r *Renderer) Paint(dc *gg.Context) int {
	n := 0
	for rec := range r.reg.Snapshot() {
		c := rec.Curve()
		if c.Empty() {
			continue
		}
		if err := Stroke(dc, c, rec.Paint()); err != nil {
			r.logger.Warn("paint stroke", "id", rec.ID, "err", err)
			continue
		}
		n++
	}
	if r.reg.Animating() {
		r.inv.Invalidate()
	}
	return n
}

// Compose builds a whole frame: the background, the finalized ink of buf,
// then the live strokes on top. The buffer pixels are only copied again
// when its version changes. The backing context is reused between frames
// of the same size.
func (r *Renderer) Compose(bg state.Color, buf *Buffer, width, height int) image.Image {
	if width <= 0 || height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := r.frame(width, height)
	dc.ClearWithColor(gg.FromColor(bg.NRGBA()))
	if ink := r.inkFor(buf); ink != nil {
		dc.DrawImage(ink, 0, 0)
	}
	r.Paint(dc)
	return dc.Image()
}

// inkFor returns the converted pixels of buf, refreshing them when the
// buffer changed. The version is read first so a concurrent commit at
// worst causes one extra refresh.
func (r *Renderer) inkFor(buf *Buffer) *gg.ImageBuf {
	v := buf.Version()
	if r.inkUploaded && v == r.inkVersion {
		return r.ink
	}
	r.ink = nil
	if img := buf.Image(); img != nil {
		r.ink = gg.ImageBufFromImage(img)
	}
	r.inkVersion = v
	r.inkUploaded = true
	r.inkUploads++
	return r.ink
}

func (r *Renderer) frame(width, height int) *gg.Context {
	if r.dc == nil || r.dc.Width() != width || r.dc.Height() != height {
		if r.dc != nil {
			_ = r.dc.Close()
		}
		r.dc = gg.NewContext(width, height)
	}
	return r.dc
}
