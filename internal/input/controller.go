// Package input turns pointer down/move/up events into smoothed strokes.
package input

import (
	"log/slog"
	"sync"

	"FadingInk/internal/config"
	"FadingInk/internal/ink"
	"FadingInk/internal/logging"
	"FadingInk/internal/smooth"
	"FadingInk/internal/state"
)

// Committer bakes a finished curve into persistent ink. *ink.Buffer
// satisfies it.
type Committer interface {
	Commit(state.Curve, state.Paint)
}

// Stroke is a finished local stroke as handed to OnStroke observers.
type Stroke struct {
	ID      string
	Segment state.Segment
}

type Options struct {
	Registry     *state.Registry
	Buffer       Committer
	Invalidator  ink.Invalidator
	BlockSize    int
	StrokeWidth  float64
	ShadowRadius float64
	Color        state.Color
	Policy       config.FadePolicy
	Logger       *slog.Logger
}

// Controller is the pointer state machine of one surface. Events are
// expected from a single goroutine; SetColor may be called from any.
type Controller struct {
	reg    *state.Registry
	buf    Committer
	inv    ink.Invalidator
	policy config.FadePolicy
	width  float64
	shadow float64
	logger *slog.Logger

	mu     sync.Mutex
	sm     *smooth.Smoother
	color  state.Color
	active *state.StrokeRecord

	// OnStroke is called after a stroke has been committed, outside the
	// controller's lock.
	OnStroke func(Stroke)
}

func New(opts Options) *Controller {
	inv := opts.Invalidator
	if inv == nil {
		inv = ink.InvalidatorFunc(func() {})
	}
	width := opts.StrokeWidth
	if width <= 0 {
		width = state.DefaultStrokeWidth
	}
	policy := opts.Policy
	if policy == "" {
		policy = config.FadeAll
	}
	return &Controller{
		reg:    opts.Registry,
		buf:    opts.Buffer,
		inv:    inv,
		policy: policy,
		width:  width,
		shadow: opts.ShadowRadius,
		logger: logging.Component(opts.Logger, "input"),
		sm:     smooth.New(opts.BlockSize),
		color:  opts.Color,
	}
}

// SetColor changes the color used by the next stroke.
func (c *Controller) SetColor(argb state.Color) {
	c.mu.Lock()
	c.color = argb
	c.mu.Unlock()
}

func (c *Controller) Color() state.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.color
}

// Drawing reports whether a stroke is in progress.
func (c *Controller) Drawing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Down starts a stroke at (x, y) and registers its live record. A stroke
// left open by a missing Up is abandoned: it is not committed but it does
// start fading.
func (c *Controller) Down(x, y float64) {
	c.mu.Lock()
	if c.active != nil {
		c.logger.Debug("stroke abandoned", "id", c.active.ID)
		c.reg.MarkFadeEligible(c.active)
	}
	start := c.sm.Begin(x, y, c.color)
	rec := state.NewStrokeRecord(state.NewPaint(c.color, c.width, c.shadow))
	rec.SetCurve(c.sm.Curve())
	c.active = rec
	c.mu.Unlock()

	c.reg.Append(rec)
	c.logger.Debug("stroke started", "id", rec.ID, "x", start.X, "y", start.Y)
	c.inv.Invalidate()
}

// Move extends the current stroke if the sample passes the grid filter.
func (c *Controller) Move(x, y float64) {
	c.mu.Lock()
	if c.active == nil || !c.sm.Feed(x, y) {
		c.mu.Unlock()
		return
	}
	c.active.SetCurve(c.sm.Curve())
	c.mu.Unlock()

	c.inv.Invalidate()
}

// Up closes the current stroke, bakes it into the buffer and starts fading
// according to the fade policy.
func (c *Controller) Up() {
	c.mu.Lock()
	rec := c.active
	if rec == nil {
		c.mu.Unlock()
		return
	}
	c.active = nil
	curve := c.sm.End()
	seg := c.sm.Segment().Clone()
	rec.SetCurve(curve)
	c.mu.Unlock()

	c.buf.Commit(curve, state.NewPaint(seg.Color, c.width, c.shadow))

	switch c.policy {
	case config.FadeCompleted:
		c.reg.MarkFadeEligible(rec)
	default:
		c.reg.MarkAllFadeEligible()
	}
	c.logger.Debug("stroke finished", "id", rec.ID, "points", len(seg.Points))

	if c.OnStroke != nil {
		c.OnStroke(Stroke{ID: rec.ID, Segment: seg})
	}
	c.inv.Invalidate()
}
