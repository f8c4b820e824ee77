// Package surface ties one drawing surface together: its live registry,
// stroke buffer, renderer, fade scheduler and input controller. Nothing is
// shared between surfaces.
package surface

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"FadingInk/internal/config"
	"FadingInk/internal/fade"
	"FadingInk/internal/ink"
	"FadingInk/internal/input"
	"FadingInk/internal/logging"
	inknet "FadingInk/internal/net"
	"FadingInk/internal/smooth"
	"FadingInk/internal/state"
)

type Surface struct {
	cfg    config.Config
	inv    ink.Invalidator
	logger *slog.Logger

	registry *state.Registry
	buffer   *ink.Buffer
	renderer *ink.Renderer
	fader    *fade.Scheduler
	input    *input.Controller
	clock    *state.Clock

	mu        sync.Mutex
	seen      map[string]struct{}
	observers []func(inknet.StrokeMessage)
	cancel    context.CancelFunc
	done      chan struct{}
}

// New builds a surface. inv receives repaint requests; it may be nil.
func New(cfg config.Config, inv ink.Invalidator, logger *slog.Logger) *Surface {
	if inv == nil {
		inv = ink.InvalidatorFunc(func() {})
	}
	reg := state.NewRegistry()
	buf := ink.NewBuffer(logger)
	s := &Surface{
		cfg:      cfg,
		inv:      inv,
		logger:   logging.Component(logger, "surface"),
		registry: reg,
		buffer:   buf,
		renderer: ink.NewRenderer(reg, inv, logger),
		fader:    fade.New(reg, cfg.Fade.Interval.Duration, cfg.Fade.Step, logger),
		clock:    state.NewClock(),
		seen:     make(map[string]struct{}),
	}
	s.input = input.New(input.Options{
		Registry:     reg,
		Buffer:       buf,
		Invalidator:  inv,
		BlockSize:    cfg.Canvas.BlockSize,
		StrokeWidth:  cfg.Canvas.StrokeWidth,
		ShadowRadius: cfg.Canvas.ShadowRadius,
		Color:        cfg.Canvas.InitialColor,
		Policy:       cfg.Fade.Policy,
		Logger:       logger,
	})
	s.input.OnStroke = s.publish
	// the last frame after a retirement has to be painted even though
	// nothing is animating any more
	s.fader.OnRetire = func(rec *state.StrokeRecord) {
		s.forget(rec.ID)
		inv.Invalidate()
	}
	return s
}

// Start launches the fade scheduler. It runs until ctx is done or Close.
func (s *Surface) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		_ = s.fader.Run(ctx)
	}()
}

// Close stops the fade scheduler and waits for it.
func (s *Surface) Close() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// Resize reallocates the stroke buffer. Previous ink is discarded.
func (s *Surface) Resize(width, height int) error {
	if err := s.buffer.Resize(width, height); err != nil {
		return err
	}
	s.inv.Invalidate()
	return nil
}

func (s *Surface) Size() (int, int) { return s.buffer.Size() }

func (s *Surface) Down(x, y float64) { s.input.Down(x, y) }

func (s *Surface) Move(x, y float64) { s.input.Move(x, y) }

func (s *Surface) Up() { s.input.Up() }

func (s *Surface) SetColor(argb state.Color) { s.input.SetColor(argb) }

func (s *Surface) Color() state.Color { return s.input.Color() }

// Frame composes the background, the finalized ink and the live strokes
// into one width x height image.
func (s *Surface) Frame(width, height int) image.Image {
	return s.renderer.Compose(s.cfg.Canvas.Background, s.buffer, width, height)
}

// OnStroke registers an observer for finished local strokes.
func (s *Surface) OnStroke(f func(inknet.StrokeMessage)) {
	s.mu.Lock()
	s.observers = append(s.observers, f)
	s.mu.Unlock()
}

func (s *Surface) publish(st input.Stroke) {
	msg := inknet.StrokeMessage{
		ID:      st.ID,
		Site:    s.clock.Site(),
		Lamport: s.clock.Tick(),
		Segment: st.Segment,
	}
	if err := msg.Validate(); err != nil {
		s.logger.Warn("stroke not published", "err", err)
		return
	}
	s.mu.Lock()
	s.seen[msg.ID] = struct{}{}
	observers := append([]func(inknet.StrokeMessage){}, s.observers...)
	s.mu.Unlock()

	for _, f := range observers {
		f(msg)
	}
}

// forget drops a retired stroke from the duplicate filter. A relay never
// replays a stroke, so nothing arrives for an ID after its ink has faded.
func (s *Surface) forget(id string) {
	s.mu.Lock()
	delete(s.seen, id)
	s.mu.Unlock()
}

// ApplyRemote draws a stroke finished on another surface: it is baked into
// the buffer and starts fading right away. Strokes already seen, or sent by
// this surface, are ignored. It reports whether the stroke was applied.
func (s *Surface) ApplyRemote(m inknet.StrokeMessage) bool {
	if m.Site == s.clock.Site() || m.Validate() != nil {
		return false
	}
	s.mu.Lock()
	if _, dup := s.seen[m.ID]; dup {
		s.mu.Unlock()
		return false
	}
	s.seen[m.ID] = struct{}{}
	s.mu.Unlock()

	s.clock.Observe(m.Lamport)
	curve := smooth.FromSegment(m.Segment, s.cfg.Canvas.BlockSize)
	paint := state.NewPaint(m.Segment.Color, s.cfg.Canvas.StrokeWidth, s.cfg.Canvas.ShadowRadius)

	if w, _ := s.buffer.Size(); w > 0 {
		s.buffer.Commit(curve, paint)
	} else {
		s.logger.Warn("remote stroke arrived before the buffer was sized", "id", m.ID)
	}

	rec := state.NewStrokeRecordWithID(m.ID, paint)
	rec.SetCurve(curve)
	rec.MarkFadeEligible()
	s.registry.Append(rec)
	s.logger.Debug("remote stroke applied", "id", m.ID, "site", m.Site, "lamport", m.Lamport)
	s.inv.Invalidate()
	return true
}
