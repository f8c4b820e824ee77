// Package fade runs the periodic task that fades out finished strokes and
// retires them from the live registry.
package fade

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"FadingInk/internal/logging"
	"FadingInk/internal/state"
)

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultStep     = 5
)

// Stats are cumulative counters since the scheduler was created.
type Stats struct {
	Ticks   uint64
	Faded   uint64
	Retired uint64
	Failed  uint64
}

// Scheduler fades every fade-eligible record of one registry. Each surface
// owns its own scheduler.
type Scheduler struct {
	reg      *state.Registry
	interval time.Duration
	step     int
	logger   *slog.Logger

	// OnRetire is called after a record has been removed from the registry.
	// It runs on the scheduler goroutine; a panic in it only affects that
	// record.
	OnRetire func(*state.StrokeRecord)
	// OnTick is called after every tick with the number of records faded.
	OnTick func(faded int)

	ticks, faded, retired, failed atomic.Uint64
}

func New(reg *state.Registry, interval time.Duration, step int, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if step <= 0 {
		step = DefaultStep
	}
	return &Scheduler{
		reg:      reg,
		interval: interval,
		step:     step,
		logger:   logging.Component(logger, "fade"),
	}
}

// Run ticks immediately and then at every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Debug("fade scheduler started", "interval", s.interval, "step", s.step)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.Tick()
		select {
		case <-ctx.Done():
			s.logger.Debug("fade scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick fades every eligible record once and retires those whose opacity
// reached zero. It returns the number of records faded.
func (s *Scheduler) Tick() int {
	n := 0
	for rec := range s.reg.Snapshot() {
		if !rec.FadeEligible() {
			continue
		}
		if err := s.fadeOne(rec); err != nil {
			s.failed.Add(1)
			s.logger.Warn("fade record failed", "id", rec.ID, "err", err)
			continue
		}
		n++
	}
	s.ticks.Add(1)
	s.faded.Add(uint64(n))
	if s.OnTick != nil {
		s.OnTick(n)
	}
	return n
}

func (s *Scheduler) fadeOne(rec *state.StrokeRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if rec.Fade(s.step) > 0 {
		return nil
	}
	if s.reg.Remove(rec) {
		s.retired.Add(1)
		if s.OnRetire != nil {
			s.OnRetire(rec)
		}
	}
	return nil
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks:   s.ticks.Load(),
		Faded:   s.faded.Load(),
		Retired: s.retired.Load(),
		Failed:  s.failed.Load(),
	}
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

func (s *Scheduler) Step() int { return s.step }
