package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	DefaultStrokeWidth  = 20.0
	DefaultShadowRadius = 20.0
)

// Paint describes how a stroke is drawn right now. Strokes are always
// round-capped, round-joined and anti-aliased.
type Paint struct {
	Color        Color
	Width        float64
	ShadowRadius float64
	AntiAlias    bool
}

// NewPaint returns the stroke paint for c.
func NewPaint(c Color, width, shadow float64) Paint {
	return Paint{Color: c, Width: width, ShadowRadius: shadow, AntiAlias: true}
}

// StrokeRecord is a renderable stroke held by the Registry. The curve is
// replaced wholesale while the stroke is being drawn; visual state is atomic
// so the fade and render goroutines can touch it without locks.
type StrokeRecord struct {
	ID    string
	paint Paint

	curve    atomic.Pointer[Curve]
	eligible atomic.Bool
	opacity  atomic.Int32
}

// NewStrokeRecord creates a record that is not yet fade-eligible. Its opacity
// starts at the paint color's alpha.
func NewStrokeRecord(p Paint) *StrokeRecord {
	return NewStrokeRecordWithID(uuid.NewString(), p)
}

func NewStrokeRecordWithID(id string, p Paint) *StrokeRecord {
	r := &StrokeRecord{ID: id, paint: p}
	r.curve.Store(&Curve{})
	r.opacity.Store(int32(p.Color.Alpha()))
	return r
}

func (r *StrokeRecord) Curve() Curve { return *r.curve.Load() }

func (r *StrokeRecord) SetCurve(c Curve) { r.curve.Store(&c) }

func (r *StrokeRecord) FadeEligible() bool { return r.eligible.Load() }

func (r *StrokeRecord) MarkFadeEligible() { r.eligible.Store(true) }

func (r *StrokeRecord) Opacity() int { return int(r.opacity.Load()) }

// Fade lowers the opacity by step and returns the new value. Opacity never
// increases; a step <= 0 leaves it unchanged.
func (r *StrokeRecord) Fade(step int) int {
	if step <= 0 {
		return r.Opacity()
	}
	return int(r.opacity.Add(-int32(step)))
}

// Paint returns the paint descriptor with the current opacity applied.
func (r *StrokeRecord) Paint() Paint {
	p := r.paint
	a := r.Opacity()
	if a < 0 {
		a = 0
	}
	p.Color = p.Color.WithAlpha(uint8(a))
	return p
}
