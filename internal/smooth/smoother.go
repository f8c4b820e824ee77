// Package smooth turns raw pointer samples into smoothed stroke curves.
//
// Samples are snapped to a coarse grid to suppress jitter. A sample is only
// accepted when it lands in a different grid cell than the previous accepted
// one; every accepted point adds a quadratic segment whose control point is
// the previous point and whose end is the midpoint between the two. Closing
// the stroke adds a straight line to the last accepted point.
package smooth

import "FadingInk/internal/state"

// DefaultBlockSize is the grid cell size in pixels.
const DefaultBlockSize = 8

// Snap maps a raw sample to its grid cell. Coordinates are truncated first,
// then divided, both toward zero.
func Snap(x, y float64, block int) state.Point {
	return state.Point{X: int(x) / block, Y: int(y) / block}
}

// Smoother builds the curve for one stroke at a time. It is not safe for
// concurrent use; the curves it returns are immutable and may be shared.
type Smoother struct {
	block  int
	seg    *state.Segment
	path   state.CurveBuilder
	last   state.Point
	active bool
}

func New(block int) *Smoother {
	if block <= 0 {
		block = DefaultBlockSize
	}
	return &Smoother{block: block}
}

func (s *Smoother) BlockSize() int { return s.block }

// Active reports whether a stroke has begun and not yet ended.
func (s *Smoother) Active() bool { return s.active }

// Begin starts a new stroke at the snapped sample and returns that grid point.
// Any unfinished stroke is discarded.
func (s *Smoother) Begin(x, y float64, c state.Color) state.Point {
	p := Snap(x, y, s.block)
	s.seg = state.NewSegment(c)
	s.seg.Add(p)
	s.path.Reset()
	s.path.MoveTo(s.scale(p))
	s.last = p
	s.active = true
	return p
}

// Feed offers a raw sample and reports whether it was accepted.
func (s *Smoother) Feed(x, y float64) bool {
	if !s.active {
		return false
	}
	p := Snap(x, y, s.block)
	if abs(p.X-s.last.X) < 1 && abs(p.Y-s.last.Y) < 1 {
		return false
	}
	ctrl := s.scale(s.last)
	s.path.QuadTo(ctrl, state.Mid(ctrl, s.scale(p)))
	s.last = p
	s.seg.Add(p)
	return true
}

// End closes the stroke with a line to the last accepted point and returns
// the finished curve. Calling End without an active stroke returns the
// previous curve unchanged.
func (s *Smoother) End() state.Curve {
	if s.active {
		s.path.LineTo(s.scale(s.last))
		s.active = false
	}
	return s.path.Curve()
}

// Curve returns a snapshot of the curve built so far.
func (s *Smoother) Curve() state.Curve { return s.path.Curve() }

// Segment returns the accepted grid points of the current or last stroke.
func (s *Smoother) Segment() *state.Segment { return s.seg }

func (s *Smoother) scale(p state.Point) state.Vec {
	return state.Vec{X: float64(p.X * s.block), Y: float64(p.Y * s.block)}
}

// FromSegment rebuilds the closed curve for a finished stroke from its
// accepted points. It yields exactly what the Smoother produced for it.
func FromSegment(seg state.Segment, block int) state.Curve {
	if block <= 0 {
		block = DefaultBlockSize
	}
	if len(seg.Points) == 0 {
		return state.Curve{}
	}
	s := &Smoother{block: block}
	first := seg.Points[0]
	s.path.MoveTo(s.scale(first))
	prev := first
	for _, p := range seg.Points[1:] {
		ctrl := s.scale(prev)
		s.path.QuadTo(ctrl, state.Mid(ctrl, s.scale(p)))
		prev = p
	}
	s.path.LineTo(s.scale(prev))
	return s.path.Curve()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
