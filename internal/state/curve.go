package state

// Vec is a position in fine (pixel) coordinates.
type Vec struct{ X, Y float64 }

// Mid returns the midpoint of a and b.
func Mid(a, b Vec) Vec {
	return Vec{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

type OpKind uint8

const (
	OpMoveTo OpKind = iota
	OpQuadTo
	OpLineTo
)

func (k OpKind) String() string {
	switch k {
	case OpMoveTo:
		return "move"
	case OpQuadTo:
		return "quad"
	case OpLineTo:
		return "line"
	}
	return "unknown"
}

// Op is one path command. Ctrl is only meaningful for OpQuadTo.
type Op struct {
	Kind OpKind
	Ctrl Vec
	To   Vec
}

// PathBuilder is the subset of a drawing context a Curve can be replayed into.
// *gg.Context satisfies it.
type PathBuilder interface {
	MoveTo(x, y float64)
	QuadraticTo(cx, cy, x, y float64)
	LineTo(x, y float64)
}

// Curve is an immutable smoothed path. The zero value is an empty curve.
type Curve struct {
	ops []Op
}

func (c Curve) Len() int { return len(c.ops) }

func (c Curve) Empty() bool { return len(c.ops) == 0 }

// Ops returns a copy of the path commands.
func (c Curve) Ops() []Op {
	out := make([]Op, len(c.ops))
	copy(out, c.ops)
	return out
}

// Quads counts the quadratic segments.
func (c Curve) Quads() int {
	n := 0
	for _, op := range c.ops {
		if op.Kind == OpQuadTo {
			n++
		}
	}
	return n
}

// Bounds returns the bounding box of all command points, control points included.
func (c Curve) Bounds() (minV, maxV Vec, ok bool) {
	if len(c.ops) == 0 {
		return Vec{}, Vec{}, false
	}
	minV, maxV = c.ops[0].To, c.ops[0].To
	grow := func(v Vec) {
		minV.X, minV.Y = min(minV.X, v.X), min(minV.Y, v.Y)
		maxV.X, maxV.Y = max(maxV.X, v.X), max(maxV.Y, v.Y)
	}
	for _, op := range c.ops {
		grow(op.To)
		if op.Kind == OpQuadTo {
			grow(op.Ctrl)
		}
	}
	return minV, maxV, true
}

// Replay issues the curve's commands into b.
func (c Curve) Replay(b PathBuilder) {
	for _, op := range c.ops {
		switch op.Kind {
		case OpMoveTo:
			b.MoveTo(op.To.X, op.To.Y)
		case OpQuadTo:
			b.QuadraticTo(op.Ctrl.X, op.Ctrl.Y, op.To.X, op.To.Y)
		case OpLineTo:
			b.LineTo(op.To.X, op.To.Y)
		}
	}
}

// CurveBuilder accumulates commands and hands out snapshots. Snapshots are
// capped at their length, so later appends never show through them.
type CurveBuilder struct {
	ops []Op
}

func (b *CurveBuilder) Reset() { b.ops = nil }

func (b *CurveBuilder) MoveTo(to Vec) {
	b.ops = append(b.ops, Op{Kind: OpMoveTo, To: to})
}

func (b *CurveBuilder) QuadTo(ctrl, to Vec) {
	b.ops = append(b.ops, Op{Kind: OpQuadTo, Ctrl: ctrl, To: to})
}

func (b *CurveBuilder) LineTo(to Vec) {
	b.ops = append(b.ops, Op{Kind: OpLineTo, To: to})
}

func (b *CurveBuilder) Curve() Curve {
	n := len(b.ops)
	return Curve{ops: b.ops[:n:n]}
}
