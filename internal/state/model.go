package state

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Point is a position on the coarse drawing grid (raw pixels divided by the
// block size).
type Point struct{ X, Y int }

// Color is a 32-bit ARGB value, the same layout the host's color picker hands us.
type Color uint32

const (
	Red        Color = 0xFFFF0000
	Background Color = 0xFF303030
)

func (c Color) Alpha() uint8 { return uint8(c >> 24) }

// WithAlpha returns c with its alpha channel replaced.
func (c Color) WithAlpha(a uint8) Color {
	return Color(uint32(c)&0x00FFFFFF | uint32(a)<<24)
}

// NRGBA converts to a non-premultiplied image/color value.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(c >> 16),
		G: uint8(c >> 8),
		B: uint8(c),
		A: c.Alpha(),
	}
}

func (c Color) String() string {
	return fmt.Sprintf("#%08X", uint32(c))
}

// FromColor converts any image/color value into ARGB.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color(uint32(n.A)<<24 | uint32(n.R)<<16 | uint32(n.G)<<8 | uint32(n.B))
}

// ParseColor accepts "#AARRGGBB" or "#RRGGBB" (opaque).
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 6:
		hex = "FF" + hex
	case 8:
	default:
		return 0, fmt.Errorf("parse color %q: want #RRGGBB or #AARRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", s, err)
	}
	return Color(v), nil
}

// MarshalText lets colors appear as strings in config files and relay messages.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Segment is the ordered list of accepted grid points of one stroke plus the
// color it was drawn with. Only the stroke that owns it appends to it.
type Segment struct {
	Color  Color   `json:"color"`
	Points []Point `json:"points"`
}

func NewSegment(c Color) *Segment {
	return &Segment{Color: c}
}

func (s *Segment) Add(p Point) {
	s.Points = append(s.Points, p)
}

func (s *Segment) Len() int { return len(s.Points) }

// Last returns the most recently accepted point.
func (s *Segment) Last() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Clone returns a copy that does not share the point slice.
func (s *Segment) Clone() Segment {
	pts := make([]Point, len(s.Points))
	copy(pts, s.Points)
	return Segment{Color: s.Color, Points: pts}
}
