// Package net mirrors finished strokes between drawing surfaces on the local
// network: a websocket hub on the hosting surface, a client on joining ones,
// and mDNS to find each other.
package net

import (
	"errors"
	"fmt"

	"FadingInk/internal/state"
)

type MessageType string

const (
	TypeStroke MessageType = "stroke"
)

// Message is one websocket text frame.
type Message struct {
	Type   MessageType    `json:"type"`
	Stroke *StrokeMessage `json:"stroke,omitempty"`
}

// StrokeMessage carries a finished stroke as its accepted grid points; the
// receiver rebuilds the curve with its own smoother.
type StrokeMessage struct {
	ID      string        `json:"id"`
	Site    string        `json:"site"`
	Lamport uint64        `json:"lamport"`
	Segment state.Segment `json:"segment"`
}

// MaxPoints bounds the grid points of one relayed stroke. Remote strokes are
// rasterized with a blur under the buffer lock, so their cost must stay
// bounded.
const MaxPoints = 4096

// maxMessageSize is the read limit on relay connections. It fits a stroke
// of MaxPoints points with room to spare.
const maxMessageSize = 256 << 10

var (
	errEmptyStroke   = errors.New("stroke has no points")
	errTooManyPoints   = fmt.Errorf("stroke has more than %d points", MaxPoints)
)

func (m StrokeMessage) Validate() error {
	if m.ID == "" {
		return errors.New("stroke has no id")
	}
	if len(m.Segment.Points) == 0 {
		return fmt.Errorf("stroke %s: %w", m.ID, errEmptyStroke)
	}
	if len(m.Segment.Points) > MaxPoints {
		return fmt.Errorf("stroke %s: %d points: %w", m.ID, len(m.Segment.Points), errTooManyPoints)
	}
	return nil
}
