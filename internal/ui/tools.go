package ui

import (
	"image/color"

	"FadingInk/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Palette is the set of ink colors offered in the toolbar.
var Palette = []state.Color{
	state.Red,
	0xFFFF9800, // orange
	0xFFFFEB3B, // yellow
	0xFF4CAF50, // green
	0xFF03A9F4, // light blue
	0xFF9C27B0, // purple
	0xFFFFFFFF, // white
}

type colorSwatch struct {
	widget.BaseWidget
	Color    state.Color
	OnTapped func(state.Color)
}

func newColorSwatch(c state.Color, tapped func(state.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color.NRGBA())
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// NewToolbar builds the color palette for board. The label next to it
// shows the selected color.
func NewToolbar(board *Board, colors []state.Color) fyne.CanvasObject {
	current := widget.NewLabel("")
	pick := func(c state.Color) {
		board.SetColor(c)
		current.SetText(c.String())
	}

	swatches := container.NewHBox()
	for _, c := range colors {
		swatches.Add(newColorSwatch(c, pick))
	}
	current.SetText(board.Color().String())

	return container.NewHBox(
		widget.NewLabel("Color:"),
		swatches,
		current,
		layout.NewSpacer(),
	)
}
