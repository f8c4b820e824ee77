package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const appID = "io.fadingink.board"

// RunApp opens the drawing window and blocks until it is closed. A
// non-empty shareLink is shown so other machines can join. onStarted, if
// set, runs once the app is up.
func RunApp(shareLink string, board *Board, onStarted func()) {
	a := app.NewWithID(appID)
	if onStarted != nil {
		a.Lifecycle().SetOnStarted(onStarted)
	}
	w := a.NewWindow(windowTitle(shareLink))
	w.Resize(fyne.NewSize(1024, 768))

	top := NewToolbar(board, Palette)
	bottom := container.NewHBox(board.Status())
	if shareLink != "" {
		link := widget.NewEntry()
		link.SetText(shareLink)
		link.Disable()
		bottom.Add(widget.NewLabel("Share:"))
		bottom.Add(link)
	}

	w.SetContent(container.NewBorder(top, bottom, nil, nil, board))
	w.ShowAndRun()
}

func windowTitle(shareLink string) string {
	if shareLink == "" {
		return "FadingInk"
	}
	return "FadingInk (hosting)"
}
