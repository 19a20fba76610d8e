// Package gui renders an embedded terminal window for environment shells.
package gui

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	fyneterm "github.com/fyne-io/terminal"
)

// Default window size when the config does not set one.
const (
	DefaultWidth  float32 = 900
	DefaultHeight float32 = 600
)

// nopWriteCloser wraps an io.Writer with a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// RunTerminal opens a window with a terminal emulator bound to an
// environment shell. shellIn carries keyboard input to the shell,
// shellOut carries shell output to the display. onClose is called when
// the user closes the window or the shell exits. Blocks until the
// window is gone.
func RunTerminal(shellIn io.Writer, shellOut io.Reader, title string, width, height float32, onClose func()) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	a := app.New()
	w := a.NewWindow(title)
	w.SetPadded(false)
	w.Resize(fyne.NewSize(width, height))

	t := fyneterm.New()
	w.SetContent(t)

	w.SetCloseIntercept(func() {
		if onClose != nil {
			onClose()
		}
		a.Quit()
	})

	// First SIGINT/SIGTERM closes the window gracefully, a second
	// forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if onClose != nil {
			onClose()
		}
		a.Quit()

		<-sigCh
		os.Exit(1)
	}()

	// The window follows the shell: when the shell side ends, close.
	go func() {
		_ = t.RunWithConnection(nopWriteCloser{shellIn}, shellOut)
		if onClose != nil {
			onClose()
		}
		a.Quit()
	}()

	w.Show()
	w.Canvas().Focus(t)
	a.Run()
}
