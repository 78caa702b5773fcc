//go:build gocv

package display

import (
	"image"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Window shows frames in an OpenCV HighGUI window. It is also a KeyPoller,
// because HighGUI only repaints while waiting for keys.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a window with the given title.
func NewWindow(title string) (*Window, error) {
	return &Window{window: gocv.NewWindow(title)}, nil
}

// Show converts img and displays it.
func (w *Window) Show(img image.Image) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return errors.Wrap(err, "convert frame")
	}
	defer mat.Close()
	w.window.IMShow(mat)
	return nil
}

// Poll waits for a key in the window.
func (w *Window) Poll(timeout time.Duration) bool {
	ms := int(timeout / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return w.window.WaitKey(ms) >= 0
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}
