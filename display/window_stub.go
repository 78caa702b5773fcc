//go:build !gocv

package display

import (
	"image"
	"time"

	"github.com/pkg/errors"
)

// ErrNoWindow is returned by NewWindow in builds without OpenCV.
var ErrNoWindow = errors.New("window display needs a build with -tags gocv")

// Window is unavailable without OpenCV.
type Window struct{}

// NewWindow always fails in this build.
func NewWindow(string) (*Window, error) { return nil, ErrNoWindow }

// Show never succeeds.
func (*Window) Show(image.Image) error { return ErrNoWindow }

// Poll never reports a key.
func (*Window) Poll(time.Duration) bool { return false }

// Close is a no-op.
func (*Window) Close() error { return nil }
