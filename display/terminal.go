package display

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Terminal reports key presses on a terminal put into raw mode, so single
// keys arrive without waiting for Enter.
type Terminal struct {
	fd    int
	state *term.State
	keys  chan byte
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewTerminal switches f to raw mode and starts reading keys from it.
func NewTerminal(f *os.File) (*Terminal, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.Errorf("%s is not a terminal", f.Name())
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "enter raw mode")
	}

	t := &Terminal{fd: fd, state: state, keys: make(chan byte, 16)}
	go t.read(f)
	return t, nil
}

// read runs until f fails. A blocked read on stdin cannot be interrupted, the
// goroutine ends with the process.
func (t *Terminal) read(f *os.File) {
	buf := make([]byte, 1)
	for {
		n, err := f.Read(buf)
		if err != nil {
			close(t.keys)
			return
		}
		if n == 1 {
			select {
			case t.keys <- buf[0]:
			default:
			}
		}
	}
}

// Poll waits up to timeout for any key.
func (t *Terminal) Poll(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case _, ok := <-t.keys:
		return ok
	case <-timer.C:
		return false
	}
}

// Close restores the terminal state.
func (t *Terminal) Close() error {
	return term.Restore(t.fd, t.state)
}
