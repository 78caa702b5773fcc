// Package display presents annotated frames and watches for the operator's
// quit key.
package display

import (
	"image"
	"time"

	"go.uber.org/multierr"
)

// Sink receives every annotated frame. Show must not retain img after it returns
// unless it copies it.
type Sink interface {
	Show(img image.Image) error
	Close() error
}

// KeyPoller reports whether a key was pressed, waiting at most timeout.
type KeyPoller interface {
	Poll(timeout time.Duration) bool
	Close() error
}

type discard struct{}

func (discard) Show(image.Image) error { return nil }
func (discard) Close() error           { return nil }

// Discard drops every frame.
var Discard Sink = discard{}

type multiSink []Sink

// Multi fans frames out to every sink. All sinks see the frame even when one
// of them fails.
func Multi(sinks ...Sink) Sink {
	switch len(sinks) {
	case 0:
		return Discard
	case 1:
		return sinks[0]
	}
	return multiSink(sinks)
}

func (m multiSink) Show(img image.Image) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Show(img))
	}
	return err
}

func (m multiSink) Close() error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Close())
	}
	return err
}

type noKeys struct{}

func (noKeys) Poll(time.Duration) bool { return false }
func (noKeys) Close() error            { return nil }

// NoKeys never reports a key and never waits.
var NoKeys KeyPoller = noKeys{}

type anyKey []KeyPoller

// AnyKey combines pollers. The timeout is shared out between them so a poll
// still returns within the bound.
func AnyKey(pollers ...KeyPoller) KeyPoller {
	switch len(pollers) {
	case 0:
		return NoKeys
	case 1:
		return pollers[0]
	}
	return anyKey(pollers)
}

func (a anyKey) Poll(timeout time.Duration) bool {
	share := timeout / time.Duration(len(a))
	for _, p := range a {
		if p.Poll(share) {
			return true
		}
	}
	return false
}

func (a anyKey) Close() error {
	var err error
	for _, p := range a {
		err = multierr.Append(err, p.Close())
	}
	return err
}
