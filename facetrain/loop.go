package facetrain

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FrameSource yields frames until it returns io.EOF.
type FrameSource interface {
	Next(ctx context.Context) (image.Image, error)
}

// Sink presents annotated frames.
type Sink interface {
	Show(img image.Image) error
}

// KeyPoller reports a quit request, waiting at most timeout.
type KeyPoller interface {
	Poll(timeout time.Duration) bool
}

// State of the loop.
type State int

// Loop states. There is no pause.
const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Loop pulls frames, annotates them and presents them until the source ends,
// the operator presses a key or the context is cancelled.
type Loop struct {
	cfg      Config
	detector *Detector
	src      FrameSource
	sink     Sink
	keys     KeyPoller
	logger   *zap.SugaredLogger

	state State
	stats Stats
}

// NewLoop builds a loop over an opened source.
func NewLoop(cfg Config, detector *Detector, src FrameSource, sink Sink, keys KeyPoller, logger *zap.SugaredLogger) *Loop {
	cfg.setDefaults()
	return &Loop{
		cfg:      cfg,
		detector: detector,
		src:      src,
		sink:     sink,
		keys:     keys,
		logger:   logger,
		state:    Stopped,
	}
}

// State returns the current state.
func (l *Loop) State() State { return l.state }

// Stats returns the counters collected so far.
func (l *Loop) Stats() Stats { return l.stats }

// Run blocks until the loop stops. The end of the source, a failed read and
// the quit key are normal stops and return nil; only a failing sink is an
// error.
func (l *Loop) Run(ctx context.Context) error {
	l.state = Running
	defer func() {
		l.state = Stopped
		l.stats.Log(l.logger)
	}()

	for {
		if err := ctx.Err(); err != nil {
			l.logger.Infow("interrupted", "frames", l.stats.Frames)
			return nil
		}
		if l.cfg.MaxFrames > 0 && l.stats.Frames >= l.cfg.MaxFrames {
			l.logger.Infow("frame limit reached", "frames", l.stats.Frames)
			return nil
		}

		frame, err := l.src.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				l.logger.Infow("frame source exhausted", "frames", l.stats.Frames)
			case ctx.Err() != nil:
				l.logger.Infow("interrupted", "frames", l.stats.Frames)
			default:
				l.logger.Warnw("frame read failed, stopping", "frames", l.stats.Frames, "error", err)
			}
			return nil
		}

		annotated, res := l.detector.Process(frame)
		l.stats.Add(res)
		l.logger.Infow("detection time",
			"frame", l.stats.Frames,
			"subject", l.cfg.Name,
			"regions", len(res.Regions),
			"ms", float64(res.Elapsed)/float64(time.Millisecond))

		if err := l.sink.Show(annotated); err != nil {
			return errors.Wrapf(err, "present frame %d", l.stats.Frames)
		}

		if l.keys.Poll(l.cfg.KeyWait) {
			l.logger.Infow("quit key pressed", "frames", l.stats.Frames)
			return nil
		}
	}
}
