// Package source yields frames from cameras, video files, still images and
// image directories.
package source

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Source is a lazy, possibly infinite sequence of frames. Next blocks until a
// frame is available and returns io.EOF once the source is exhausted. The
// returned image belongs to the caller.
type Source interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// Options tune how a source is opened.
type Options struct {
	Logger *zap.SugaredLogger
	// Width and Height are the preferred camera resolution, 0 picks 640x480.
	Width  int
	Height int
}

func (o Options) logger() *zap.SugaredLogger {
	if o.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return o.Logger
}

// CameraIndex reports whether the descriptor names a camera: empty means
// camera 0, a single digit means that camera.
func CameraIndex(descriptor string) (int, bool) {
	if descriptor == "" {
		return 0, true
	}
	if len(descriptor) == 1 && descriptor[0] >= '0' && descriptor[0] <= '9' {
		return int(descriptor[0] - '0'), true
	}
	return 0, false
}

// Open resolves a descriptor to a source. Directories yield their images in
// name order, GIFs yield every frame, other image files yield one frame and
// anything else is decoded as video.
func Open(ctx context.Context, descriptor string, opts Options) (Source, error) {
	logger := opts.logger()

	if index, ok := CameraIndex(descriptor); ok {
		src, err := OpenCamera(index, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "capture from camera #%d didn't work", index)
		}
		return src, nil
	}

	fi, err := os.Stat(descriptor)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", descriptor)
	}
	if fi.IsDir() {
		logger.Debugw("reading image directory", "path", descriptor)
		return NewDir(descriptor)
	}

	ext := strings.ToLower(filepath.Ext(descriptor))
	switch {
	case ext == ".gif":
		return NewGIF(descriptor)
	case imageExts[ext] || isImage(descriptor):
		logger.Debugw("reading still image", "path", descriptor)
		return NewStill(descriptor)
	}

	logger.Debugw("decoding video", "path", descriptor)
	return NewVideo(ctx, descriptor, opts)
}

// isImage sniffs the header of files whose extension tells nothing.
func isImage(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	_, _, err = image.DecodeConfig(f)
	return err == nil
}

// Slice serves a fixed list of frames.
type Slice struct {
	frames []image.Image
	next   int
}

// NewSlice returns a source over frames.
func NewSlice(frames ...image.Image) *Slice {
	return &Slice{frames: frames}
}

// Next returns the following frame or io.EOF.
func (s *Slice) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	img := s.frames[s.next]
	s.next++
	return img, nil
}

// Close forgets the frames.
func (s *Slice) Close() error {
	s.frames = nil
	return nil
}
