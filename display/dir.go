package display

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DirSink writes every frame to a numbered file in a directory.
type DirSink struct {
	dir    string
	ext    string
	frame  int
	logger *zap.SugaredLogger
}

// NewDirSink creates dir when needed. ext picks the encoding: jpg (the
// default), jpeg or png, with or without the leading dot.
func NewDirSink(dir, ext string, logger *zap.SugaredLogger) (*DirSink, error) {
	ext = "." + strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "." {
		ext = ".jpg"
	}
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return nil, errors.Errorf("unsupported image format %q", ext)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create output directory %s", dir)
	}
	return &DirSink{dir: dir, ext: ext, logger: logger}, nil
}

// Show encodes img as frame_NNNNNN.ext.
func (s *DirSink) Show(img image.Image) (err error) {
	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d%s", s.frame, s.ext))
	s.frame++

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	if err := encodeImage(out, img, s.ext); err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	s.logger.Debugw("frame written", "path", path)
	return nil
}

// Close is a no-op.
func (s *DirSink) Close() error { return nil }

func encodeImage(dst io.Writer, img image.Image, ext string) error {
	switch ext {
	case "", ".jpg", ".jpeg":
		return jpeg.Encode(dst, img, &jpeg.Options{Quality: 100})
	case ".png":
		return png.Encode(dst, img)
	default:
		return errors.New("unsupported image format")
	}
}
