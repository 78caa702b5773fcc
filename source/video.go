package source

import (
	"bufio"
	"context"
	"image"
	"io"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// Video decodes a file through an ffmpeg child process emitting raw RGB frames.
type Video struct {
	width, height int

	reader *bufio.Reader
	pipe   *io.PipeReader
	buf    []byte

	cancel context.CancelFunc
	done   chan struct{}
	logger *zap.SugaredLogger
}

// NewVideo probes path for its dimensions and starts decoding it.
func NewVideo(ctx context.Context, path string, opts Options) (*Video, error) {
	// make sure ffmpeg is in the path before doing anything else
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, errors.Wrap(err, "decoding video needs ffmpeg")
	}

	width, height, err := probe(path)
	if err != nil {
		return nil, err
	}

	// the context is applied to the spawned process
	cancelableCtx, cancel := context.WithCancel(ctx)
	in, out := io.Pipe()
	v := &Video{
		width:  width,
		height: height,
		reader: bufio.NewReaderSize(in, width*height*3),
		pipe:   in,
		buf:    make([]byte, width*height*3),
		cancel: cancel,
		done:   make(chan struct{}),
		logger: opts.logger(),
	}

	go func() {
		defer close(v.done)
		stream := ffmpeg.Input(path).Output("pipe:", ffmpeg.KwArgs{
			"format":   "rawvideo",
			"pix_fmt":  "rgb24",
			"loglevel": "error",
		})
		stream.Context = cancelableCtx
		err := stream.WithOutput(out).Run()
		if err != nil && cancelableCtx.Err() == nil {
			v.logger.Warnw("ffmpeg exited", "path", path, "error", err)
		}
		// A nil error makes the reader see io.EOF.
		out.CloseWithError(err)
	}()

	v.logger.Debugw("video opened", "path", path, "width", width, "height", height)
	return v, nil
}

// probe reads the size of the first video stream with ffprobe.
func probe(path string) (int, int, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "could not read %s", path)
	}

	stream := gjson.Get(out, `streams.#(codec_type=="video")`)
	if !stream.Exists() {
		return 0, 0, errors.Errorf("%s has no video stream", path)
	}
	width, height := int(stream.Get("width").Int()), int(stream.Get("height").Int())
	if width <= 0 || height <= 0 {
		return 0, 0, errors.Errorf("%s reports an invalid frame size %dx%d", path, width, height)
	}
	return width, height, nil
}

// Next blocks until ffmpeg has written a whole frame.
func (v *Video) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(v.reader, v.buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	return rgbToNRGBA(v.buf, v.width, v.height), nil
}

// Close stops ffmpeg and waits for it to exit.
func (v *Video) Close() error {
	v.cancel()
	err := v.pipe.Close()
	<-v.done
	return err
}

func rgbToNRGBA(rgb []byte, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i+2 < len(rgb) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = rgb[i]
		img.Pix[j+1] = rgb[i+1]
		img.Pix[j+2] = rgb[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}
