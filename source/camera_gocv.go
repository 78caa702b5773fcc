//go:build gocv

package source

import (
	"context"
	"image"
	"io"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Camera reads frames from a capture device through OpenCV.
type Camera struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// OpenCamera opens the capture device with the given index.
func OpenCamera(index int, opts Options) (*Camera, error) {
	capture, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, errors.Wrapf(err, "open capture device %d", index)
	}
	if opts.Width > 0 && opts.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	}
	opts.logger().Infow("camera opened",
		"index", index,
		"width", int(capture.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(capture.Get(gocv.VideoCaptureFrameHeight)))
	return &Camera{capture: capture, mat: gocv.NewMat()}, nil
}

// Next returns io.EOF once the device stops delivering frames.
func (c *Camera) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, io.EOF
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "convert camera frame")
	}
	return img, nil
}

// Close releases the device.
func (c *Camera) Close() error {
	matErr := c.mat.Close()
	if err := c.capture.Close(); err != nil {
		return err
	}
	return matErr
}
