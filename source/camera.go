//go:build !gocv

package source

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	driverutils "github.com/pion/mediadevices/pkg/driver"
	mediadevicescamera "github.com/pion/mediadevices/pkg/driver/camera"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Camera reads frames from a capture device through pion/mediadevices.
type Camera struct {
	driver driverutils.Driver
	reader video.Reader
}

// OpenCamera opens the index-th video recorder known to the driver manager.
func OpenCamera(index int, opts Options) (*Camera, error) {
	logger := opts.logger()

	mediadevicescamera.Initialize()
	drivers := driverutils.GetManager().Query(driverutils.FilterVideoRecorder())
	if index < 0 || index >= len(drivers) {
		return nil, errors.Errorf("no camera at index %d, %d found", index, len(drivers))
	}

	d := drivers[index]
	recorder, ok := d.(driverutils.VideoRecorder)
	if !ok {
		return nil, errors.Errorf("driver %s is not a video recorder", d.Info().Label)
	}
	if err := d.Open(); err != nil {
		return nil, errors.Wrapf(err, "open driver %s", d.Info().Label)
	}

	var errs error
	for _, p := range rankProperties(d.Properties(), opts.Width, opts.Height) {
		reader, err := recorder.VideoRecord(p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		logger.Infow("camera opened",
			"label", d.Info().Label,
			"width", p.Video.Width,
			"height", p.Video.Height,
			"format", p.Video.FrameFormat)
		return &Camera{driver: d, reader: reader}, nil
	}

	if errs == nil {
		errs = errors.New("driver reports no video properties")
	}
	return nil, multierr.Append(errors.Wrapf(errs, "record from %s", d.Info().Label), d.Close())
}

// rankProperties orders the driver's modes by distance to the wanted size.
func rankProperties(props []prop.Media, width, height int) []prop.Media {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}

	ranked := make([]prop.Media, len(props))
	copy(ranked, props)
	distance := func(p prop.Media) int {
		return abs(p.Video.Width-width) + abs(p.Video.Height-height)
	}
	// insertion sort keeps equally distant modes in driver order
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && distance(ranked[j]) < distance(ranked[j-1]); j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Next copies the latest frame out of the driver's buffer.
func (c *Camera) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, release, err := c.reader.Read()
	if release != nil {
		defer release()
	}
	if err != nil {
		return nil, errors.Wrap(err, "read camera frame")
	}
	return imaging.Clone(img), nil
}

// Close closes the driver.
func (c *Camera) Close() error {
	return c.driver.Close()
}
