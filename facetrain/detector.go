// Package facetrain finds faces, and eyes within them, in a stream of frames
// and outlines them.
package facetrain

import (
	"image"
	"time"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"thaitanloi365/go-face-train/cascade"
)

// lineWidth is the outline stroke, in frame pixels.
const lineWidth = 3

// Detector holds the classifiers shared by every frame.
type Detector struct {
	cfg     Config
	params  cascade.Params
	primary cascade.Classifier
	nested  cascade.Classifier
}

// NewDetector wires already loaded classifiers. nested may be nil.
func NewDetector(cfg Config, primary, nested cascade.Classifier) *Detector {
	cfg.setDefaults()
	return &Detector{
		cfg:     cfg,
		params:  cfg.Params(),
		primary: primary,
		nested:  nested,
	}
}

// LoadDetector loads both classifiers named in cfg. Only a failure to load the
// primary classifier is an error; without the nested one detection carries on
// after a warning.
func LoadDetector(cfg Config, logger *zap.SugaredLogger) (*Detector, error) {
	cfg.setDefaults()

	nestedKind, err := cascade.ParseKind(cfg.NestedKind)
	if err != nil {
		return nil, err
	}
	nested, err := cascade.Load(cfg.Nested, nestedKind)
	if err != nil {
		logger.Warnw("could not load classifier cascade for nested objects", "path", cfg.Nested, "error", err)
		nested = nil
	}

	primaryKind, err := cascade.ParseKind(cfg.CascadeKind)
	if err != nil {
		return nil, multierr.Append(err, closeClassifier(nested))
	}
	primary, err := cascade.Load(cfg.Cascade, primaryKind)
	if err != nil {
		return nil, multierr.Append(errors.Wrap(err, "could not load classifier cascade"), closeClassifier(nested))
	}

	logger.Infow("classifiers loaded", "cascade", cfg.Cascade, "nested", nested != nil)
	return NewDetector(cfg, primary, nested), nil
}

func closeClassifier(c cascade.Classifier) error {
	if c == nil {
		return nil
	}
	return c.Close()
}

// HasNested reports whether nested detection runs.
func (d *Detector) HasNested() bool { return d.nested != nil }

// Close releases both classifiers.
func (d *Detector) Close() error {
	return multierr.Combine(closeClassifier(d.primary), closeClassifier(d.nested))
}

// Result is what one frame produced. All regions are in working-image
// coordinates.
type Result struct {
	Regions []image.Rectangle
	// Nested holds, per primary region, the nested hits already offset by the
	// region's origin. It is nil when nested detection did not run.
	Nested [][]image.Rectangle
	// Elapsed covers the primary and mirrored passes.
	Elapsed time.Duration
}

// Detect runs every pass over the working image.
func (d *Detector) Detect(work *image.Gray) Result {
	start := time.Now()
	regions := d.primary.Detect(work, d.params)
	if d.cfg.TryFlip {
		width := work.Bounds().Dx()
		for _, r := range d.primary.Detect(FlipH(work), d.params) {
			regions = append(regions, Mirror(r, width))
		}
	}
	res := Result{Regions: regions, Elapsed: time.Since(start)}

	if d.nested == nil || len(regions) == 0 {
		return res
	}
	res.Nested = make([][]image.Rectangle, len(regions))
	for i, r := range regions {
		roi := r.Intersect(work.Bounds())
		if roi.Empty() {
			continue
		}
		sub := work.SubImage(roi).(*image.Gray)
		for _, nr := range d.nested.Detect(sub, d.params) {
			res.Nested[i] = append(res.Nested[i], nr.Add(roi.Min))
		}
	}
	return res
}

// Process detects on frame and returns it annotated.
func (d *Detector) Process(frame image.Image) (image.Image, Result) {
	res := d.Detect(Preprocess(frame, d.cfg.Scale))
	return Annotate(frame, res, d.cfg.Scale), res
}

// Annotate draws res over a copy of frame. A result without regions returns
// frame itself.
func Annotate(frame image.Image, res Result, scale float64) image.Image {
	if len(res.Regions) == 0 {
		return frame
	}

	b := frame.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(frame, -b.Min.X, -b.Min.Y)
	dc.SetLineWidth(lineWidth)

	for i, r := range res.Regions {
		dc.SetColor(ColorAt(i))
		if ShapeOf(r) == ShapeCircle {
			c := CircleOf(r, scale)
			dc.DrawCircle(float64(c.Center.X), float64(c.Center.Y), float64(c.Radius))
		} else {
			p1, p2 := RectOf(r, scale)
			dc.DrawRectangle(float64(p1.X), float64(p1.Y), float64(p2.X-p1.X), float64(p2.Y-p1.Y))
		}
		dc.Stroke()

		if i >= len(res.Nested) {
			continue
		}
		for _, nr := range res.Nested[i] {
			c := CircleOf(nr, scale)
			dc.DrawCircle(float64(c.Center.X), float64(c.Center.Y), float64(c.Radius))
			dc.Stroke()
		}
	}
	return dc.Image()
}
