package cascade

import (
	"image"

	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

// Pigo wraps a pigo face finder cascade.
type Pigo struct {
	classifier *pigo.Pigo
}

// NewPigo unpacks a binary pigo cascade.
func NewPigo(data []byte) (p *Pigo, err error) {
	// Unpack indexes into the packet without checking its length.
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, errors.Errorf("malformed cascade: %v", r)
		}
	}()

	// Unpack the binary file. This will return the number of cascade trees,
	// the tree depth, the threshold and the prediction from tree's leaf nodes.
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, errors.Wrap(err, "unpack cascade")
	}
	return &Pigo{classifier: classifier}, nil
}

// Detect runs the cascade over img and clusters overlapping hits.
func (c *Pigo) Detect(img *image.Gray, p Params) []image.Rectangle {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	cParams := pigo.CascadeParams{
		MinSize:     p.MinSize,
		MaxSize:     p.MaxSize,
		ShiftFactor: p.ShiftFactor,
		ScaleFactor: p.ScaleFactor,
		ImageParams: imageParams(img),
	}

	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := c.classifier.RunCascade(cParams, p.Angle)
	dets = c.classifier.ClusterDetections(dets, p.IouThreshold)

	regions := make([]image.Rectangle, 0, len(dets))
	for _, det := range dets {
		if det.Q < p.MinQuality {
			continue
		}
		r := bounded(image.Rect(
			det.Col-det.Scale/2,
			det.Row-det.Scale/2,
			det.Col+det.Scale/2,
			det.Row+det.Scale/2,
		), b.Dx(), b.Dy())
		if !r.Empty() {
			regions = append(regions, r)
		}
	}
	return regions
}

// Close is a no-op, pigo models hold no external resources.
func (c *Pigo) Close() error { return nil }

// imageParams exposes img to pigo without copying. Dim carries the stride so a
// sub-image can be scanned in place.
func imageParams(img *image.Gray) pigo.ImageParams {
	b := img.Bounds()
	return pigo.ImageParams{
		Pixels: img.Pix[img.PixOffset(b.Min.X, b.Min.Y):],
		Rows:   b.Dy(),
		Cols:   b.Dx(),
		Dim:    img.Stride,
	}
}
