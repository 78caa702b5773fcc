package cascade

import (
	"image"

	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

// perturbs is the number of randomised runs pupil localisation averages over.
const perturbs = 63

// Puploc localises the two pupils of a face. It is meant to be used as a nested
// classifier: the image handed to Detect is the face region itself.
type Puploc struct {
	cascade *pigo.PuplocCascade
}

// NewPuploc unpacks a pigo pupil localisation cascade.
func NewPuploc(data []byte) (p *Puploc, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, errors.Errorf("malformed puploc cascade: %v", r)
		}
	}()

	plc, err := pigo.NewPuplocCascade().UnpackCascade(data)
	if err != nil {
		return nil, errors.Wrap(err, "unpack puploc cascade")
	}
	return &Puploc{cascade: plc}, nil
}

// Detect returns up to two small regions, one per pupil found.
func (c *Puploc) Detect(img *image.Gray, p Params) []image.Rectangle {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	row, col := h/2, w/2
	scale := float32(min(w, h))
	imgParams := imageParams(img)

	var regions []image.Rectangle
	for _, side := range [...]float32{-1, 1} {
		eye := c.cascade.RunDetector(pigo.Puploc{
			Row:      row - int(0.085*scale),
			Col:      col + int(side*0.185*scale),
			Scale:    scale * 0.4,
			Perturbs: perturbs,
		}, imgParams, p.Angle, false)
		if eye == nil || eye.Row <= 0 || eye.Col <= 0 {
			continue
		}

		half := max(int(eye.Scale/4), 1)
		r := bounded(image.Rect(eye.Col-half, eye.Row-half, eye.Col+half, eye.Row+half), w, h)
		if !r.Empty() {
			regions = append(regions, r)
		}
	}
	return regions
}

// Close is a no-op.
func (c *Puploc) Close() error { return nil }
