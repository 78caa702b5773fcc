//go:build gocv

package cascade

import (
	"image"
	"image/draw"
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// scaleImage is OpenCV's CASCADE_SCALE_IMAGE flag.
const scaleImage = 2

// Haar wraps an OpenCV cascade classifier loaded from XML.
type Haar struct {
	classifier gocv.CascadeClassifier
}

func loadHaar(path string) (Classifier, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "can not open cascade file %s", path)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		_ = classifier.Close()
		return nil, errors.Errorf("unable to load the classifier XML %s", path)
	}
	return &Haar{classifier: classifier}, nil
}

// Detect runs detectMultiScale over img.
func (c *Haar) Detect(img *image.Gray, p Params) []image.Rectangle {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	// The Mat conversion reads Pix as a tightly packed buffer.
	gray := img
	if b.Min != (image.Point{}) || img.Stride != b.Dx() {
		gray = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	}

	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil
	}
	defer mat.Close()

	var maxSize image.Point
	if p.MaxSize > 0 {
		maxSize = image.Pt(p.MaxSize, p.MaxSize)
	}
	return c.classifier.DetectMultiScaleWithParams(
		mat, p.ScaleFactor, p.MinNeighbors, scaleImage, image.Pt(p.MinSize, p.MinSize), maxSize)
}

// Close releases the OpenCV classifier.
func (c *Haar) Close() error {
	return c.classifier.Close()
}
