package cascade

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
	"go.viam.com/test"
)

// testdata holds pigo's own facefinder and puploc models and its sample photo.

func loadSample(t *testing.T) *image.Gray {
	t.Helper()
	img, err := imaging.Open(filepath.Join("testdata", "sample.jpg"))
	test.That(t, err, test.ShouldBeNil)

	src := imaging.Clone(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()
	return &image.Gray{
		Pix:    pigo.RgbToGrayscale(src),
		Stride: cols,
		Rect:   image.Rect(0, 0, cols, rows),
	}
}

func loadModel(t *testing.T, name string) Classifier {
	t.Helper()
	c, err := Load(filepath.Join("testdata", name), KindAuto)
	test.That(t, err, test.ShouldBeNil)
	return c
}

func largest(regions []image.Rectangle) image.Rectangle {
	var best image.Rectangle
	for _, r := range regions {
		if r.Dx()*r.Dy() > best.Dx()*best.Dy() {
			best = r
		}
	}
	return best
}

func area(r image.Rectangle) int { return r.Dx() * r.Dy() }

func TestPigoFindsFace(t *testing.T) {
	gray := loadSample(t)
	finder := loadModel(t, "facefinder")
	_, ok := finder.(*Pigo)
	test.That(t, ok, test.ShouldBeTrue)

	faces := finder.Detect(gray, DefaultParams())
	test.That(t, len(faces), test.ShouldBeGreaterThanOrEqualTo, 1)
	for _, f := range faces {
		test.That(t, f.In(gray.Bounds()), test.ShouldBeTrue)
	}
	face := largest(faces)
	// unclipped detections are squares around the detection center
	if face.Min.X > 0 && face.Min.Y > 0 && face.Max.X < gray.Bounds().Dx() && face.Max.Y < gray.Bounds().Dy() {
		test.That(t, face.Dx(), test.ShouldEqual, face.Dy())
	}
	test.That(t, finder.Close(), test.ShouldBeNil)
}

func TestPigoMinQuality(t *testing.T) {
	gray := loadSample(t)
	finder := loadModel(t, "facefinder")

	p := DefaultParams()
	p.MinQuality = 1e9
	test.That(t, finder.Detect(gray, p), test.ShouldBeEmpty)

	p.MinQuality = 0
	test.That(t, len(finder.Detect(gray, p)), test.ShouldBeGreaterThanOrEqualTo, len(finder.Detect(gray, DefaultParams())))
}

func TestPigoScansSubImage(t *testing.T) {
	gray := loadSample(t)
	finder := loadModel(t, "facefinder")

	face := largest(finder.Detect(gray, DefaultParams()))
	test.That(t, face.Empty(), test.ShouldBeFalse)

	roi := face.Inset(-face.Dx() / 4).Intersect(gray.Bounds())
	sub := gray.SubImage(roi).(*image.Gray)

	// hits come back relative to the sub-image origin
	local := face.Sub(roi.Min)
	found := false
	for _, r := range finder.Detect(sub, DefaultParams()) {
		test.That(t, r.In(image.Rect(0, 0, roi.Dx(), roi.Dy())), test.ShouldBeTrue)
		if area(r.Intersect(local))*2 > area(local) {
			found = true
		}
	}
	test.That(t, found, test.ShouldBeTrue)
}

func TestPuplocFindsBothPupils(t *testing.T) {
	gray := loadSample(t)
	finder := loadModel(t, "facefinder")
	eyes := loadModel(t, "puploc")
	_, ok := eyes.(*Puploc)
	test.That(t, ok, test.ShouldBeTrue)

	face := largest(finder.Detect(gray, DefaultParams()))
	test.That(t, face.Empty(), test.ShouldBeFalse)

	sub := gray.SubImage(face).(*image.Gray)
	pupils := eyes.Detect(sub, DefaultParams())
	test.That(t, len(pupils), test.ShouldEqual, 2)

	local := image.Rect(0, 0, face.Dx(), face.Dy())
	for _, p := range pupils {
		test.That(t, p.In(local), test.ShouldBeTrue)
		test.That(t, p.Empty(), test.ShouldBeFalse)
		// pupils sit in the upper two thirds of a face
		test.That(t, p.Min.Y, test.ShouldBeLessThan, face.Dy()*2/3)
	}
	// the left search runs first
	cx := func(r image.Rectangle) int { return (r.Min.X + r.Max.X) / 2 }
	test.That(t, cx(pupils[0]), test.ShouldBeLessThan, cx(pupils[1]))
}
