package facetrain

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func grayFilled(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestEqualizeHistFlat(t *testing.T) {
	img := grayFilled(6, 4, 77)
	EqualizeHist(img)
	for _, v := range img.Pix {
		test.That(t, v, test.ShouldEqual, uint8(77))
	}
}

func TestEqualizeHistStretches(t *testing.T) {
	img := grayFilled(4, 4, 10)
	for i := 8; i < len(img.Pix); i++ {
		img.Pix[i] = 200
	}
	EqualizeHist(img)
	for i, v := range img.Pix {
		if i < 8 {
			test.That(t, v, test.ShouldEqual, uint8(0))
		} else {
			test.That(t, v, test.ShouldEqual, uint8(255))
		}
	}
}

func TestEqualizeHistMonotonic(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(100 + i%50)
	}
	EqualizeHist(img)
	for i := 1; i < 50; i++ {
		test.That(t, img.Pix[i], test.ShouldBeGreaterThanOrEqualTo, img.Pix[i-1])
	}
	test.That(t, img.Pix[0], test.ShouldEqual, uint8(0))
	test.That(t, img.Pix[49], test.ShouldEqual, uint8(255))
}

func TestEqualizeHistSubImage(t *testing.T) {
	img := grayFilled(8, 8, 50)
	img.SetGray(4, 4, color.Gray{Y: 90})
	sub := img.SubImage(image.Rect(4, 4, 6, 6)).(*image.Gray)

	EqualizeHist(sub)
	test.That(t, img.GrayAt(4, 4).Y, test.ShouldEqual, uint8(255))
	test.That(t, img.GrayAt(5, 5).Y, test.ShouldEqual, uint8(0))
	// outside the sub-image nothing moved
	test.That(t, img.GrayAt(0, 0).Y, test.ShouldEqual, uint8(50))
	test.That(t, img.GrayAt(7, 7).Y, test.ShouldEqual, uint8(50))
}

func TestEqualizeHistEmpty(t *testing.T) {
	EqualizeHist(image.NewGray(image.Rect(0, 0, 0, 0)))
}

func TestPreprocessSize(t *testing.T) {
	frame := image.NewNRGBA(image.Rect(0, 0, 40, 20))

	test.That(t, Preprocess(frame, 1).Bounds(), test.ShouldResemble, image.Rect(0, 0, 40, 20))
	test.That(t, Preprocess(frame, 2).Bounds(), test.ShouldResemble, image.Rect(0, 0, 20, 10))
	test.That(t, Preprocess(frame, 0.5).Bounds(), test.ShouldResemble, image.Rect(0, 0, 80, 40))

	// frames not anchored at the origin still give an origin anchored working image
	offset := image.NewNRGBA(image.Rect(5, 5, 25, 15))
	test.That(t, Preprocess(offset, 1).Bounds(), test.ShouldResemble, image.Rect(0, 0, 20, 10))

	tiny := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	test.That(t, Preprocess(tiny, 4).Bounds(), test.ShouldResemble, image.Rect(0, 0, 1, 1))
}

func TestPreprocessGrayscaleContrast(t *testing.T) {
	frame := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			c := color.NRGBA{R: 90, G: 90, B: 90, A: 0xff}
			if x >= 5 {
				c = color.NRGBA{R: 120, G: 120, B: 120, A: 0xff}
			}
			frame.SetNRGBA(x, y, c)
		}
	}

	work := Preprocess(frame, 1)
	test.That(t, work.GrayAt(0, 0).Y, test.ShouldEqual, uint8(0))
	test.That(t, work.GrayAt(9, 9).Y, test.ShouldEqual, uint8(255))
}

func TestFlipH(t *testing.T) {
	work := grayFilled(7, 3, 0)
	for y := 0; y < 3; y++ {
		work.SetGray(0, y, color.Gray{Y: 255})
	}

	flipped := FlipH(work)
	test.That(t, flipped.Bounds(), test.ShouldResemble, work.Bounds())
	for y := 0; y < 3; y++ {
		test.That(t, flipped.GrayAt(6, y).Y, test.ShouldBeGreaterThan, uint8(250))
		test.That(t, flipped.GrayAt(0, y).Y, test.ShouldBeLessThan, uint8(5))
	}
}
