package facetrain

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
)

// Preprocess builds the working image detection runs on: grayscale, shrunk by
// 1/scale and histogram equalized. The result is anchored at the origin.
func Preprocess(frame image.Image, scale float64) *image.Gray {
	b := frame.Bounds()
	w := max(1, round(float64(b.Dx())/scale))
	h := max(1, round(float64(b.Dy())/scale))

	gray := imaging.Grayscale(frame)
	if w != b.Dx() || h != b.Dy() {
		gray = imaging.Resize(gray, w, h, imaging.Linear)
	}

	work := toGray(gray)
	EqualizeHist(work)
	return work
}

// FlipH mirrors the working image around its vertical axis.
func FlipH(work *image.Gray) *image.Gray {
	return toGray(imaging.FlipH(work))
}

func toGray(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	return &image.Gray{
		Pix:    pigo.RgbToGrayscale(img),
		Stride: b.Dx(),
		Rect:   image.Rect(0, 0, b.Dx(), b.Dy()),
	}
}

// EqualizeHist spreads the intensities of img over the full 0..255 range in
// place, the same mapping as OpenCV's equalizeHist.
func EqualizeHist(img *image.Gray) {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return
	}

	var hist [256]int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for _, v := range img.Pix[i : i+b.Dx()] {
			hist[v]++
		}
	}

	first := 0
	for hist[first] == 0 {
		first++
	}

	var lut [256]uint8
	if hist[first] == total {
		// a flat image has nothing to spread
		for i := range lut {
			lut[i] = uint8(first)
		}
	} else {
		scale := 255 / float64(total-hist[first])
		sum := 0
		for i := first + 1; i < len(hist); i++ {
			sum += hist[i]
			lut[i] = uint8(min(255, max(0, round(float64(sum)*scale))))
		}
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		row := img.Pix[i : i+b.Dx()]
		for x, v := range row {
			row[x] = lut[v]
		}
	}
}

// round rounds half to even, like cvRound.
func round(v float64) int {
	return int(math.RoundToEven(v))
}
