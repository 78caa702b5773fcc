package facetrain

import "image"

// Shape is how a region is outlined.
type Shape int

const (
	// ShapeRect outlines elongated regions.
	ShapeRect Shape = iota
	// ShapeCircle outlines near-square regions.
	ShapeCircle
)

func (s Shape) String() string {
	if s == ShapeCircle {
		return "circle"
	}
	return "rect"
}

// ShapeOf picks a circle when width/height lies strictly between 0.75 and 1.3.
func ShapeOf(r image.Rectangle) Shape {
	if r.Dy() == 0 {
		return ShapeRect
	}
	aspect := float64(r.Dx()) / float64(r.Dy())
	if 0.75 < aspect && aspect < 1.3 {
		return ShapeCircle
	}
	return ShapeRect
}

// Mirror maps a region found in a horizontally flipped image of the given
// width back into unflipped coordinates.
func Mirror(r image.Rectangle, width int) image.Rectangle {
	x := width - r.Min.X - r.Dx()
	return image.Rect(x, r.Min.Y, x+r.Dx(), r.Max.Y)
}

// Circle is an outline in frame coordinates.
type Circle struct {
	Center image.Point
	Radius int
}

// CircleOf maps working-image region r to the frame: its center scaled, and a
// radius of a quarter of width plus height, scaled.
func CircleOf(r image.Rectangle, scale float64) Circle {
	w, h := float64(r.Dx()), float64(r.Dy())
	return Circle{
		Center: image.Pt(
			round((float64(r.Min.X)+w*0.5)*scale),
			round((float64(r.Min.Y)+h*0.5)*scale),
		),
		Radius: round((w + h) * 0.25 * scale),
	}
}

// RectOf maps working-image region r to the frame. Both corners are inclusive
// pixel positions.
func RectOf(r image.Rectangle, scale float64) (image.Point, image.Point) {
	return image.Pt(round(float64(r.Min.X)*scale), round(float64(r.Min.Y)*scale)),
		image.Pt(round(float64(r.Max.X-1)*scale), round(float64(r.Max.Y-1)*scale))
}
