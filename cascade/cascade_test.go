package cascade

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestParseKind(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Kind
	}{
		{"", KindAuto},
		{"auto", KindAuto},
		{"PIGO", KindPigo},
		{" puploc ", KindPuploc},
		{"haar", KindHaar},
	} {
		k, err := ParseKind(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, k, test.ShouldEqual, tc.want)
	}

	_, err := ParseKind("lbp")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "lbp")
}

func TestKindOf(t *testing.T) {
	test.That(t, KindOf("/usr/share/haarcascades/haarcascade_frontalface_alt.xml"), test.ShouldEqual, KindHaar)
	test.That(t, KindOf("cascade/EYES.XML"), test.ShouldEqual, KindHaar)
	test.That(t, KindOf("./cascade/puploc"), test.ShouldEqual, KindPuploc)
	test.That(t, KindOf("./cascade/facefinder"), test.ShouldEqual, KindPigo)
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	for _, kind := range []Kind{KindAuto, KindPigo, KindPuploc} {
		c, err := Load(missing, kind)
		test.That(t, c, test.ShouldBeNil)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "can not open cascade file")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facefinder")
	test.That(t, os.WriteFile(path, []byte("abc"), 0o644), test.ShouldBeNil)

	c, err := Load(path, KindPigo)
	test.That(t, c, test.ShouldBeNil)
	test.That(t, err, test.ShouldNotBeNil)

	c, err = Load(path, KindPuploc)
	test.That(t, c, test.ShouldBeNil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewPigoEmpty(t *testing.T) {
	p, err := NewPigo(nil)
	test.That(t, p, test.ShouldBeNil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	test.That(t, p.ScaleFactor, test.ShouldEqual, 1.1)
	test.That(t, p.MinNeighbors, test.ShouldEqual, 2)
	test.That(t, p.MinSize, test.ShouldEqual, 30)
	test.That(t, p.Angle, test.ShouldEqual, 0.0)
}

func TestImageParamsSubImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	sub := img.SubImage(image.Rect(2, 3, 6, 7)).(*image.Gray)

	ip := imageParams(sub)
	test.That(t, ip.Rows, test.ShouldEqual, 4)
	test.That(t, ip.Cols, test.ShouldEqual, 4)
	test.That(t, ip.Dim, test.ShouldEqual, 10)
	// pigo addresses pixels as row*Dim+col.
	test.That(t, ip.Pixels[0], test.ShouldEqual, img.GrayAt(2, 3).Y)
	test.That(t, ip.Pixels[1*ip.Dim+2], test.ShouldEqual, img.GrayAt(4, 4).Y)
}

func TestBounded(t *testing.T) {
	test.That(t, bounded(image.Rect(-5, -5, 10, 10), 8, 8), test.ShouldResemble, image.Rect(0, 0, 8, 8))
	test.That(t, bounded(image.Rect(20, 20, 30, 30), 8, 8).Empty(), test.ShouldBeTrue)
}
