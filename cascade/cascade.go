// Package cascade loads pre-trained cascade classifiers and runs them over
// grayscale images. The detection algorithms themselves live in pigo and, for
// builds tagged gocv, in OpenCV.
package cascade

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Kind selects the model format of a cascade file.
type Kind string

// Supported kinds. KindAuto guesses from the file name.
const (
	KindAuto   Kind = "auto"
	KindPigo   Kind = "pigo"
	KindPuploc Kind = "puploc"
	KindHaar   Kind = "haar"
)

// ErrUnsupported is returned when a kind is not compiled into this binary.
var ErrUnsupported = errors.New("classifier kind not supported by this build")

// Params tunes a single Detect call. Backends ignore the fields they do not use.
type Params struct {
	// ScaleFactor is the step between two consecutive detection scales.
	ScaleFactor float64
	// MinNeighbors is the number of overlapping hits a haar detection needs.
	MinNeighbors int
	// MinSize and MaxSize bound the side of a detection, in pixels.
	MinSize int
	MaxSize int
	// ShiftFactor is the pigo sliding window step relative to the window size.
	ShiftFactor float64
	// IouThreshold is the pigo clustering overlap threshold.
	IouThreshold float64
	// MinQuality drops pigo detections scoring below it.
	MinQuality float32
	// Angle rotates the pigo detector, 0 means upright faces.
	Angle float64
}

// DefaultParams matches detectMultiScale(img, 1.1, 2, 0, Size(30, 30)) with the
// pigo specific knobs set to the values pigo's own tools use.
func DefaultParams() Params {
	return Params{
		ScaleFactor:  1.1,
		MinNeighbors: 2,
		MinSize:      30,
		MaxSize:      1000,
		ShiftFactor:  0.1,
		IouThreshold: 0.2,
		MinQuality:   5.0,
	}
}

// Classifier is a loaded, read-only detection model. Detect returns regions
// relative to img.Bounds().Min and is safe to call with sub-images.
type Classifier interface {
	Detect(img *image.Gray, p Params) []image.Rectangle
	Close() error
}

// ParseKind validates a kind name coming from flags or a config file.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindPigo, KindPuploc, KindHaar:
		return k, nil
	default:
		return "", errors.Errorf("unknown classifier kind %q", s)
	}
}

// KindOf guesses the model format from the file name.
func KindOf(path string) Kind {
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return KindHaar
	}
	if strings.Contains(strings.ToLower(filepath.Base(path)), "puploc") {
		return KindPuploc
	}
	return KindPigo
}

// Load reads the model at path. It fails when the file is missing, unreadable or
// not a model of the requested kind.
func Load(path string, kind Kind) (Classifier, error) {
	if kind == KindAuto || kind == "" {
		kind = KindOf(path)
	}
	if kind == KindHaar {
		return loadHaar(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can not open cascade file %s", path)
	}

	var c Classifier
	switch kind {
	case KindPigo:
		c, err = NewPigo(data)
	case KindPuploc:
		c, err = NewPuploc(data)
	default:
		return nil, errors.Errorf("unknown classifier kind %q", kind)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s cascade %s", kind, path)
	}
	return c, nil
}

// bounded clips r to a w x h image anchored at the origin.
func bounded(r image.Rectangle, w, h int) image.Rectangle {
	return r.Intersect(image.Rect(0, 0, w, h))
}
