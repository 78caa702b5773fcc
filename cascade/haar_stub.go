//go:build !gocv

package cascade

import "github.com/pkg/errors"

func loadHaar(path string) (Classifier, error) {
	return nil, errors.Wrapf(ErrUnsupported, "haar cascade %s needs a build with -tags gocv", path)
}
