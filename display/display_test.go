package display

import (
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.viam.com/test"
)

type recordingSink struct {
	shown  []image.Image
	err    error
	closed bool
}

func (s *recordingSink) Show(img image.Image) error {
	s.shown = append(s.shown, img)
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return s.err
}

type scriptedKeys struct {
	pressed bool
	waits   []time.Duration
}

func (k *scriptedKeys) Poll(timeout time.Duration) bool {
	k.waits = append(k.waits, timeout)
	return k.pressed
}

func (k *scriptedKeys) Close() error { return nil }

func TestMulti(t *testing.T) {
	_, isDiscard := Multi().(discard)
	test.That(t, isDiscard, test.ShouldBeTrue)

	only := &recordingSink{}
	test.That(t, Multi(only), test.ShouldEqual, only)

	failing := &recordingSink{err: errors.New("disk full")}
	healthy := &recordingSink{}
	sink := Multi(failing, healthy)

	img := image.NewGray(image.Rect(0, 0, 1, 1))
	err := sink.Show(img)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "disk full")
	test.That(t, len(healthy.shown), test.ShouldEqual, 1)

	test.That(t, sink.Close(), test.ShouldNotBeNil)
	test.That(t, failing.closed, test.ShouldBeTrue)
	test.That(t, healthy.closed, test.ShouldBeTrue)
}

func TestAnyKey(t *testing.T) {
	_, isNoKeys := AnyKey().(noKeys)
	test.That(t, isNoKeys, test.ShouldBeTrue)
	test.That(t, NoKeys.Poll(time.Hour), test.ShouldBeFalse)

	quiet := &scriptedKeys{}
	loud := &scriptedKeys{pressed: true}
	keys := AnyKey(quiet, loud)

	test.That(t, keys.Poll(10*time.Millisecond), test.ShouldBeTrue)
	test.That(t, quiet.waits, test.ShouldResemble, []time.Duration{5 * time.Millisecond})
	test.That(t, loud.waits, test.ShouldResemble, []time.Duration{5 * time.Millisecond})

	test.That(t, AnyKey(quiet, &scriptedKeys{}).Poll(time.Millisecond), test.ShouldBeFalse)
	test.That(t, keys.Close(), test.ShouldBeNil)
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewDirSink(dir, ".PNG", zap.NewNop().Sugar())
	test.That(t, err, test.ShouldBeNil)

	img := image.NewNRGBA(image.Rect(0, 0, 5, 3))
	test.That(t, sink.Show(img), test.ShouldBeNil)
	test.That(t, sink.Show(img), test.ShouldBeNil)
	test.That(t, sink.Close(), test.ShouldBeNil)

	for _, name := range []string{"frame_000000.png", "frame_000001.png"} {
		f, err := os.Open(filepath.Join(dir, name))
		test.That(t, err, test.ShouldBeNil)
		decoded, err := png.Decode(f)
		f.Close()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, decoded.Bounds(), test.ShouldResemble, img.Bounds())
	}
}

func TestDirSinkDefaultsToJPEG(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirSink(dir, "", zap.NewNop().Sugar())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sink.Show(image.NewGray(image.Rect(0, 0, 4, 4))), test.ShouldBeNil)

	f, err := os.Open(filepath.Join(dir, "frame_000000.jpg"))
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	_, err = jpeg.Decode(f)
	test.That(t, err, test.ShouldBeNil)
}

func TestDirSinkExtensionWithoutDot(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirSink(dir, "png", zap.NewNop().Sugar())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sink.Show(image.NewGray(image.Rect(0, 0, 2, 2))), test.ShouldBeNil)

	_, err = os.Stat(filepath.Join(dir, "frame_000000.png"))
	test.That(t, err, test.ShouldBeNil)
}

func TestDirSinkUnsupported(t *testing.T) {
	_, err := NewDirSink(t.TempDir(), ".gif", zap.NewNop().Sugar())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMJPEG(t *testing.T) {
	ctx := context.Background()
	m, err := NewMJPEG(ctx, "127.0.0.1:0", zap.NewNop().Sugar())
	test.That(t, err, test.ShouldBeNil)

	// nobody is watching yet
	test.That(t, m.Show(image.NewGray(image.Rect(0, 0, 2, 2))), test.ShouldBeNil)

	stop := make(chan struct{})
	showing := make(chan struct{})
	go func() {
		defer close(showing)
		img := image.NewNRGBA(image.Rect(0, 0, 16, 12))
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = m.Show(img)
			}
		}
	}()

	resp, err := http.Get("http://" + m.Addr().String() + "/")
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mediaType, test.ShouldEqual, "multipart/x-mixed-replace")
	test.That(t, params["boundary"], test.ShouldEqual, boundary)

	part, err := multipart.NewReader(resp.Body, params["boundary"]).NextPart()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, part.Header.Get("Content-Type"), test.ShouldEqual, "image/jpeg")
	data, err := io.ReadAll(io.LimitReader(part, 1<<20))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(data), test.ShouldBeGreaterThan, 0)

	close(stop)
	<-showing
	test.That(t, m.Close(), test.ShouldBeNil)
}
