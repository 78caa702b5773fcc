package display

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const boundary = "frame"

// MJPEG streams frames to any number of HTTP clients as
// multipart/x-mixed-replace, which browsers render as live video.
type MJPEG struct {
	server *http.Server
	addr   net.Addr
	group  errgroup.Group
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	clients map[chan []byte]struct{}

	logger *zap.SugaredLogger
}

// NewMJPEG starts serving on addr. The stream is available at every path.
func NewMJPEG(ctx context.Context, addr string, logger *zap.SugaredLogger) (*MJPEG, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", addr)
	}

	m := &MJPEG{
		addr:    ln.Addr(),
		done:    make(chan struct{}),
		clients: make(map[chan []byte]struct{}),
		logger:  logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", m.serveStream)
	m.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	m.group.Go(func() error {
		if err := m.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	logger.Infow("streaming annotated frames", "url", "http://"+m.addr.String()+"/")
	return m, nil
}

// Addr is the address actually listened on.
func (m *MJPEG) Addr() net.Addr { return m.addr }

// Show hands the frame to every connected client. Clients that have not
// consumed the previous frame skip this one.
func (m *MJPEG) Show(img image.Image) error {
	m.mu.Lock()
	n := len(m.clients)
	m.mu.Unlock()
	if n == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return errors.Wrap(err, "encode frame")
	}
	data := buf.Bytes()

	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.clients {
		select {
		case c <- data:
		default:
		}
	}
	return nil
}

func (m *MJPEG) serveStream(w http.ResponseWriter, r *http.Request) {
	frames := make(chan []byte, 1)
	m.mu.Lock()
	m.clients[frames] = struct{}{}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.clients, frames)
		m.mu.Unlock()
	}()

	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	m.logger.Debugw("stream client connected", "remote", r.RemoteAddr)
	for {
		select {
		case <-m.done:
			return
		case <-r.Context().Done():
			m.logger.Debugw("stream client gone", "remote", r.RemoteAddr)
			return
		case data := <-frames:
			part, err := mw.CreatePart(textproto.MIMEHeader{
				"Content-Type":   {"image/jpeg"},
				"Content-Length": {strconv.Itoa(len(data))},
			})
			if err != nil {
				return
			}
			if _, err := part.Write(data); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// Close disconnects clients and stops the server.
func (m *MJPEG) Close() error {
	m.once.Do(func() { close(m.done) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	shutdownErr := m.server.Shutdown(ctx)
	if err := m.group.Wait(); err != nil {
		return err
	}
	return shutdownErr
}
