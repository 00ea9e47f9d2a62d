package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"msaf/pkg/logging"
)

// http2Backend offers HTTP/2, over TLS (ALPN-negotiated) when tls is set,
// or cleartext h2c otherwise. The M1 endpoint typically uses this backend
// so a content provider's long-lived management connection multiplexes.
type http2Backend struct {
	addr       string
	tls        bool
	watchdog   time.Duration
	dispatcher Dispatcher
	server     *http.Server
	listener   net.Listener
}

// NewHTTP2Backend returns a Backend bound to addr speaking HTTP/2.
func NewHTTP2Backend(addr string, tls bool, watchdog time.Duration) Backend {
	return &http2Backend{addr: addr, tls: tls, watchdog: watchdog}
}

func (b *http2Backend) Init(d Dispatcher) error {
	b.dispatcher = d

	h1 := http.HandlerFunc(b.serveHTTP)
	b.server = &http.Server{Addr: b.addr}

	if b.tls {
		b.server.Handler = h1
		if err := http2.ConfigureServer(b.server, &http2.Server{}); err != nil {
			return err
		}
	} else {
		h2s := &http2.Server{}
		b.server.Handler = h2c.NewHandler(h1, h2s)
	}
	return nil
}

func (b *http2Backend) Finalize() error {
	return nil
}

func (b *http2Backend) serveHTTP(w http.ResponseWriter, r *http.Request) {
	stream := newStreamHandle(b, w, r, b.watchdog, func(s *StreamHandle) { s.expire() })
	b.dispatcher.Dispatch(stream)
	<-stream.done
}

func (b *http2Backend) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.addr)
	if err != nil {
		return err
	}
	b.listener = ln
	go func() {
		var err error
		if b.tls {
			err = b.server.ServeTLS(ln, "", "")
		} else {
			err = b.server.Serve(ln)
		}
		if err != nil && err != http.ErrServerClosed {
			logging.Error(subsystem, err, "http2 backend on %s exited", b.addr)
		}
	}()
	logging.Info(subsystem, "http2 backend listening on %s (tls=%v)", b.addr, b.tls)
	return nil
}

func (b *http2Backend) Stop(ctx context.Context) error {
	return b.server.Shutdown(ctx)
}

func (b *http2Backend) SendResponse(stream *StreamHandle, resp Response) error {
	if serverFromStream(stream) != Backend(b) {
		return errWrongOwner
	}
	stream.write(resp)
	return nil
}
