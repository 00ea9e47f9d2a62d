package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"msaf/pkg/logging"
)

const subsystem = "HTTPServer"

// http1Backend is a stock net/http.Server offering HTTP/1.1 only. The AF
// uses this, for example, for the M5 endpoint when the operator wants a
// plain keep-alive connection model.
type http1Backend struct {
	addr           string
	tls            bool
	watchdog       time.Duration
	dispatcher     Dispatcher
	server         *http.Server
	listener       net.Listener
}

// NewHTTP1Backend returns a Backend bound to addr (host:port). watchdog
// bounds how long a dispatched request may remain unanswered before the
// server synthesizes a 503.
func NewHTTP1Backend(addr string, tls bool, watchdog time.Duration) Backend {
	return &http1Backend{addr: addr, tls: tls, watchdog: watchdog}
}

func (b *http1Backend) Init(d Dispatcher) error {
	b.dispatcher = d
	b.server = &http.Server{
		Addr:    b.addr,
		Handler: http.HandlerFunc(b.serveHTTP),
	}
	return nil
}

func (b *http1Backend) Finalize() error {
	return nil
}

func (b *http1Backend) serveHTTP(w http.ResponseWriter, r *http.Request) {
	stream := newStreamHandle(b, w, r, b.watchdog, func(s *StreamHandle) { s.expire() })
	b.dispatcher.Dispatch(stream)
	<-stream.done
}

func (b *http1Backend) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.addr)
	if err != nil {
		return err
	}
	b.listener = ln
	go func() {
		if err := b.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Error(subsystem, err, "http1 backend on %s exited", b.addr)
		}
	}()
	logging.Info(subsystem, "http1 backend listening on %s", b.addr)
	return nil
}

func (b *http1Backend) Stop(ctx context.Context) error {
	return b.server.Shutdown(ctx)
}

func (b *http1Backend) SendResponse(stream *StreamHandle, resp Response) error {
	if serverFromStream(stream) != Backend(b) {
		return errWrongOwner
	}
	stream.write(resp)
	return nil
}
