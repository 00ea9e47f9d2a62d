package httpserver

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

// Response is what the upper layers hand back to SendResponse: a status
// code, headers and a body. Handlers build this from a *problem.Error or
// from a successful resource representation.
type Response struct {
	Status  int
	Header  http.Header
	Body    []byte
}

// StreamHandle is the per-request object the router and FSMs hold onto
// between dispatch and response. Its only exported field is the owning
// Backend, matching spec.md §9's "common stream header carrying the owning
// server" — serverFromStream(stream) is a field read, not a virtual call.
type StreamHandle struct {
	Owner Backend

	w            http.ResponseWriter
	r            *http.Request
	done         chan struct{}
	watchdog     *time.Timer
	sent         atomic.Bool
	serverHeader string
}

// Request returns the underlying *http.Request, used by internal/router to
// build a RequestContext.
func (s *StreamHandle) Request() *http.Request { return s.r }

// SetServerHeader attaches the resource-family-specific Server header
// value spec.md §4.1 requires ("info block chosen by resource family").
// internal/router calls this once per dispatched request, before posting
// it onto the event loop, so every handler's eventual response carries it
// without repeating the construction itself.
func (s *StreamHandle) SetServerHeader(v string) { s.serverHeader = v }

// Backend is the dual-implementation HTTP server abstraction. http1Backend
// wraps a stock net/http.Server; http2Backend configures the same server
// for cleartext or TLS HTTP/2. Both satisfy this one interface so the rest
// of the AF never branches on protocol.
type Backend interface {
	Init(handler Dispatcher) error
	Finalize() error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	SendResponse(stream *StreamHandle, resp Response) error
}

// Dispatcher is implemented by internal/router. Dispatch must return
// quickly: it parses the request and posts a closure that runs the matched
// handler onto the event loop, per spec.md §4.2. The eventual SendResponse call happens later,
// from whichever FSM action completes the request.
type Dispatcher interface {
	Dispatch(stream *StreamHandle)
}

// serverFromStream is the field access spec.md §9 calls for — no dispatch
// table, no type switch.
func serverFromStream(s *StreamHandle) Backend { return s.Owner }

// newStreamHandle wraps one inbound HTTP request. onExpire runs when the
// watchdog fires; the backends pass a callback that answers with a 503 if
// SendResponse has not been called by then, after which any later
// SendResponse call is a no-op.
func newStreamHandle(owner Backend, w http.ResponseWriter, r *http.Request, watchdog time.Duration, onExpire func(*StreamHandle)) *StreamHandle {
	stream := &StreamHandle{
		Owner: owner,
		w:     w,
		r:     r,
		done:  make(chan struct{}),
	}
	stream.watchdog = time.AfterFunc(watchdog, func() { onExpire(stream) })
	return stream
}

// write performs the actual ResponseWriter side effects exactly once,
// stopping the watchdog and signalling done so the blocked ServeHTTP call
// can return. The watchdog's own goroutine (expire) and the event-loop
// goroutine (via SendResponse) can both reach this concurrently for the
// same stream; the CompareAndSwap makes "exactly once" actually hold
// instead of racing on a plain bool.
func (s *StreamHandle) write(resp Response) {
	if !s.sent.CompareAndSwap(false, true) {
		return
	}
	s.watchdog.Stop()

	header := s.w.Header()
	for k, values := range resp.Header {
		for _, v := range values {
			header.Add(k, v)
		}
	}
	if header.Get("Server") == "" && s.serverHeader != "" {
		header.Set("Server", s.serverHeader)
	}
	s.w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = s.w.Write(resp.Body)
	}
	close(s.done)
}

// expire is called from the watchdog timer when no response arrived in
// time. It writes a 503 and unblocks ServeHTTP, matching spec.md §4.1's
// "closes the connection with a 503-class error and discards any later
// write".
func (s *StreamHandle) expire() {
	s.write(Response{Status: http.StatusServiceUnavailable, Body: []byte(`{"title":"request timed out"}`)})
}
