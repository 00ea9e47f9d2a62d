// Package router implements the request context parser and resource-family
// dispatcher from spec.md §4.2 (C2): it turns an inbound HTTP request into
// a RequestContext, matches (serviceName, Components[0]) against a static
// table of registered resource families, and posts the matched handler's
// invocation onto the single-threaded event loop. The HTTP handler's
// Dispatch call returns as soon as the event is posted; the handler itself
// runs later, on the loop goroutine, and replies via Backend.SendResponse.
package router

import (
	"msaf/internal/eventloop"
	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/pkg/logging"
)

const subsystem = "Router"

// Handler processes one routed request on the event-loop goroutine. It
// must eventually call stream.Owner.SendResponse (directly, or indirectly
// after suspending on an M3/PCF/certmgr call per spec.md §4.9).
type Handler func(stream *httpserver.StreamHandle, rc RequestContext)

// key identifies one registered resource family.
type key struct {
	service string
	family  string
}

// Router is the C2 component: a static match table plus a reference to the
// event loop it posts onto.
type Router struct {
	loop         *eventloop.Loop
	table        map[key]Handler
	unmatched    Handler
	serverHeader func(serviceName string) string
}

// New returns an empty Router posting onto loop.
func New(loop *eventloop.Loop) *Router {
	return &Router{loop: loop, table: make(map[key]Handler)}
}

// SetServerHeaderProvider installs the function used to render the
// "Server:" header's resource-family info block from a request's matched
// service name (spec.md §4.1).
func (rt *Router) SetServerHeaderProvider(fn func(serviceName string) string) {
	rt.serverHeader = fn
}

// Register binds a (serviceName, resourceFamily) pair to a Handler. Resource
// family is Components[0] of the matched URI, e.g. "provisioning-sessions"
// or "service-access-information".
func (rt *Router) Register(service, family string, h Handler) {
	rt.table[key{service, family}] = h
}

// SetUnmatched installs the handler invoked when no resource family
// matches; it should reply with a 404 problem-details body.
func (rt *Router) SetUnmatched(h Handler) {
	rt.unmatched = h
}

// Dispatch implements httpserver.Dispatcher. It parses the request
// synchronously (parsing is not a suspension point) and posts the matched
// handler invocation onto the event loop, returning immediately per
// spec.md §4.2.
func (rt *Router) Dispatch(stream *httpserver.StreamHandle) {
	rc := Parse(stream.Request())
	if rt.serverHeader != nil {
		stream.SetServerHeader(rt.serverHeader(rc.ServiceName))
	}

	h, ok := rt.table[key{rc.ServiceName, rc.Component(0)}]
	if !ok {
		h = rt.unmatched
	}
	if h == nil {
		logging.Warn(subsystem, "no handler for %s %s/%s", rc.Method, rc.ServiceName, rc.Component(0))
		rt.loop.Post(func() {
			_ = WriteProblem(stream, rc, problem.New(problem.KindNotFound, "no such resource"))
		})
		return
	}

	rt.loop.Post(func() { h(stream, rc) })
}
