// Package m1 implements the M1 provisioning API finite-state machine from
// spec.md §4.5 (C5): the resource tree rooted at /provisioning-sessions,
// its conditional-request handling, and the per-resource validation that
// feeds the provisioning store, the certificate manager glue and the M3
// engine.
package m1

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"msaf/internal/certmgr"
	"msaf/internal/eventloop"
	"msaf/internal/httpserver"
	"msaf/internal/m3"
	"msaf/internal/problem"
	"msaf/internal/router"
	"msaf/internal/store"
	"msaf/pkg/logging"
)

const subsystem = "M1"

// FSM wires the provisioning store, certificate manager and M3 engine into
// the M1 resource tree. One FSM instance handles every M1 request; its
// methods run on the event-loop goroutine per spec.md §4.9.
type FSM struct {
	Store *store.Store
	Certs *certmgr.Manager
	M3    *m3.Engine
	Loop  *eventloop.Loop

	ContentProtocolsDoc      []byte
	ContentProtocolsETag     string
	ContentProtocolsModified time.Time
}

// NewFSM wires up the M1 FSM's dependencies and computes the Content
// Protocols Discovery document's fixed ETag/Last-Modified pair once, at
// construction time, matching spec.md §3's "fixed ETag (its SHA-256) and
// fixed Last-Modified (file mtime)" — buildTime stands in for the embedded
// file's mtime, which a compiled-in byte slice no longer carries at
// runtime.
func NewFSM(st *store.Store, certs *certmgr.Manager, engine *m3.Engine, loop *eventloop.Loop, buildTime time.Time) *FSM {
	return &FSM{
		Store:                    st,
		Certs:                    certs,
		M3:                       engine,
		Loop:                     loop,
		ContentProtocolsDoc:      contentProtocolsJSON,
		ContentProtocolsETag:     sha256ETag(contentProtocolsJSON),
		ContentProtocolsModified: buildTime,
	}
}

// Register binds every M1 resource family onto rt.
func (f *FSM) Register(rt *router.Router) {
	rt.Register(router.ServiceM1, "provisioning-sessions", f.handleProvisioningSessions)
	rt.Register(router.ServiceM1, "content-protocols-discovery", f.handleContentProtocolsDiscovery)
}

func writeJSON(stream *httpserver.StreamHandle, status int, etag string, lastModified time.Time, body interface{}) {
	payload, err := json.Marshal(body)
	if err != nil {
		logging.Error(subsystem, err, "marshaling response body")
		payload = []byte(`{}`)
		status = http.StatusInternalServerError
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	if etag != "" {
		header.Set("ETag", etag)
	}
	if !lastModified.IsZero() {
		header.Set("Last-Modified", lastModified.UTC().Format(http.TimeFormat))
	}
	_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: status, Header: header, Body: payload})
}

func writeNoContent(stream *httpserver.StreamHandle, status int) {
	_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: status, Header: make(http.Header)})
}

func writeErr(stream *httpserver.StreamHandle, rc router.RequestContext, err error) {
	pe, ok := err.(*problem.Error)
	if !ok {
		pe = problem.Wrap(problem.KindInternal, "unexpected error", err)
	}
	_ = router.WriteProblem(stream, rc, pe)
}

func decodeBody(r *http.Request) (map[string]interface{}, error) {
	var body map[string]interface{}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, problem.Wrap(problem.KindValidation, "malformed JSON body", err)
	}
	return body, nil
}

// sha256ETag renders a strong (quoted, no W/ prefix) ETag from the SHA-256
// of payload, per spec.md
// "ETag is the SHA-256 of the canonical body".
func sha256ETag(payload []byte) string {
	sum := sha256.Sum256(payload)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// checkIfMatch honors a conditional update's If-Match header against the
// current ETag, using weak comparison per spec.md §4.5.
func checkIfMatch(r *http.Request, currentETag string) error {
	ifMatch := r.Header.Get("If-Match")
	if ifMatch == "" || ifMatch == "*" {
		return nil
	}
	if weakEqual(ifMatch, currentETag) {
		return nil
	}
	return problem.New(problem.KindPreconditionFailed, "If-Match precondition failed")
}

func weakEqual(a, b string) bool {
	trim := func(s string) string {
		s = trimPrefix(s, "W/")
		return s
	}
	return trim(a) == trim(b)
}

func trimPrefix(s, prefix string) string {
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}
