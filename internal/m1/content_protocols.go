package m1

import (
	"net/http"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/internal/router"
)

// handleContentProtocolsDiscovery serves the static Content Protocols
// Discovery document from spec.md §3: a build-time-embedded JSON blob with
// a fixed ETag (its SHA-256) and fixed Last-Modified (file mtime),
// supporting conditional GET via If-None-Match.
func (f *FSM) handleContentProtocolsDiscovery(stream *httpserver.StreamHandle, rc router.RequestContext) {
	if rc.Method != http.MethodGet {
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
		return
	}

	if inm := stream.Request().Header.Get("If-None-Match"); inm != "" && weakEqual(inm, f.ContentProtocolsETag) {
		header := make(http.Header)
		header.Set("ETag", f.ContentProtocolsETag)
		_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: http.StatusNotModified, Header: header})
		return
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("ETag", f.ContentProtocolsETag)
	header.Set("Last-Modified", f.ContentProtocolsModified.UTC().Format(http.TimeFormat))
	_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: http.StatusOK, Header: header, Body: f.ContentProtocolsDoc})
}

// handleSessionContentProtocols serves the same discovery document scoped
// to one Provisioning Session's GET .../content-protocols resource. The
// distilled spec does not describe how this differs from the top-level
// document; absent any per-session override in the data model, this
// implementation returns the identical static document.
func (f *FSM) handleSessionContentProtocols(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
	if rc.Method != http.MethodGet {
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
		return
	}
	if _, err := f.Store.Get(psID); err != nil {
		writeErr(stream, rc, err)
		return
	}
	f.handleContentProtocolsDiscovery(stream, rc)
}
