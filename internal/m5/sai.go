package m5

import (
	"fmt"
	"net/http"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/internal/router"
)

// handleServiceAccessInformation serves spec.md §4.7's SAI GET: the
// memoised per-PS JSON document tagged with its SHA-256 ETag and the
// session's last modification time, honoring conditional GET and the
// configured Cache-Control max-age.
func (f *FSM) handleServiceAccessInformation(stream *httpserver.StreamHandle, rc router.RequestContext) {
	if rc.Method != http.MethodGet {
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
		return
	}
	psID := rc.Component(1)
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}

	sai := ps.SAI()
	if inm := stream.Request().Header.Get("If-None-Match"); inm != "" && weakEqual(inm, sai.ETag) {
		header := make(http.Header)
		header.Set("ETag", sai.ETag)
		_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: http.StatusNotModified, Header: header})
		return
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("ETag", sai.ETag)
	header.Set("Last-Modified", sai.LastModified.UTC().Format(http.TimeFormat))
	if f.SAICacheControlMaxAge > 0 {
		header.Set("Cache-Control", fmt.Sprintf("max-age=%d", f.SAICacheControlMaxAge))
	}
	_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: http.StatusOK, Header: header, Body: sai.JSON})
}
