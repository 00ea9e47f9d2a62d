package m1

import (
	"bytes"
	"net/http"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/internal/router"
)

func (f *FSM) handleCHC(stream *httpserver.StreamHandle, rc router.RequestContext, id string) {
	switch rc.Method {
	case http.MethodGet:
		f.getCHC(stream, rc, id)
	case http.MethodPut:
		f.putCHC(stream, rc, id)
	case http.MethodDelete:
		f.deleteCHC(stream, rc, id)
	default:
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
	}
}

func (f *FSM) getCHC(stream *httpserver.StreamHandle, rc router.RequestContext, id string) {
	ps, err := f.Store.Get(id)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	if ps.CHC == nil {
		writeErr(stream, rc, problem.New(problem.KindNotFound, "no content hosting configuration"))
		return
	}
	canonical, _ := marshalCanonical(ps.CHC.Raw)
	writeJSON(stream, http.StatusOK, sha256ETag(canonical), ps.LastModified, ps.CHC.Raw)
}

func (f *FSM) putCHC(stream *httpserver.StreamHandle, rc router.RequestContext, id string) {
	ps, err := f.Store.Get(id)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}

	var previousCanonical []byte
	if ps.CHC != nil {
		previousCanonical, _ = marshalCanonical(ps.CHC.Raw)
		if ifMatchErr := checkIfMatch(stream.Request(), sha256ETag(previousCanonical)); ifMatchErr != nil {
			writeErr(stream, rc, ifMatchErr)
			return
		}
	}

	raw, err := decodeBody(stream.Request())
	if err != nil {
		writeErr(stream, rc, err)
		return
	}

	if err := ps.SetContentHostingConfiguration(raw); err != nil {
		writeErr(stream, rc, err)
		return
	}

	newCanonical, _ := marshalCanonical(ps.CHC.Raw)
	if previousCanonical == nil || !bytes.Equal(previousCanonical, newCanonical) {
		f.M3.EnqueueCHCUpload(ps.AssignedHostnames, ps.ID, ps.CHC.Rewritten)
	}

	writeNoContent(stream, http.StatusNoContent)
}

func (f *FSM) deleteCHC(stream *httpserver.StreamHandle, rc router.RequestContext, id string) {
	ps, err := f.Store.Get(id)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	if ps.CHC == nil {
		writeErr(stream, rc, problem.New(problem.KindNotFound, "no content hosting configuration"))
		return
	}
	ps.CHC = nil
	ps.Touch()
	f.M3.EnqueueCHCDelete(ps.AssignedHostnames, ps.ID)
	writeNoContent(stream, http.StatusNoContent)
}
