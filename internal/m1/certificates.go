package m1

import (
	"context"
	"net/http"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/internal/router"
)

func (f *FSM) handleCertificates(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
	certID := rc.Component(3)
	switch {
	case certID == "" && rc.Method == http.MethodPost:
		f.createCertificate(stream, rc, psID)
	case certID == "" && rc.Method == http.MethodGet:
		f.listCertificates(stream, rc, psID)
	case certID != "" && rc.Method == http.MethodGet:
		f.getCertificate(stream, rc, psID, certID)
	case certID != "" && rc.Method == http.MethodDelete:
		f.deleteCertificate(stream, rc, psID, certID)
	default:
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
	}
}

type createCertificateRequest struct {
	CertificateID string `json:"certificateId"`
}

// createCertificate invokes the external certmgr, which is this FSM's one
// certmgr-shaped suspension point (spec.md §5b): the blocking
// exec.CommandContext call runs off the event-loop goroutine, and the
// response is written from the continuation once it returns.
func (f *FSM) createCertificate(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}

	raw, err := decodeBody(stream.Request())
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	var req createCertificateRequest
	remarshalInto(raw, &req)
	if req.CertificateID == "" {
		pe := problem.New(problem.KindValidation, "certificateId is required")
		pe.Params = []problem.InvalidParam{{Param: "certificateId", Reason: "must not be empty"}}
		writeErr(stream, rc, pe)
		return
	}

	// Reserve runs here, synchronously on the event-loop goroutine: it
	// mutates ps.Certificates directly, so it must not race the goroutine
	// below. Only Issue's certmgr invocation is a suspension point
	// (spec.md §4.9/§5); Finalize/Abort apply its result back on the loop,
	// in the continuation.
	cert, err := f.Certs.Reserve(ps, req.CertificateID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}

	f.Loop.Go(func() func() {
		path, issueErr := f.Certs.Issue(context.Background(), cert)
		return func() {
			if issueErr != nil {
				writeErr(stream, rc, f.Certs.Abort(ps, cert, issueErr))
				return
			}
			f.Certs.Finalize(ps, cert, path)

			header := make(http.Header)
			header.Set("Content-Type", "application/json")
			header.Set("Location", rc.Instance()+"/"+cert.CertificateID)
			body, _ := marshalCanonical(certificateView{CertificateID: cert.CertificateID, AFUniqueID: cert.AFUniqueID})
			_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: http.StatusCreated, Header: header, Body: body})
		}
	})
}

type certificateView struct {
	CertificateID string `json:"certificateId"`
	AFUniqueID    string `json:"afUniqueCertificateId"`
}

func (f *FSM) listCertificates(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	ids := make([]string, 0, len(ps.Certificates))
	for id := range ps.Certificates {
		ids = append(ids, id)
	}
	writeJSON(stream, http.StatusOK, "", noTime, ids)
}

func (f *FSM) getCertificate(stream *httpserver.StreamHandle, rc router.RequestContext, psID, certID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	cert, ok := ps.Certificates[certID]
	if !ok {
		writeErr(stream, rc, problem.New(problem.KindNotFound, "certificate not found"))
		return
	}
	pem, err := f.Certs.Read(cert)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/x-pem-file")
	_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: http.StatusOK, Header: header, Body: pem})
}

func (f *FSM) deleteCertificate(stream *httpserver.StreamHandle, rc router.RequestContext, psID, certID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}

	// LookupForDelete and FinalizeDelete mutate ps.Certificates directly,
	// so they run on the event-loop goroutine; only Revoke's certmgr
	// invocation runs off it.
	cert, err := f.Certs.LookupForDelete(ps, certID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}

	f.Loop.Go(func() func() {
		f.Certs.Revoke(context.Background(), cert)
		return func() {
			f.Certs.FinalizeDelete(ps, cert)
			writeNoContent(stream, http.StatusNoContent)
		}
	})
}
