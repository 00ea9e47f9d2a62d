package router

import (
	"encoding/json"
	"net/http"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
)

// WriteProblem renders err as an RFC 7807 application/problem+json body and
// sends it through stream's owning backend. M1, M3 and M5 handlers call
// this directly; it is also how Dispatch itself reports an unmatched
// resource family.
func WriteProblem(stream *httpserver.StreamHandle, rc RequestContext, err *problem.Error) error {
	details := err.ToDetails(rc.ServiceName, rc.APIVersion, rc.Components)
	body, marshalErr := marshalDetails(details)
	if marshalErr != nil {
		return marshalErr
	}
	return stream.Owner.SendResponse(stream, httpserver.Response{
		Status: details.Status,
		Header: problemHeader(),
		Body:   body,
	})
}

func marshalDetails(details problem.Details) ([]byte, error) {
	return json.Marshal(details)
}

func problemHeader() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", problem.ContentType)
	return h
}
