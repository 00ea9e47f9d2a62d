// Package m5 implements the M5 service-access API finite-state machine
// from spec.md §4.7 (C7): Service Access Information, consumption and
// metrics reporting, dynamic policies, and network assistance.
package m5

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"msaf/internal/httpserver"
	"msaf/internal/pcf"
	"msaf/internal/problem"
	"msaf/internal/router"
	"msaf/internal/store"
	"msaf/pkg/logging"
)

const subsystem = "M5"

// FSM wires the provisioning store and PCF/BSF manager into the M5
// resource tree. One FSM instance handles every M5 request; its methods
// run on the event-loop goroutine per spec.md §4.9, same as internal/m1.
type FSM struct {
	Store *store.Store
	PCF   *pcf.Manager

	DataCollectionDir     string
	SAICacheControlMaxAge int
}

// Register binds every M5 resource family onto rt.
func (f *FSM) Register(rt *router.Router) {
	rt.Register(router.ServiceM5, "service-access-information", f.handleServiceAccessInformation)
	rt.Register(router.ServiceM5, "consumption-reports", f.handleConsumptionReports)
	rt.Register(router.ServiceM5, "metrics-reports", f.handleMetricsReports)
	rt.Register(router.ServiceM5, "dynamic-policies", f.handleDynamicPolicies)
	rt.Register(router.ServiceM5, "network-assistance", f.handleNetworkAssistance)
}

func writeJSON(stream *httpserver.StreamHandle, status int, etag string, lastModified time.Time, cacheControlMaxAge int, body interface{}) {
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
	if cacheControlMaxAge > 0 {
		header.Set("Cache-Control", fmt.Sprintf("max-age=%d", cacheControlMaxAge))
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

func remarshalInto(raw map[string]interface{}, dst interface{}) {
	b, _ := json.Marshal(raw)
	_ = json.Unmarshal(b, dst)
}

func weakEqual(a, b string) bool {
	trim := func(s string) string {
		if len(s) >= 2 && s[:2] == "W/" {
			return s[2:]
		}
		return s
	}
	return trim(a) == trim(b)
}
