package m5

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/internal/router"
	"msaf/pkg/logging"
)

// handleConsumptionReports accepts an inbound consumption report only when
// the PS has a Consumption Reporting Configuration (spec.md §4.7) and
// persists it under DataCollectionDir; the report's contents are not
// checked against that configuration, and the AF does not parse or retain
// it beyond that, matching "written to a configurable filesystem directory".
func (f *FSM) handleConsumptionReports(stream *httpserver.StreamHandle, rc router.RequestContext) {
	if rc.Method != http.MethodPost {
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
		return
	}
	psID := rc.Component(1)
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	if ps.ConsumptionReporting == nil {
		writeErr(stream, rc, problem.New(problem.KindValidation, "no consumption reporting configuration accepted for this session"))
		return
	}

	raw, err := decodeBody(stream.Request())
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	if err := f.persistReport(psID, "consumption", raw); err != nil {
		writeErr(stream, rc, err)
		return
	}
	writeNoContent(stream, http.StatusNoContent)
}

// handleMetricsReports validates an inbound metrics report names one of
// the PS's configured Metrics Reporting Configurations and persists it.
func (f *FSM) handleMetricsReports(stream *httpserver.StreamHandle, rc router.RequestContext) {
	if rc.Method != http.MethodPost {
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
		return
	}
	psID := rc.Component(1)
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
	mID, _ := raw["metricsReportingConfigurationId"].(string)
	if _, ok := ps.MetricsReporting[mID]; !ok {
		pe := problem.New(problem.KindValidation, "unknown metricsReportingConfigurationId")
		pe.Params = []problem.InvalidParam{{Param: "metricsReportingConfigurationId", Reason: "not configured on this session"}}
		writeErr(stream, rc, pe)
		return
	}
	if err := f.persistReport(psID, "metrics-"+mID, raw); err != nil {
		writeErr(stream, rc, err)
		return
	}
	writeNoContent(stream, http.StatusNoContent)
}

func (f *FSM) persistReport(psID, kind string, body map[string]interface{}) error {
	if f.DataCollectionDir == "" {
		return nil
	}
	if err := os.MkdirAll(f.DataCollectionDir, 0o755); err != nil {
		return problem.Wrap(problem.KindInternal, "creating data collection directory", err)
	}
	name := fmt.Sprintf("%s-%s-%d.json", psID, kind, time.Now().UnixNano())
	payload, err := json.Marshal(body)
	if err != nil {
		return problem.Wrap(problem.KindInternal, "marshaling report", err)
	}
	path := filepath.Join(f.DataCollectionDir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return problem.Wrap(problem.KindInternal, "writing report to disk", err)
	}
	logging.Debug(subsystem, "wrote %s report for %s to %s", kind, psID, path)
	return nil
}
