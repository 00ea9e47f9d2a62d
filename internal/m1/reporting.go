package m1

import (
	"net/http"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/internal/router"
	"msaf/internal/store"
)

type consumptionReportingRequest struct {
	ReportingInterval int     `json:"reportingInterval"`
	SamplePercentage  float64 `json:"samplePercentage"`
	LocationReporting bool    `json:"locationReporting"`
	AccessReporting   bool    `json:"accessReporting"`
}

func (f *FSM) handleConsumptionReporting(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}

	switch rc.Method {
	case http.MethodGet:
		if ps.ConsumptionReporting == nil {
			writeErr(stream, rc, problem.New(problem.KindNotFound, "no consumption reporting configuration"))
			return
		}
		writeJSON(stream, http.StatusOK, "", ps.LastModified, ps.ConsumptionReporting)
	case http.MethodPut:
		raw, err := decodeBody(stream.Request())
		if err != nil {
			writeErr(stream, rc, err)
			return
		}
		var req consumptionReportingRequest
		remarshalInto(raw, &req)
		if req.SamplePercentage < 0 || req.SamplePercentage > 100 {
			pe := problem.New(problem.KindValidation, "samplePercentage out of range")
			pe.Params = []problem.InvalidParam{{Param: "samplePercentage", Reason: "must be between 0 and 100"}}
			writeErr(stream, rc, pe)
			return
		}
		ps.ConsumptionReporting = &store.ConsumptionReportingConfiguration{
			ReportingInterval: req.ReportingInterval,
			SamplePercentage:  req.SamplePercentage,
			LocationReporting: req.LocationReporting,
			AccessReporting:   req.AccessReporting,
		}
		ps.Touch()
		writeNoContent(stream, http.StatusNoContent)
	case http.MethodDelete:
		ps.ConsumptionReporting = nil
		ps.Touch()
		writeNoContent(stream, http.StatusNoContent)
	default:
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
	}
}

type metricsReportingRequest struct {
	MetricsReportingConfigurationID string   `json:"metricsReportingConfigurationId"`
	Scheme                          string   `json:"scheme"`
	DataNetworkName                 string   `json:"dataNetworkName"`
	ReportingInterval               int      `json:"reportingInterval"`
	SamplePercentage                float64  `json:"samplePercentage"`
	URLFilters                      []string `json:"urlFilters"`
}

func (f *FSM) handleMetricsReporting(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
	mID := rc.Component(3)
	switch {
	case mID == "" && rc.Method == http.MethodPost:
		f.createMetrics(stream, rc, psID)
	case mID == "" && rc.Method == http.MethodGet:
		f.listMetrics(stream, rc, psID)
	case mID != "" && rc.Method == http.MethodGet:
		f.getMetrics(stream, rc, psID, mID)
	case mID != "" && rc.Method == http.MethodDelete:
		f.deleteMetrics(stream, rc, psID, mID)
	default:
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
	}
}

func (f *FSM) createMetrics(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
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
	var req metricsReportingRequest
	remarshalInto(raw, &req)
	if req.MetricsReportingConfigurationID == "" {
		pe := problem.New(problem.KindValidation, "metricsReportingConfigurationId is required")
		pe.Params = []problem.InvalidParam{{Param: "metricsReportingConfigurationId", Reason: "must not be empty"}}
		writeErr(stream, rc, pe)
		return
	}
	if _, exists := ps.MetricsReporting[req.MetricsReportingConfigurationID]; exists {
		writeErr(stream, rc, problem.New(problem.KindConflict, "metrics reporting configuration already exists"))
		return
	}

	mrc := &store.MetricsReportingConfiguration{
		MetricsReportingConfigurationID: req.MetricsReportingConfigurationID,
		Scheme:                          req.Scheme,
		DataNetworkName:                 req.DataNetworkName,
		ReportingInterval:               req.ReportingInterval,
		SamplePercentage:                req.SamplePercentage,
		URLFilters:                      req.URLFilters,
	}
	ps.MetricsReporting[mrc.MetricsReportingConfigurationID] = mrc
	ps.Touch()

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("Location", rc.Instance()+"/"+mrc.MetricsReportingConfigurationID)
	body, _ := marshalCanonical(mrc)
	_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: http.StatusCreated, Header: header, Body: body})
}

func (f *FSM) listMetrics(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	ids := make([]string, 0, len(ps.MetricsReporting))
	for id := range ps.MetricsReporting {
		ids = append(ids, id)
	}
	writeJSON(stream, http.StatusOK, "", noTime, ids)
}

func (f *FSM) getMetrics(stream *httpserver.StreamHandle, rc router.RequestContext, psID, mID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	mrc, ok := ps.MetricsReporting[mID]
	if !ok {
		writeErr(stream, rc, problem.New(problem.KindNotFound, "metrics reporting configuration not found"))
		return
	}
	writeJSON(stream, http.StatusOK, "", ps.LastModified, mrc)
}

func (f *FSM) deleteMetrics(stream *httpserver.StreamHandle, rc router.RequestContext, psID, mID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	if _, ok := ps.MetricsReporting[mID]; !ok {
		writeErr(stream, rc, problem.New(problem.KindNotFound, "metrics reporting configuration not found"))
		return
	}
	delete(ps.MetricsReporting, mID)
	ps.Touch()
	writeNoContent(stream, http.StatusNoContent)
}
