package m5

import (
	"net/http"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/internal/router"
	"msaf/internal/store"
)

// handleNetworkAssistance dispatches the two network-assistance operations
// spec.md §1/§4.8 name: bitrate recommendations (read-only, derived from
// the session's active policy template — no 5G-Core round trip needed) and
// delivery boosts (PCF/BSF-backed, C8).
func (f *FSM) handleNetworkAssistance(stream *httpserver.StreamHandle, rc router.RequestContext) {
	psID := rc.Component(1)
	op := rc.Component(2)
	switch {
	case op == "bitrate-recommendation" && rc.Method == http.MethodGet:
		f.getBitrateRecommendation(stream, rc, psID)
	case op == "delivery-boost" && rc.Method == http.MethodPost:
		f.postDeliveryBoost(stream, rc, psID)
	default:
		writeErr(stream, rc, problem.New(problem.KindNotFound, "no such network-assistance operation"))
	}
}

type bitrateRecommendationView struct {
	PolicyTemplateID string `json:"policyTemplateId"`
	QoSReference     string `json:"qosReference"`
}

// getBitrateRecommendation reports the QoS reference of the session's
// active (non-boosted) policy template as its bitrate recommendation; the
// distilled spec names this capability without detailing its derivation,
// so this implementation ties it to the same policy-template state the
// delivery boost targets (see DESIGN.md).
func (f *FSM) getBitrateRecommendation(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	for _, pt := range ps.PolicyTemplates {
		if pt.State == store.PolicyValid && !pt.IsBoostable {
			writeJSON(stream, http.StatusOK, "", ps.LastModified, 0, bitrateRecommendationView{PolicyTemplateID: pt.PolicyTemplateID, QoSReference: pt.QoSReference})
			return
		}
	}
	writeErr(stream, rc, problem.New(problem.KindNotFound, "no active policy template to recommend from"))
}

type deliveryBoostRequest struct {
	UEAddress string `json:"ueAddress"`
}

func (f *FSM) postDeliveryBoost(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
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
	var req deliveryBoostRequest
	remarshalInto(raw, &req)
	if req.UEAddress == "" {
		pe := problem.New(problem.KindValidation, "ueAddress is required")
		pe.Params = []problem.InvalidParam{{Param: "ueAddress", Reason: "must not be empty"}}
		writeErr(stream, rc, pe)
		return
	}

	f.PCF.RequestBoost(ps, req.UEAddress, func(boostErr error) {
		if boostErr != nil {
			writeErr(stream, rc, boostErr)
			return
		}
		writeNoContent(stream, http.StatusNoContent)
	})
}
