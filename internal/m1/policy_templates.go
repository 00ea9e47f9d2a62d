package m1

import (
	"net/http"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/internal/router"
	"msaf/internal/store"
)

func (f *FSM) handlePolicyTemplates(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
	ptID := rc.Component(3)
	switch {
	case ptID == "" && rc.Method == http.MethodPost:
		f.createPolicyTemplate(stream, rc, psID)
	case ptID == "" && rc.Method == http.MethodGet:
		f.listPolicyTemplates(stream, rc, psID)
	case ptID != "" && rc.Method == http.MethodGet:
		f.getPolicyTemplate(stream, rc, psID, ptID)
	case ptID != "" && rc.Method == http.MethodPut:
		f.putPolicyTemplate(stream, rc, psID, ptID)
	case ptID != "" && rc.Method == http.MethodDelete:
		f.deletePolicyTemplate(stream, rc, psID, ptID)
	default:
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
	}
}

type policyTemplateRequest struct {
	PolicyTemplateID string                 `json:"policyTemplateId"`
	QoSReference     string                 `json:"qosReference"`
	IsBoostable      bool                   `json:"isBoostable"`
	Document         map[string]interface{} `json:"document"`
	State            string                 `json:"state"`
}

type policyTemplateView struct {
	PolicyTemplateID string `json:"policyTemplateId"`
	State            string `json:"state"`
	QoSReference     string `json:"qosReference"`
	IsBoostable      bool   `json:"isBoostable"`
}

func toPolicyView(pt *store.PolicyTemplate) policyTemplateView {
	return policyTemplateView{
		PolicyTemplateID: pt.PolicyTemplateID,
		State:            string(pt.State),
		QoSReference:     pt.QoSReference,
		IsBoostable:      pt.IsBoostable,
	}
}

func (f *FSM) createPolicyTemplate(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
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
	var req policyTemplateRequest
	remarshalInto(raw, &req)
	if req.PolicyTemplateID == "" {
		pe := problem.New(problem.KindValidation, "policyTemplateId is required")
		pe.Params = []problem.InvalidParam{{Param: "policyTemplateId", Reason: "must not be empty"}}
		writeErr(stream, rc, pe)
		return
	}
	if _, exists := ps.PolicyTemplates[req.PolicyTemplateID]; exists {
		writeErr(stream, rc, problem.New(problem.KindConflict, "policy template already exists"))
		return
	}

	pt := &store.PolicyTemplate{
		PolicyTemplateID: req.PolicyTemplateID,
		State:            store.PolicyPending,
		QoSReference:     req.QoSReference,
		IsBoostable:      req.IsBoostable,
		Document:         req.Document,
	}
	ps.PolicyTemplates[req.PolicyTemplateID] = pt
	ps.Touch()

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("Location", rc.Instance()+"/"+pt.PolicyTemplateID)
	body, _ := marshalCanonical(toPolicyView(pt))
	_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: http.StatusCreated, Header: header, Body: body})
}

func (f *FSM) listPolicyTemplates(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	views := make([]policyTemplateView, 0, len(ps.PolicyTemplates))
	for _, pt := range ps.PolicyTemplates {
		views = append(views, toPolicyView(pt))
	}
	writeJSON(stream, http.StatusOK, "", noTime, views)
}

func (f *FSM) getPolicyTemplate(stream *httpserver.StreamHandle, rc router.RequestContext, psID, ptID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	pt, ok := ps.PolicyTemplates[ptID]
	if !ok {
		writeErr(stream, rc, problem.New(problem.KindNotFound, "policy template not found"))
		return
	}
	writeJSON(stream, http.StatusOK, "", ps.LastModified, toPolicyView(pt))
}

// putPolicyTemplate updates a policy template's document and, when the
// request names one, its approval state. This is the "approval (internal
// or via management)" transition spec.md §4.5 describes; the management
// API proper only enumerates ids (spec.md §6), so state transitions are
// exposed here rather than inventing an unspecified management sub-API.
func (f *FSM) putPolicyTemplate(stream *httpserver.StreamHandle, rc router.RequestContext, psID, ptID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	pt, ok := ps.PolicyTemplates[ptID]
	if !ok {
		writeErr(stream, rc, problem.New(problem.KindNotFound, "policy template not found"))
		return
	}

	raw, err := decodeBody(stream.Request())
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	var req policyTemplateRequest
	remarshalInto(raw, &req)

	if req.Document != nil {
		pt.Document = req.Document
	}
	if req.QoSReference != "" {
		pt.QoSReference = req.QoSReference
	}
	switch store.PolicyState(req.State) {
	case store.PolicyValid, store.PolicyInvalid, store.PolicyPending:
		pt.State = store.PolicyState(req.State)
	case "":
		// no state transition requested
	default:
		pe := problem.New(problem.KindValidation, "unrecognised policy template state")
		pe.Params = []problem.InvalidParam{{Param: "state", Reason: "must be pending, valid or invalid"}}
		writeErr(stream, rc, pe)
		return
	}
	ps.Touch()

	writeJSON(stream, http.StatusOK, "", ps.LastModified, toPolicyView(pt))
}

func (f *FSM) deletePolicyTemplate(stream *httpserver.StreamHandle, rc router.RequestContext, psID, ptID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	if _, ok := ps.PolicyTemplates[ptID]; !ok {
		writeErr(stream, rc, problem.New(problem.KindNotFound, "policy template not found"))
		return
	}
	delete(ps.PolicyTemplates, ptID)
	ps.Touch()
	writeNoContent(stream, http.StatusNoContent)
}
