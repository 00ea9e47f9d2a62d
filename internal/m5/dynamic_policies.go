package m5

import (
	"encoding/json"
	"net/http"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/internal/router"
	"msaf/internal/store"
)

// handleDynamicPolicies implements spec.md §4.7's "Dynamic-policy
// create/read/update/delete operates on the PS's policy-template set":
// client-initiated policies share the same store.PolicyTemplate set M1
// provisions, entering directly in the valid state since client creation
// implies immediate activation (see DESIGN.md).
func (f *FSM) handleDynamicPolicies(stream *httpserver.StreamHandle, rc router.RequestContext) {
	psID := rc.Component(1)
	policyID := rc.Component(2)
	switch {
	case policyID == "" && rc.Method == http.MethodPost:
		f.createDynamicPolicy(stream, rc, psID)
	case policyID != "" && rc.Method == http.MethodGet:
		f.getDynamicPolicy(stream, rc, psID, policyID)
	case policyID != "" && rc.Method == http.MethodPut:
		f.updateDynamicPolicy(stream, rc, psID, policyID)
	case policyID != "" && rc.Method == http.MethodDelete:
		f.deleteDynamicPolicy(stream, rc, psID, policyID)
	default:
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
	}
}

type dynamicPolicyRequest struct {
	PolicyTemplateID string                 `json:"policyTemplateId"`
	QoSReference     string                 `json:"qosReference"`
	Document         map[string]interface{} `json:"document"`
}

type dynamicPolicyView struct {
	PolicyTemplateID string `json:"policyTemplateId"`
	State            string `json:"state"`
	QoSReference     string `json:"qosReference"`
}

func toDynamicPolicyView(pt *store.PolicyTemplate) dynamicPolicyView {
	return dynamicPolicyView{PolicyTemplateID: pt.PolicyTemplateID, State: string(pt.State), QoSReference: pt.QoSReference}
}

func (f *FSM) createDynamicPolicy(stream *httpserver.StreamHandle, rc router.RequestContext, psID string) {
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
	var req dynamicPolicyRequest
	remarshalInto(raw, &req)
	if req.PolicyTemplateID == "" {
		pe := problem.New(problem.KindValidation, "policyTemplateId is required")
		pe.Params = []problem.InvalidParam{{Param: "policyTemplateId", Reason: "must not be empty"}}
		writeErr(stream, rc, pe)
		return
	}
	if _, exists := ps.PolicyTemplates[req.PolicyTemplateID]; exists {
		writeErr(stream, rc, problem.New(problem.KindConflict, "dynamic policy already exists"))
		return
	}

	pt := &store.PolicyTemplate{
		PolicyTemplateID: req.PolicyTemplateID,
		State:            store.PolicyValid,
		QoSReference:     req.QoSReference,
		Document:         req.Document,
	}
	ps.PolicyTemplates[pt.PolicyTemplateID] = pt
	ps.Touch()

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("Location", rc.Instance()+"/"+pt.PolicyTemplateID)
	body, _ := json.Marshal(toDynamicPolicyView(pt))
	_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: http.StatusCreated, Header: header, Body: body})
}

func (f *FSM) getDynamicPolicy(stream *httpserver.StreamHandle, rc router.RequestContext, psID, policyID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	pt, ok := ps.PolicyTemplates[policyID]
	if !ok {
		writeErr(stream, rc, problem.New(problem.KindNotFound, "dynamic policy not found"))
		return
	}
	writeJSON(stream, http.StatusOK, "", ps.LastModified, 0, toDynamicPolicyView(pt))
}

func (f *FSM) updateDynamicPolicy(stream *httpserver.StreamHandle, rc router.RequestContext, psID, policyID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	pt, ok := ps.PolicyTemplates[policyID]
	if !ok {
		writeErr(stream, rc, problem.New(problem.KindNotFound, "dynamic policy not found"))
		return
	}
	raw, err := decodeBody(stream.Request())
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	var req dynamicPolicyRequest
	remarshalInto(raw, &req)
	if req.QoSReference != "" {
		pt.QoSReference = req.QoSReference
	}
	if req.Document != nil {
		pt.Document = req.Document
	}
	ps.Touch()
	writeJSON(stream, http.StatusOK, "", ps.LastModified, 0, toDynamicPolicyView(pt))
}

func (f *FSM) deleteDynamicPolicy(stream *httpserver.StreamHandle, rc router.RequestContext, psID, policyID string) {
	ps, err := f.Store.Get(psID)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	if _, ok := ps.PolicyTemplates[policyID]; !ok {
		writeErr(stream, rc, problem.New(problem.KindNotFound, "dynamic policy not found"))
		return
	}
	delete(ps.PolicyTemplates, policyID)
	ps.Touch()
	writeNoContent(stream, http.StatusNoContent)
}
