package m1

import (
	"net/http"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/internal/router"
	"msaf/internal/store"
)

// handleProvisioningSessions is the single entry point for the whole
// /provisioning-sessions subtree; it dispatches on path depth and method.
func (f *FSM) handleProvisioningSessions(stream *httpserver.StreamHandle, rc router.RequestContext) {
	switch len(rc.Components) {
	case 1:
		f.dispatchCollection(stream, rc)
	case 2:
		f.dispatchSession(stream, rc)
	default:
		f.dispatchSubresource(stream, rc)
	}
}

func (f *FSM) dispatchCollection(stream *httpserver.StreamHandle, rc router.RequestContext) {
	switch rc.Method {
	case http.MethodPost:
		f.createSession(stream, rc)
	case http.MethodGet:
		f.listSessions(stream, rc)
	default:
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
	}
}

func (f *FSM) dispatchSession(stream *httpserver.StreamHandle, rc router.RequestContext) {
	id := rc.Component(1)
	switch rc.Method {
	case http.MethodGet:
		f.getSession(stream, rc, id)
	case http.MethodDelete:
		f.deleteSession(stream, rc, id)
	default:
		writeErr(stream, rc, problem.New(problem.KindValidation, "unsupported method"))
	}
}

func (f *FSM) dispatchSubresource(stream *httpserver.StreamHandle, rc router.RequestContext) {
	id := rc.Component(1)
	sub := rc.Component(2)
	switch sub {
	case "content-hosting-configuration":
		f.handleCHC(stream, rc, id)
	case "certificates":
		f.handleCertificates(stream, rc, id)
	case "policy-templates":
		f.handlePolicyTemplates(stream, rc, id)
	case "consumption-reporting-configuration":
		f.handleConsumptionReporting(stream, rc, id)
	case "metrics-reporting-configurations":
		f.handleMetricsReporting(stream, rc, id)
	case "content-protocols":
		f.handleSessionContentProtocols(stream, rc, id)
	default:
		writeErr(stream, rc, problem.New(problem.KindNotFound, "no such subresource"))
	}
}

type createSessionRequest struct {
	ProvisioningSessionType string `json:"provisioningSessionType"`
	AppID                   string `json:"appId"`
	ExternalApplicationID   string `json:"externalApplicationId"`
	ASPID                   string `json:"aspId"`
}

type provisioningSessionView struct {
	ProvisioningSessionID   string `json:"provisioningSessionId"`
	ProvisioningSessionType string `json:"provisioningSessionType"`
	AppID                   string `json:"appId"`
	ExternalApplicationID   string `json:"externalApplicationId,omitempty"`
	ASPID                   string `json:"aspId"`
}

func toView(ps *store.ProvisioningSession) provisioningSessionView {
	return provisioningSessionView{
		ProvisioningSessionID:   ps.ID,
		ProvisioningSessionType: string(ps.Type),
		AppID:                   ps.AppID,
		ExternalApplicationID:   ps.ExternalAppID,
		ASPID:                   ps.ASPID,
	}
}

func (f *FSM) createSession(stream *httpserver.StreamHandle, rc router.RequestContext) {
	raw, err := decodeBody(stream.Request())
	if err != nil {
		writeErr(stream, rc, err)
		return
	}

	var req createSessionRequest
	remarshalInto(raw, &req)

	var params []problem.InvalidParam
	sessionType := store.SessionType(req.ProvisioningSessionType)
	if sessionType != store.SessionTypeDownlink && sessionType != store.SessionTypeUplink {
		params = append(params, problem.InvalidParam{Param: "provisioningSessionType", Reason: "must be DOWNLINK or UPLINK"})
	}
	if req.AppID == "" {
		params = append(params, problem.InvalidParam{Param: "appId", Reason: "must not be empty"})
	}
	if req.ASPID == "" {
		params = append(params, problem.InvalidParam{Param: "aspId", Reason: "must not be empty"})
	}
	if len(params) > 0 {
		pe := problem.New(problem.KindValidation, "invalid provisioning session request")
		pe.Params = params
		writeErr(stream, rc, pe)
		return
	}

	ps := f.Store.Create(sessionType, req.AppID, req.ExternalApplicationID, req.ASPID)
	for host := range f.M3.AllHostnames() {
		ps.AssignedHostnames[host] = true
	}

	view := toView(ps)
	body, _ := marshalCanonical(view)
	ps.ETag = sha256ETag(body)

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("Location", rc.Instance()+"/"+ps.ID)
	header.Set("ETag", ps.ETag)
	_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: http.StatusCreated, Header: header, Body: body})
}

func (f *FSM) listSessions(stream *httpserver.StreamHandle, rc router.RequestContext) {
	ids := f.Store.List()
	writeJSON(stream, http.StatusOK, "", noTime, ids)
}

func (f *FSM) getSession(stream *httpserver.StreamHandle, rc router.RequestContext, id string) {
	ps, err := f.Store.Get(id)
	if err != nil {
		writeErr(stream, rc, err)
		return
	}
	writeJSON(stream, http.StatusOK, ps.ETag, ps.LastModified, toView(ps))
}

func (f *FSM) deleteSession(stream *httpserver.StreamHandle, rc router.RequestContext, id string) {
	if _, err := f.Store.Get(id); err != nil {
		writeErr(stream, rc, err)
		return
	}
	if err := f.Store.BeginDelete(id); err != nil {
		writeErr(stream, rc, err)
		return
	}
	writeNoContent(stream, http.StatusNoContent)
}
