// Package management implements the 5GMAG reference-tools management API
// from spec.md §6: a single read-only endpoint, GET
// /5gmag-rt-management/v1/provisioning-sessions, that enumerates the ids of
// every active Provisioning Session. It is a thin read-only view over
// internal/store — unlike M1 and M5 it never mutates the store, so unlike
// internal/m1.FSM and internal/m5.FSM it carries no certmgr/M3/PCF
// dependency of its own.
package management

import (
	"encoding/json"
	"net/http"

	"msaf/internal/httpserver"
	"msaf/internal/problem"
	"msaf/internal/router"
	"msaf/internal/store"
)

// Handler binds the management resource family onto a store.
type Handler struct {
	Store *store.Store
}

// New returns a management Handler over st.
func New(st *store.Store) *Handler {
	return &Handler{Store: st}
}

// Register binds the management resource family onto rt. spec.md's literal
// path is /5gmag-rt-management/v1/provisioning-sessions, so the matched
// resource family (Components[0]) is "provisioning-sessions", same as M1.
func (h *Handler) Register(rt *router.Router) {
	rt.Register(router.ManagementService, "provisioning-sessions", h.handleProvisioningSessions)
}

func (h *Handler) handleProvisioningSessions(stream *httpserver.StreamHandle, rc router.RequestContext) {
	if rc.Method != http.MethodGet || len(rc.Components) != 1 {
		_ = router.WriteProblem(stream, rc, problem.New(problem.KindValidation, "unsupported management request"))
		return
	}

	ids := h.Store.List()
	payload, err := json.Marshal(ids)
	if err != nil {
		_ = router.WriteProblem(stream, rc, problem.Wrap(problem.KindInternal, "marshaling provisioning session ids", err))
		return
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	_ = stream.Owner.SendResponse(stream, httpserver.Response{Status: http.StatusOK, Header: header, Body: payload})
}
