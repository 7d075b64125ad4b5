package handlers

import (
	"net/http"

	"spaces/internal/api/middleware"
	"spaces/internal/engine/spaces"
	"spaces/internal/pkg/errors"
	"spaces/internal/platform/audit"
)

const StatusParam = "status_id"

type StatusHandler struct {
	svc     *spaces.Service
	audit   *audit.Logger
	metrics *middleware.Metrics
}

func NewStatusHandler(svc *spaces.Service, auditLogger *audit.Logger, metrics *middleware.Metrics) *StatusHandler {
	return &StatusHandler{svc: svc, audit: auditLogger, metrics: metrics}
}

func (h *StatusHandler) List(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.svc.ListStatuses(r.Context(), callerFrom(r), spaces.SettingsInput{SpaceShortcode: param(r, SpaceParam)})
	if err != nil {
		writeProcedureError(w, r, h.metrics, "getSpacesStatuses", err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, grouped)
}

func (h *StatusHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req spaces.AddStatusInput
	if err := decode(r, &req); err != nil {
		writeProcedureError(w, r, h.metrics, "addSpaceStatus", err)
		return
	}
	req.SpaceShortcode = param(r, SpaceParam)

	result, err := h.svc.AddStatus(r.Context(), callerFrom(r), req)
	if err != nil {
		writeProcedureError(w, r, h.metrics, "addSpaceStatus", err)
		return
	}

	h.audit.Log(r.Context(), audit.ActionStatusAdded, "space_status", result.StatusID, map[string]interface{}{
		"space": req.SpaceShortcode,
		"type":  req.Type,
		"order": result.Order,
	})

	errors.WriteJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*spaces.AddStatusResult
	}{true, result})
}

func (h *StatusHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req spaces.EditStatusInput
	if err := decode(r, &req); err != nil {
		writeProcedureError(w, r, h.metrics, "editSpaceStatus", err)
		return
	}
	req.SpaceShortcode = param(r, SpaceParam)
	req.StatusID = param(r, StatusParam)

	if err := h.svc.EditStatus(r.Context(), callerFrom(r), req); err != nil {
		writeProcedureError(w, r, h.metrics, "editSpaceStatus", err)
		return
	}

	h.audit.Log(r.Context(), audit.ActionStatusEdited, "space_status", req.StatusID, map[string]interface{}{
		"space": req.SpaceShortcode,
	})
	errors.WriteJSON(w, http.StatusOK, succeeded)
}
