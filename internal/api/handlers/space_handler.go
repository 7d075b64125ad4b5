package handlers

import (
	"net/http"

	"spaces/internal/api/middleware"
	"spaces/internal/engine/spaces"
	"spaces/internal/pkg/errors"
	"spaces/internal/platform/audit"
)

// SpaceParam is the route parameter holding the space shortcode.
const SpaceParam = "space"

type SpaceHandler struct {
	svc     *spaces.Service
	audit   *audit.Logger
	metrics *middleware.Metrics
}

func NewSpaceHandler(svc *spaces.Service, auditLogger *audit.Logger, metrics *middleware.Metrics) *SpaceHandler {
	return &SpaceHandler{svc: svc, audit: auditLogger, metrics: metrics}
}

// List returns the spaces the caller can see in the organization.
func (h *SpaceHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListOrgMemberSpaces(r.Context(), callerFrom(r))
	if err != nil {
		writeProcedureError(w, r, h.metrics, "getOrgMemberSpaces", err)
		return
	}
	if list == nil {
		list = []spaces.MemberSpace{}
	}
	errors.WriteJSON(w, http.StatusOK, list)
}

func (h *SpaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req spaces.CreateInput
	if err := decode(r, &req); err != nil {
		writeProcedureError(w, r, h.metrics, "createSpace", err)
		return
	}

	result, err := h.svc.Create(r.Context(), callerFrom(r), req)
	if err != nil {
		writeProcedureError(w, r, h.metrics, "createSpace", err)
		return
	}

	h.audit.Log(r.Context(), audit.ActionSpaceCreated, "space", result.SpaceID, map[string]interface{}{
		"shortcode": result.SpaceShortcode,
		"type":      req.SpaceType,
	})

	errors.WriteJSON(w, http.StatusCreated, struct {
		Success bool `json:"success"`
		*spaces.CreateResult
	}{true, result})
}

// Settings answers null when the space is not in the caller's organization.
func (h *SpaceHandler) Settings(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetSettings(r.Context(), callerFrom(r), spaces.SettingsInput{SpaceShortcode: param(r, SpaceParam)})
	if err != nil {
		writeProcedureError(w, r, h.metrics, "getSpacesSettings", err)
		return
	}
	if result == nil || result.Settings == nil {
		errors.WriteJSON(w, http.StatusOK, nil)
		return
	}
	errors.WriteJSON(w, http.StatusOK, result)
}

func (h *SpaceHandler) SetName(w http.ResponseWriter, r *http.Request) {
	var req spaces.SetNameInput
	if err := decode(r, &req); err != nil {
		writeProcedureError(w, r, h.metrics, "setSpaceName", err)
		return
	}
	req.SpaceShortcode = param(r, SpaceParam)

	h.respond(w, r, "setSpaceName", h.svc.SetName(r.Context(), callerFrom(r), req),
		audit.ActionSpaceNameSet, req.SpaceShortcode, map[string]interface{}{"name": req.SpaceName})
}

func (h *SpaceHandler) SetDescription(w http.ResponseWriter, r *http.Request) {
	var req spaces.SetDescriptionInput
	if err := decode(r, &req); err != nil {
		writeProcedureError(w, r, h.metrics, "setSpaceDescription", err)
		return
	}
	req.SpaceShortcode = param(r, SpaceParam)

	h.respond(w, r, "setSpaceDescription", h.svc.SetDescription(r.Context(), callerFrom(r), req),
		audit.ActionSpaceDescSet, req.SpaceShortcode, nil)
}

func (h *SpaceHandler) SetColor(w http.ResponseWriter, r *http.Request) {
	var req spaces.SetColorInput
	if err := decode(r, &req); err != nil {
		writeProcedureError(w, r, h.metrics, "setSpaceColor", err)
		return
	}
	req.SpaceShortcode = param(r, SpaceParam)

	h.respond(w, r, "setSpaceColor", h.svc.SetColor(r.Context(), callerFrom(r), req),
		audit.ActionSpaceColorSet, req.SpaceShortcode, map[string]interface{}{"color": req.SpaceColor})
}

func (h *SpaceHandler) SetType(w http.ResponseWriter, r *http.Request) {
	var req spaces.SetTypeInput
	if err := decode(r, &req); err != nil {
		writeProcedureError(w, r, h.metrics, "setSpaceType", err)
		return
	}
	req.SpaceShortcode = param(r, SpaceParam)

	h.respond(w, r, "setSpaceType", h.svc.SetType(r.Context(), callerFrom(r), req),
		audit.ActionSpaceTypeSet, req.SpaceShortcode, map[string]interface{}{"type": req.SpaceType})
}

func (h *SpaceHandler) respond(w http.ResponseWriter, r *http.Request, procedure string, err error, action, shortcode string, metadata map[string]interface{}) {
	if err != nil {
		writeProcedureError(w, r, h.metrics, procedure, err)
		return
	}
	h.audit.Log(r.Context(), action, "space", shortcode, metadata)
	errors.WriteJSON(w, http.StatusOK, succeeded)
}
