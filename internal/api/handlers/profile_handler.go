package handlers

import (
	stderrors "errors"
	"net/http"

	"spaces/internal/api/middleware"
	"spaces/internal/engine/profiles"
	"spaces/internal/pkg/errors"
	"spaces/internal/platform/audit"
)

type ProfileHandler struct {
	svc     *profiles.Service
	audit   *audit.Logger
	metrics *middleware.Metrics
}

func NewProfileHandler(svc *profiles.Service, auditLogger *audit.Logger, metrics *middleware.Metrics) *ProfileHandler {
	return &ProfileHandler{svc: svc, audit: auditLogger, metrics: metrics}
}

type createProfileResponse struct {
	Success   bool    `json:"success"`
	ProfileID *string `json:"profileId"`
	AvatarID  *string `json:"avatarId"`
	Error     string  `json:"error,omitempty"`
}

// Get returns the caller's default profile, or null.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.GetDefault(r.Context(), userID(r))
	if err != nil {
		writeProcedureError(w, r, h.metrics, "getUserSingleProfile", err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req profiles.CreateInput
	if err := decode(r, &req); err != nil {
		writeProcedureError(w, r, h.metrics, "createProfile", err)
		return
	}

	result, err := h.svc.Create(r.Context(), userID(r), req)
	if err != nil {
		if msg, soft := softFailureMessage(err); soft && !stderrors.Is(err, profiles.ErrNotFound) {
			h.metrics.SoftFailure("createProfile")
			errors.WriteJSON(w, http.StatusOK, createProfileResponse{Error: msg})
			return
		}
		writeProcedureError(w, r, h.metrics, "createProfile", err)
		return
	}

	h.audit.Log(r.Context(), audit.ActionProfileCreated, "user_profile", result.ProfileID, map[string]interface{}{
		"handle":         req.Handle,
		"defaultProfile": req.DefaultProfile,
	})

	errors.WriteJSON(w, http.StatusOK, createProfileResponse{
		Success:   true,
		ProfileID: &result.ProfileID,
		AvatarID:  result.AvatarID,
	})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req profiles.UpdateInput
	if err := decode(r, &req); err != nil {
		writeProcedureError(w, r, h.metrics, "updateUserProfile", err)
		return
	}

	if err := h.svc.Update(r.Context(), userID(r), req); err != nil {
		writeProcedureError(w, r, h.metrics, "updateUserProfile", err)
		return
	}

	h.audit.Log(r.Context(), audit.ActionProfileUpdated, "user_profile", req.ProfilePublicID, map[string]interface{}{
		"handle": req.Handle,
	})
	errors.WriteJSON(w, http.StatusOK, succeeded)
}
