package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"
	apiContext "spaces/internal/api/context"
	"spaces/internal/pkg/errors"
	"spaces/internal/platform/audit"
)

type AuditHandler struct {
	logger *audit.Logger
}

func NewAuditHandler(logger *audit.Logger) *AuditHandler {
	return &AuditHandler{logger: logger}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	org, _ := apiContext.OrgFrom(r.Context())
	if org == nil {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization not found", nil)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.logger.List(r.Context(), org.OrgID, limit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to list audit logs")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if logs == nil {
		logs = []*audit.AuditLog{}
	}

	errors.WriteJSON(w, http.StatusOK, logs)
}
