package handlers

import (
	"net/http"

	apiContext "spaces/internal/api/context"
	"spaces/internal/engine/entitlements"
	"spaces/internal/pkg/errors"
)

type OrgHandler struct {
	checker *entitlements.Checker
}

func NewOrgHandler(checker *entitlements.Checker) *OrgHandler {
	return &OrgHandler{checker: checker}
}

type orgSummary struct {
	PublicID     string                    `json:"publicId"`
	Shortcode    string                    `json:"shortcode"`
	PlanTier     string                    `json:"planTier"`
	Role         string                    `json:"role"`
	MemberID     string                    `json:"orgMemberPublicId"`
	Entitlements entitlements.Entitlements `json:"entitlements"`
}

// GetCurrent describes the organization and the caller's membership of it.
func (h *OrgHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	org, _ := apiContext.OrgFrom(r.Context())
	if org == nil {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization not found", nil)
		return
	}

	errors.WriteJSON(w, http.StatusOK, orgSummary{
		PublicID:     org.OrgID,
		Shortcode:    org.OrgShortcode,
		PlanTier:     org.PlanTier,
		Role:         org.Role,
		MemberID:     org.MemberID,
		Entitlements: h.checker.For(org.PlanTier),
	})
}

// Entitlements lists the plan-gated features the organization may use.
func (h *OrgHandler) Entitlements(w http.ResponseWriter, r *http.Request) {
	org, _ := apiContext.OrgFrom(r.Context())
	if org == nil {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization not found", nil)
		return
	}
	errors.WriteJSON(w, http.StatusOK, h.checker.For(org.PlanTier))
}
