package middleware

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/hlog"
	apiContext "spaces/internal/api/context"
	"spaces/internal/pkg/errors"
	"spaces/internal/platform/repositories"
)

// OrgParam is the route parameter holding the organization shortcode.
const OrgParam = "org"

type OrgMiddleware struct {
	orgRepo    *repositories.OrganizationRepository
	memberRepo *repositories.OrgMemberRepository
}

func NewOrgMiddleware(orgRepo *repositories.OrganizationRepository, memberRepo *repositories.OrgMemberRepository) *OrgMiddleware {
	return &OrgMiddleware{orgRepo: orgRepo, memberRepo: memberRepo}
}

// Handle resolves the organization named in the route and requires the
// authenticated user to be an active member of it. Unknown organizations and
// non-members get the same 403 so shortcodes cannot be probed.
func (m *OrgMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := apiContext.ClaimsFrom(r.Context())
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
		shortcode := params.ByName(OrgParam)
		if shortcode == "" {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization not found", nil)
			return
		}

		org, err := m.orgRepo.GetByShortcode(r.Context(), shortcode)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("org", shortcode).Msg("failed to load organization")
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
			return
		}
		if org == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization not found", nil)
			return
		}

		member, err := m.memberRepo.GetActive(r.Context(), org.ID, claims.UserID)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("org", shortcode).Msg("failed to load membership")
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load membership", nil)
			return
		}
		if member == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization not found", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Org, &apiContext.OrgContext{
			OrgID:        org.ID,
			OrgShortcode: org.Shortcode,
			PlanTier:     org.PlanTier,
			MemberID:     member.ID,
			Role:         member.Role,
		})

		next(w, r.WithContext(ctx))
	}
}

// RequireOrgRole lets through members whose organization role is one of roles.
func RequireOrgRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			org, ok := apiContext.OrgFrom(r.Context())
			if !ok {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}

			for _, role := range roles {
				if org.Role == role {
					next(w, r)
					return
				}
			}

			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
		}
	}
}
