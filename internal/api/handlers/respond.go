package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/hlog"
	apiContext "spaces/internal/api/context"
	"spaces/internal/api/middleware"
	"spaces/internal/engine/avatars"
	"spaces/internal/engine/profiles"
	"spaces/internal/engine/spaces"
	"spaces/internal/pkg/errors"
	"spaces/internal/pkg/validator"
)

const maxBodyBytes = 1 << 20

type successResponse struct {
	Success bool `json:"success"`
}

var succeeded = successResponse{Success: true}

var errBadBody = stderrors.New("invalid request body")

func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return errBadBody
	}
	return nil
}

func param(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

// callerFrom builds the space procedure caller from the resolved organization.
func callerFrom(r *http.Request) spaces.Caller {
	org, _ := apiContext.OrgFrom(r.Context())
	if org == nil {
		return spaces.Caller{}
	}
	return spaces.Caller{OrgID: org.OrgID, MemberID: org.MemberID, PlanTier: org.PlanTier}
}

func userID(r *http.Request) string {
	claims, _ := apiContext.ClaimsFrom(r.Context())
	if claims == nil {
		return ""
	}
	return claims.UserID
}

// writeProcedureError renders err the way procedure failures reach clients:
// invalid input as field messages, recoverable outcomes as {success:false},
// and everything else as an error response.
func writeProcedureError(w http.ResponseWriter, r *http.Request, metrics *middleware.Metrics, procedure string, err error) {
	if fe, ok := validator.AsFieldErrors(err); ok {
		errors.WriteFieldErrors(w, fe.Fields())
		return
	}
	if err == errBadBody {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if msg, soft := softFailureMessage(err); soft {
		metrics.SoftFailure(procedure)
		hlog.FromRequest(r).Debug().Err(err).Str("procedure", procedure).Msg("procedure failed softly")
		errors.WriteFailure(w, msg)
		return
	}

	switch {
	case stderrors.Is(err, spaces.ErrNotEntitled):
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Your plan does not include this feature", nil)
	case stderrors.Is(err, avatars.ErrTimedOut):
		errors.WriteError(w, http.StatusGatewayTimeout, errors.ErrCodeUpstream, "Upload is still processing", nil)
	case stderrors.Is(err, avatars.ErrUpstream):
		hlog.FromRequest(r).Warn().Err(err).Str("procedure", procedure).Msg("image provider failed")
		errors.WriteError(w, http.StatusBadGateway, errors.ErrCodeUpstream, "Image provider request failed", nil)
	case stderrors.Is(err, avatars.ErrCancelled):
		// The client is gone; nobody reads the response.
		hlog.FromRequest(r).Debug().Str("procedure", procedure).Msg("client went away")
	default:
		hlog.FromRequest(r).Error().Err(err).Str("procedure", procedure).Msg("procedure failed")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Internal error", nil)
	}
}

func softFailureMessage(err error) (string, bool) {
	switch {
	case stderrors.Is(err, profiles.ErrHandleTaken):
		return "That handle is already taken, please choose another", true
	case spaces.IsSoftFailure(err), profiles.IsSoftFailure(err),
		stderrors.Is(err, spaces.ErrOrderConflict), stderrors.Is(err, spaces.ErrShortcodeExhausted):
		return errors.MsgRetry, true
	}
	return "", false
}
