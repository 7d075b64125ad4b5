package handlers

import (
	"net/http"

	"spaces/internal/api/middleware"
	"spaces/internal/engine/avatars"
	"spaces/internal/pkg/errors"
	"spaces/internal/pkg/validator"
	"spaces/internal/platform/audit"
)

const UploadParam = "upload_id"

type awaitInput struct {
	UploadID string `json:"uploadId" validate:"required,uuid"`
}

type AvatarHandler struct {
	client  *avatars.Client
	poller  *avatars.Poller
	audit   *audit.Logger
	metrics *middleware.Metrics
}

func NewAvatarHandler(client *avatars.Client, poller *avatars.Poller, auditLogger *audit.Logger, metrics *middleware.Metrics) *AvatarHandler {
	return &AvatarHandler{client: client, poller: poller, audit: auditLogger, metrics: metrics}
}

// IssueUpload returns a one-time URL the caller uploads the avatar file to.
func (h *AvatarHandler) IssueUpload(w http.ResponseWriter, r *http.Request) {
	upload, err := h.client.DirectUpload(r.Context(), userID(r))
	if err != nil {
		writeProcedureError(w, r, h.metrics, "generateAvatarUploadUrl", err)
		return
	}

	h.audit.Log(r.Context(), audit.ActionAvatarUploadIssued, "avatar_upload", upload.ID, nil)
	errors.WriteJSON(w, http.StatusOK, upload)
}

// Await blocks until the upload has been processed, the wait is exhausted or
// the client disconnects.
func (h *AvatarHandler) Await(w http.ResponseWriter, r *http.Request) {
	in := awaitInput{UploadID: param(r, UploadParam)}
	if err := validator.Check(in); err != nil {
		writeProcedureError(w, r, h.metrics, "awaitAvatarUpload", err)
		return
	}

	result, err := h.poller.Await(r.Context(), in.UploadID)
	if result != nil {
		h.metrics.AvatarWait(string(result.State))
	}
	if err != nil {
		writeProcedureError(w, r, h.metrics, "awaitAvatarUpload", err)
		return
	}

	errors.WriteJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*avatars.Result
	}{true, result})
}
