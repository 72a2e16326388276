package issuance

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yatra-gate/backend/internal/middleware"
	"github.com/yatra-gate/backend/pkg/response"
)

// IssueBatchRequest is the body for POST /tickets/issue-batch.
type IssueBatchRequest struct {
	RegistrationIDs []string `json:"registration_ids"`
}

// Handler handles issuance endpoints.
type Handler struct {
	batch   *BatchIssuer
	confirm *RegistrationMailer
}

// NewHandler creates an issuance handler.
func NewHandler(batch *BatchIssuer, confirm *RegistrationMailer) *Handler {
	return &Handler{batch: batch, confirm: confirm}
}

// IssueBatch handles POST /tickets/issue-batch. Requires RequireAdmin.
func (h *Handler) IssueBatch(c *gin.Context) {
	var body IssueBatchRequest
	if err := c.ShouldBindJSON(&body); err != nil || len(body.RegistrationIDs) == 0 {
		response.BadRequest(c, ErrNoRegistrations.Error())
		return
	}
	report, err := h.batch.Issue(c.Request.Context(), middleware.AdminEmail(c), body.RegistrationIDs)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.OK(c, report)
}

// Confirm handles POST /registrations/email.
func (h *Handler) Confirm(c *gin.Context) {
	var body ConfirmationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid registration payload")
		return
	}
	res, err := h.confirm.Send(c.Request.Context(), &body)
	if errors.Is(err, ErrMissingFields) {
		response.BadRequest(c, err.Error())
		return
	}
	if err != nil {
		response.Internal(c, "Failed to send confirmation email: "+err.Error())
		return
	}
	response.OK(c, res)
}
