package emaillogs

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/internal/middleware"
	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/pkg/queue"
	"github.com/yatra-gate/backend/pkg/response"
)

// Lister reads a registration's email history.
type Lister interface {
	ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*models.TicketEmailEvent, error)
}

// Enqueuer schedules entry pass resends.
type Enqueuer interface {
	EnqueueTicketEmail(ctx context.Context, payload queue.TicketEmailPayload) (string, error)
}

// Handler handles email event HTTP endpoints.
type Handler struct {
	repo   Lister
	queue  Enqueuer
	logger *zap.Logger
}

// NewHandler creates an email events handler.
func NewHandler(repo Lister, q Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, queue: q, logger: logger}
}

// ListByRegistration handles GET /registrations/:id/email-events.
func (h *Handler) ListByRegistration(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	list, err := h.repo.ListByRegistration(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load email events")
		return
	}
	response.OK(c, list)
}

// Resend handles POST /registrations/:id/email/resend. Requires RequireAdmin.
func (h *Handler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	jobID, err := h.queue.EnqueueTicketEmail(c.Request.Context(), queue.TicketEmailPayload{
		RegistrationID: id,
		RequestedBy:    middleware.AdminEmail(c),
	})
	if err != nil {
		h.logger.Error("enqueue ticket email failed", zap.Error(err), zap.String("registration_id", id.String()))
		response.ServiceUnavailable(c, "failed to queue resend")
		return
	}
	response.OK(c, gin.H{"message": "resend queued", "job_id": jobID})
}
