package registrations

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/pkg/response"
)

const (
	defaultPendingLimit = 100
	maxPendingLimit     = 500
)

// Store is the registration lookup the handler needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	ListPending(ctx context.Context, limit int) ([]models.Registration, error)
}

// Handler handles registration HTTP endpoints for admins.
type Handler struct {
	repo   Store
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(repo Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListPending handles GET /registrations/pending?limit=. Returns paid
// registrations still waiting for their entry pass.
func (h *Handler) ListPending(c *gin.Context) {
	limit := defaultPendingLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			response.BadRequest(c, "invalid limit")
			return
		}
		if n > maxPendingLimit {
			n = maxPendingLimit
		}
		limit = n
	}
	list, err := h.repo.ListPending(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list pending registrations failed", zap.Error(err))
		response.Internal(c, "failed to load registrations")
		return
	}
	response.OK(c, list)
}

// Get handles GET /registrations/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reg, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "registration not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load registration")
		return
	}
	response.OK(c, reg)
}
