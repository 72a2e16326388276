package tickets

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/pkg/response"
)

// SearchResult is one row of the fallback search list.
type SearchResult struct {
	*models.Ticket
	CategoryName string `json:"category_name,omitempty"`
}

// Handler handles ticket lookup endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a tickets handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Search handles GET /tickets/search?q=.
func (h *Handler) Search(c *gin.Context) {
	list, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil && !errors.Is(err, ErrQueryTooShort) {
		response.Internal(c, "search failed")
		return
	}
	out := make([]SearchResult, 0, len(list))
	for _, t := range list {
		t.QRToken = ""
		out = append(out, SearchResult{Ticket: t, CategoryName: t.CategoryName()})
	}
	response.OK(c, out)
}

// Get handles GET /tickets/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ticket id")
		return
	}
	t, err := h.svc.Status(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "ticket not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load ticket")
		return
	}
	t.QRToken = ""
	response.OK(c, SearchResult{Ticket: t, CategoryName: t.CategoryName()})
}
