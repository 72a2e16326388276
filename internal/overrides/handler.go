package overrides

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yatra-gate/backend/pkg/response"
)

// ActionRequest is the body for force-allow and reset.
type ActionRequest struct {
	Day       *int   `json:"day"`
	Reason    string `json:"reason"`
	AdminName string `json:"admin_name"`
}

// Handler handles admin override endpoints. Mount behind the admin PIN
// middleware.
type Handler struct {
	svc *Service
}

// NewHandler creates an overrides handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) bind(c *gin.Context) (Request, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ticket id")
		return Request{}, false
	}
	var body ActionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return Request{}, false
	}
	return Request{TicketID: id, Day: body.Day, Reason: body.Reason, AdminName: body.AdminName}, true
}

func (h *Handler) reply(c *gin.Context, res Result, err error) {
	switch {
	case errors.Is(err, ErrUnavailable):
		response.FailWith(c, http.StatusBadGateway, res, res.Message)
	case err != nil:
		response.FailWith(c, http.StatusBadRequest, res, res.Message)
	case !res.Success:
		response.FailWith(c, http.StatusConflict, res, res.Message)
	default:
		response.OK(c, res)
	}
}

// ForceAllow handles POST /admin/tickets/:id/force-allow.
func (h *Handler) ForceAllow(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	res, err := h.svc.ForceAllow(c.Request.Context(), req)
	h.reply(c, res, err)
}

// Reset handles POST /admin/tickets/:id/reset.
func (h *Handler) Reset(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	res, err := h.svc.ResetEntry(c.Request.Context(), req)
	h.reply(c, res, err)
}

// Logs handles GET /admin/tickets/:id/logs.
func (h *Handler) Logs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ticket id")
		return
	}
	response.OK(c, h.svc.Logs(c.Request.Context(), id))
}
