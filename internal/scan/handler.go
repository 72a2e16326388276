package scan

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/internal/middleware"
	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/pkg/response"
)

// VerifyRequest is the body for POST /scan.
type VerifyRequest struct {
	Input string `json:"input" binding:"required"`
}

// QRRequest is the body for POST /scan/qr.
type QRRequest struct {
	QRToken string `json:"qr_token" binding:"required"`
}

// CodeRequest is the body for POST /scan/code.
type CodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// Response is the payload for every scan endpoint.
type Response struct {
	Result  View    `json:"result"`
	Display Display `json:"display"`
}

// Handler handles scan HTTP endpoints. Requires the gate session middleware.
type Handler struct {
	svc    *Service
	guard  Guard
	logger *zap.Logger
}

// NewHandler creates a scan handler. guard may be nil.
func NewHandler(svc *Service, guard Guard, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, guard: guard, logger: logger}
}

// Verify handles POST /scan.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "input required")
		return
	}
	h.run(c, func(ctx context.Context, st Station) Outcome { return h.svc.Verify(ctx, st, req.Input) })
}

// VerifyQR handles POST /scan/qr.
func (h *Handler) VerifyQR(c *gin.Context) {
	var req QRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "qr_token required")
		return
	}
	h.run(c, func(ctx context.Context, st Station) Outcome { return h.svc.VerifyQRToken(ctx, st, req.QRToken) })
}

// VerifyCode handles POST /scan/code.
func (h *Handler) VerifyCode(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "code required")
		return
	}
	h.run(c, func(ctx context.Context, st Station) Outcome { return h.svc.VerifyCode(ctx, st, req.Code) })
}

func (h *Handler) run(c *gin.Context, verify func(context.Context, Station) Outcome) {
	gate, device := middleware.Station(c)
	st := Station{Gate: gate, Device: device}

	if h.guard != nil {
		session := middleware.SessionID(c)
		if session == "" {
			session = st.Device
		}
		release, err := h.guard.Acquire(c.Request.Context(), session)
		switch {
		case errors.Is(err, ErrBusy):
			response.Conflict(c, "previous scan still in progress")
			return
		case err != nil:
			// redis unavailable: keep the gate moving
			h.logger.Warn("busy guard unavailable", zap.Error(err))
		default:
			defer release()
		}
	}

	out := verify(c.Request.Context(), st)
	body := Response{Result: ViewOf(out), Display: DisplayFor(out, models.CategoryNames)}
	switch out.Kind() {
	case KindInvalidInput:
		response.FailWith(c, http.StatusBadRequest, body, out.Message())
	case KindFailed:
		response.FailWith(c, http.StatusBadGateway, body, out.Message())
	default:
		response.OK(c, body)
	}
}
