package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/config"
	"github.com/yatra-gate/backend/pkg/response"
)

// GateLoginRequest is the body for POST /auth/gate.
type GateLoginRequest struct {
	Password string `json:"password" binding:"required"`
	Device   string `json:"device"` // optional label overriding SCANNER_DEVICE
}

// GateSession is returned on successful gate login.
type GateSession struct {
	Token       string `json:"token"`
	Gate        string `json:"gate"`
	GateDisplay string `json:"gate_display"`
	Device      string `json:"device"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Handler handles gate login.
type Handler struct {
	jwt    *JWTService
	gate   config.GateConfig
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(jwt *JWTService, gate config.GateConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{jwt: jwt, gate: gate, logger: logger}
}

// GateLogin handles POST /auth/gate.
func (h *Handler) GateLogin(c *gin.Context) {
	var req GateLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "password required")
		return
	}
	if !CheckSecret(req.Password, h.gate.Password) {
		h.logger.Warn("gate login rejected", zap.String("client_ip", c.ClientIP()))
		response.Unauthorized(c, "invalid gate password")
		return
	}
	device := strings.TrimSpace(req.Device)
	if device == "" {
		device = h.gate.ScannerDevice
	}
	token, expires, err := h.jwt.GenerateGate(h.gate.Type, device)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, GateSession{
		Token:       token,
		Gate:        h.gate.Type,
		GateDisplay: h.gate.DisplayName(),
		Device:      device,
		ExpiresAt:   expires.Unix(),
	})
}
