package overrides

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/pkg/metrics"
)

// Day selectors accepted by the override procedures.
const (
	DayAll = 0
	Day1   = 1
	Day2   = 2
)

// Minimum character counts for the audit fields.
const (
	MinReasonLength    = 10
	MinAdminNameLength = 2
)

// Local guard failures. Their messages are shown to the operator verbatim.
var (
	ErrReasonTooShort    = errors.New("Reason must be at least 10 characters")
	ErrAdminNameTooShort = errors.New("Please enter your name for audit trail")
	ErrInvalidDay        = errors.New("Day must be 0, 1 or 2")
	// ErrUnavailable wraps procedure call failures.
	ErrUnavailable = errors.New("override procedure unavailable")
)

// Request is an operator's override input. A nil Day picks the action's
// default.
type Request struct {
	TicketID  uuid.UUID
	Day       *int
	Reason    string
	AdminName string
}

// Service guards and forwards admin overrides.
type Service struct {
	procs  Procedures
	logger *zap.Logger
}

// NewService creates an override service.
func NewService(procs Procedures, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{procs: procs, logger: logger}
}

// guard validates the audit fields and resolves the day. With allowAll unset,
// day 0 falls back to defaultDay.
func (s *Service) guard(req Request, defaultDay int, allowAll bool) (day int, reason, admin string, err error) {
	reason = strings.TrimSpace(req.Reason)
	if utf8.RuneCountInString(reason) < MinReasonLength {
		return 0, "", "", ErrReasonTooShort
	}
	admin = strings.TrimSpace(req.AdminName)
	if utf8.RuneCountInString(admin) < MinAdminNameLength {
		return 0, "", "", ErrAdminNameTooShort
	}
	day = defaultDay
	if req.Day != nil {
		day = *req.Day
	}
	if day == DayAll && !allowAll {
		day = defaultDay
	}
	switch {
	case day == Day1, day == Day2:
	case day == DayAll && allowAll:
	default:
		return 0, "", "", ErrInvalidDay
	}
	return day, reason, admin, nil
}

// ForceAllow marks a ticket as entered for a day. The day defaults to 1, and
// day 0 is treated as 1.
// The returned Result always carries an operator-facing message; err is a
// guard error or wraps ErrUnavailable.
func (s *Service) ForceAllow(ctx context.Context, req Request) (Result, error) {
	day, reason, admin, err := s.guard(req, Day1, false)
	if err != nil {
		metrics.ObserveOverride("force_allow", "rejected")
		return Result{Success: false, Message: err.Error()}, err
	}
	res, err := s.procs.ForceAllow(ctx, req.TicketID, day, reason, admin)
	if err != nil {
		s.logger.Error("admin force allow failed", zap.Error(err), zap.String("ticket_id", req.TicketID.String()))
		metrics.ObserveOverride("force_allow", "error")
		return Result{Success: false, Message: "Override failed. Check connection."}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.audit("force_allow", req.TicketID, day, admin, res)
	return res, nil
}

// ResetEntry clears usage for a day, or every marker when day is 0. The day
// defaults to 0.
func (s *Service) ResetEntry(ctx context.Context, req Request) (Result, error) {
	day, reason, admin, err := s.guard(req, DayAll, true)
	if err != nil {
		metrics.ObserveOverride("reset", "rejected")
		return Result{Success: false, Message: err.Error()}, err
	}
	res, err := s.procs.ResetEntry(ctx, req.TicketID, day, reason, admin)
	if err != nil {
		s.logger.Error("admin reset entry failed", zap.Error(err), zap.String("ticket_id", req.TicketID.String()))
		metrics.ObserveOverride("reset", "error")
		return Result{Success: false, Message: "Reset failed. Check connection."}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.audit("reset", req.TicketID, day, admin, res)
	return res, nil
}

// Logs returns the ticket's override trail, oldest first as the procedure
// orders it. Failures yield an empty list.
func (s *Service) Logs(ctx context.Context, ticketID uuid.UUID) []models.OverrideLogEntry {
	logs, err := s.procs.OverrideLogs(ctx, ticketID)
	if err != nil {
		s.logger.Error("get override logs failed", zap.Error(err), zap.String("ticket_id", ticketID.String()))
		return []models.OverrideLogEntry{}
	}
	if logs == nil {
		return []models.OverrideLogEntry{}
	}
	return logs
}

func (s *Service) audit(action string, ticketID uuid.UUID, day int, admin string, res Result) {
	outcome := "applied"
	if !res.Success {
		outcome = "refused"
	}
	metrics.ObserveOverride(action, outcome)
	s.logger.Info("admin override",
		zap.String("action", action),
		zap.String("ticket_id", ticketID.String()),
		zap.Int("day", day),
		zap.String("admin", admin),
		zap.Bool("success", res.Success),
		zap.String("message", res.Message),
	)
}
