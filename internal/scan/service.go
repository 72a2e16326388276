package scan

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/yatra-gate/backend/pkg/metrics"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// minTokenLength rejects obviously truncated QR reads before any network call.
const minTokenLength = 5

// ValidCode reports whether s is exactly six digits.
func ValidCode(s string) bool {
	return codePattern.MatchString(s)
}

// Station identifies where a scan happens.
type Station struct {
	Gate   string `json:"gate"`
	Device string `json:"device"`
}

// TokenLookup resolves a 6-digit code to the ticket's qr_token.
type TokenLookup interface {
	TokenByCode(ctx context.Context, code string) (token string, found bool, err error)
}

// Event is published for every completed verification.
type Event struct {
	Station Station   `json:"station"`
	Method  string    `json:"method"`
	Result  View      `json:"result"`
	At      time.Time `json:"at"`
}

// Publisher receives scan events (live feed).
type Publisher interface {
	PublishScan(ev Event)
}

// Service verifies tickets against the database validator.
type Service struct {
	validator Validator
	tickets   TokenLookup
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a scan service. publisher may be nil.
func NewService(validator Validator, tickets TokenLookup, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{validator: validator, tickets: tickets, publisher: publisher, logger: logger, now: time.Now}
}

// VerifyQRToken validates the decoded QR text as-is.
func (s *Service) VerifyQRToken(ctx context.Context, st Station, qrToken string) Outcome {
	start := s.now()
	out := s.verifyToken(ctx, st, qrToken)
	s.record(st, "qr", out, start)
	return out
}

// VerifyCode resolves a manually typed 6-digit code and validates its token.
func (s *Service) VerifyCode(ctx context.Context, st Station, code string) Outcome {
	start := s.now()
	out := s.verifyCode(ctx, st, strings.TrimSpace(code))
	s.record(st, "code", out, start)
	return out
}

// Verify accepts either form: six digits are treated as a code, anything else
// as a QR token. Keyboard-wedge scanners send both through the same field.
func (s *Service) Verify(ctx context.Context, st Station, input string) Outcome {
	if ValidCode(strings.TrimSpace(input)) {
		return s.VerifyCode(ctx, st, input)
	}
	return s.VerifyQRToken(ctx, st, input)
}

func (s *Service) verifyToken(ctx context.Context, st Station, qrToken string) Outcome {
	token := strings.TrimSpace(qrToken)
	if utf8.RuneCountInString(token) < minTokenLength {
		return InvalidInput{Code: ReasonTicketNotFound, Msg: "Invalid QR code format"}
	}
	raw, err := s.validator.ValidateScan(ctx, token, st.Gate, st.Device)
	if err != nil {
		s.logger.Error("validate_scan failed", zap.Error(err), zap.String("gate", st.Gate), zap.String("device", st.Device))
		return Failed{Msg: "Verification failed. Please try again.", Err: err}
	}
	out, err := Decode(raw)
	if err != nil {
		s.logger.Error("validator result undecodable", zap.Error(err), zap.ByteString("raw", raw))
		return Failed{Msg: "Verification failed. Please try again.", Err: err}
	}
	return out
}

func (s *Service) verifyCode(ctx context.Context, st Station, code string) Outcome {
	if !ValidCode(code) {
		return InvalidInput{Code: ReasonTicketNotFound, Msg: "Code must be 6 digits"}
	}
	token, found, err := s.tickets.TokenByCode(ctx, code)
	if err != nil {
		s.logger.Error("ticket lookup by code failed", zap.Error(err))
		return Failed{Msg: "Connection error. Check your network.", Err: err}
	}
	if !found {
		return Rejected{Code: ReasonTicketNotFound, Msg: "Invalid code — ticket not found"}
	}
	if strings.TrimSpace(token) == "" {
		return Failed{Msg: "Ticket has no QR token. Please contact admin."}
	}
	return s.verifyToken(ctx, st, token)
}

func (s *Service) record(st Station, method string, out Outcome, start time.Time) {
	metrics.ObserveScan(st.Gate, string(out.Reason()), out.IsAllowed(), s.now().Sub(start).Seconds(), method)
	s.logger.Info("scan",
		zap.String("gate", st.Gate),
		zap.String("device", st.Device),
		zap.String("method", method),
		zap.String("kind", string(out.Kind())),
		zap.String("reason", string(out.Reason())),
	)
	if s.publisher != nil {
		s.publisher.PublishScan(Event{Station: st, Method: method, Result: ViewOf(out), At: s.now()})
	}
}
