package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/domodwyer/mailyak/v3"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/config"
	"github.com/yatra-gate/backend/pkg/metrics"
)

// ErrNotConfigured is returned by Send when no SMTP credentials are set.
var ErrNotConfigured = errors.New("email service not configured")

// Inline is an image referenced from the HTML body as cid:<Name>.
type Inline struct {
	Name string
	Data []byte
}

// Message is one outgoing email with plain and HTML alternatives.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Inline  []Inline
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Configured() bool
}

// New returns an SMTP mailer when credentials are configured, otherwise a
// LogMailer.
func New(cfg config.EmailConfig, logger *zap.Logger) Mailer {
	if cfg.Configured() {
		return NewSMTPMailer(cfg, logger)
	}
	return NewLogMailer(logger)
}

// SMTPMailer sends over implicit TLS with AUTH LOGIN.
type SMTPMailer struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

// NewSMTPMailer creates an SMTP mailer.
func NewSMTPMailer(cfg config.EmailConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Configured reports true.
func (m *SMTPMailer) Configured() bool { return true }

// Send builds a multipart/alternative message and delivers it.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(m.cfg.SMTPHost, strconv.Itoa(m.cfg.SMTPPort))
	mail, err := mailyak.NewWithTLS(addr, LoginAuth(m.cfg.User, m.cfg.Pass), &tls.Config{ServerName: m.cfg.SMTPHost})
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	mail.From(m.cfg.FromAddress)
	mail.FromName(m.cfg.FromName)
	mail.To(msg.To)
	mail.Subject(msg.Subject)
	mail.Plain().Set(msg.Text)
	mail.HTML().Set(msg.HTML)
	for _, in := range msg.Inline {
		mail.AttachInline(in.Name, bytes.NewReader(in.Data))
	}
	if err := mail.Send(); err != nil {
		metrics.ObserveEmail("failed")
		return fmt.Errorf("smtp send: %w", err)
	}
	metrics.ObserveEmail("sent")
	m.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// LogMailer logs messages instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a log-only mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Configured reports false.
func (m *LogMailer) Configured() bool { return false }

// Send logs the would-be delivery and succeeds.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	metrics.ObserveEmail("mock")
	m.logger.Info("mock email (SMTP not configured)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}

type loginAuth struct {
	username, password string
	step               int
}

// LoginAuth implements the AUTH LOGIN mechanism, which net/smtp lacks.
func LoginAuth(username, password string) smtp.Auth {
	return &loginAuth{username: username, password: password}
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, errors.New("refusing AUTH LOGIN over unencrypted connection")
	}
	a.step = 0
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(_ []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	a.step++
	switch a.step {
	case 1:
		return []byte(a.username), nil
	case 2:
		return []byte(a.password), nil
	default:
		return nil, errors.New("unexpected AUTH LOGIN challenge")
	}
}
