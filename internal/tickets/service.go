package tickets

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/internal/models"
)

const (
	// MinQueryLength is the shortest trimmed query, in characters, that reaches
	// the database.
	MinQueryLength = 3
	// SearchLimit caps fallback search results.
	SearchLimit = 20
)

// ErrQueryTooShort is returned by Search for queries under MinQueryLength.
var ErrQueryTooShort = errors.New("query too short")

// Finder is the read side of the tickets table.
type Finder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Ticket, error)
}

// Service provides display-only ticket lookups. It never marks usage.
type Service struct {
	finder Finder
	logger *zap.Logger
}

// NewService creates a ticket lookup service.
func NewService(finder Finder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{finder: finder, logger: logger}
}

// Search returns up to SearchLimit tickets. Short queries return an empty
// list together with ErrQueryTooShort and issue no query.
func (s *Service) Search(ctx context.Context, query string) ([]*models.Ticket, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return []*models.Ticket{}, ErrQueryTooShort
	}
	list, err := s.finder.Search(ctx, q, SearchLimit)
	if err != nil {
		s.logger.Error("ticket search failed", zap.Error(err))
		return []*models.Ticket{}, err
	}
	return list, nil
}

// Status returns a ticket for display.
func (s *Service) Status(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	return s.finder.GetByID(ctx, id)
}
