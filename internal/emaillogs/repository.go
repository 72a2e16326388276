package emaillogs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/pkg/database"
)

// Repository handles ticket_email_events persistence.
type Repository struct {
	db database.Querier
}

// NewRepository creates an email events repository.
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

func scanEvent(row pgx.Row) (*models.TicketEmailEvent, error) {
	var ev models.TicketEmailEvent
	var errText *string
	if err := row.Scan(&ev.ID, &ev.RegistrationID, &ev.TicketID, &ev.ToEmail, &ev.Status, &errText, &ev.CreatedAt); err != nil {
		return nil, err
	}
	if errText != nil {
		ev.ErrorText = *errText
	}
	return &ev, nil
}

// Insert records one delivery attempt.
func (r *Repository) Insert(ctx context.Context, ev *models.TicketEmailEvent) error {
	const q = `INSERT INTO ticket_email_events (registration_id, ticket_id, to_email, status, error_text)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at`
	return r.db.QueryRow(ctx, q, ev.RegistrationID, ev.TicketID, ev.ToEmail, ev.Status, ev.ErrorText).Scan(&ev.ID, &ev.CreatedAt)
}

// Latest returns the newest event for a registration, or nil when none exist.
func (r *Repository) Latest(ctx context.Context, registrationID uuid.UUID) (*models.TicketEmailEvent, error) {
	const q = `SELECT id, registration_id, ticket_id, to_email, status, error_text, created_at
		FROM ticket_email_events
		WHERE registration_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	ev, err := scanEvent(r.db.QueryRow(ctx, q, registrationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ev, err
}

// ListByRegistration returns a registration's events, newest first.
func (r *Repository) ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*models.TicketEmailEvent, error) {
	const q = `SELECT id, registration_id, ticket_id, to_email, status, error_text, created_at
		FROM ticket_email_events
		WHERE registration_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]*models.TicketEmailEvent, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}
