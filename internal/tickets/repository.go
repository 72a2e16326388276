package tickets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/pkg/database"
)

// ErrNotFound is returned when no ticket matches.
var ErrNotFound = errors.New("ticket not found")

const ticketColumns = `id, registration_id, code_6_digit, qr_token, qr_payload, name, email, college, phone,
	category, ticket_type, event_id, valid_days, usage_day1, usage_day2, usage_event, last_used_at, status, is_rit_student`

// Repository reads and writes the tickets table. Usage markers are never
// written here except by ResetUsage, which backs the maintenance tool.
type Repository struct {
	db database.Querier
}

// NewRepository creates a tickets repository.
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var t models.Ticket
	var qrToken, qrPayload, college, phone, ticketType, eventID *string
	var category *int32
	err := row.Scan(&t.ID, &t.RegistrationID, &t.Code, &qrToken, &qrPayload, &t.Name, &t.Email, &college, &phone,
		&category, &ticketType, &eventID, &t.ValidDays, &t.UsageDay1, &t.UsageDay2, &t.UsageEvent, &t.LastUsedAt, &t.Status, &t.IsRITStudent)
	if err != nil {
		return nil, err
	}
	t.QRToken = deref(qrToken)
	t.QRPayload = deref(qrPayload)
	t.College = deref(college)
	t.Phone = deref(phone)
	t.TicketType = deref(ticketType)
	t.EventID = deref(eventID)
	if category != nil {
		t.Category = int(*category)
	}
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*models.Ticket, error) {
	t, err := scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByID returns a ticket by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// GetByCode returns a ticket by its 6-digit code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Ticket, error) {
	return r.getOne(ctx, `code_6_digit = $1`, code)
}

// GetByRegistrationID returns the ticket issued for a registration.
func (r *Repository) GetByRegistrationID(ctx context.Context, registrationID uuid.UUID) (*models.Ticket, error) {
	return r.getOne(ctx, `registration_id = $1 LIMIT 1`, registrationID)
}

// TokenByCode resolves a code to the ticket's qr_token for manual entry.
func (r *Repository) TokenByCode(ctx context.Context, code string) (string, bool, error) {
	var token *string
	err := r.db.QueryRow(ctx, `SELECT qr_token FROM tickets WHERE code_6_digit = $1`, code).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup code: %w", err)
	}
	return deref(token), true, nil
}

// Search matches name, email or college by substring, or code exactly.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]*models.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets
		WHERE name ILIKE $1 OR email ILIKE $1 OR college ILIKE $1 OR code_6_digit = $2
		ORDER BY name
		LIMIT $3`
	rows, err := r.db.Query(ctx, q, "%"+query+"%", query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]*models.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// CodeExists reports whether a code is already taken.
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE code_6_digit = $1)`, code).Scan(&exists)
	return exists, err
}

// Insert creates a ticket. The database assigns qr_token; it is written back
// to t.
func (r *Repository) Insert(ctx context.Context, t *models.Ticket) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.TicketStatusActive
	}
	const q = `INSERT INTO tickets (id, registration_id, code_6_digit, qr_payload, name, email, college, phone, ticket_type, status, is_rit_student)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11)
		RETURNING qr_token`
	var token *string
	err := r.db.QueryRow(ctx, q, t.ID, t.RegistrationID, t.Code, t.QRPayload, t.Name, t.Email, t.College, t.Phone, t.TicketType, t.Status, t.IsRITStudent).Scan(&token)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	t.QRToken = deref(token)
	return nil
}

// UpdateQRPayload rewrites the payload encoded in the ticket's QR image.
func (r *Repository) UpdateQRPayload(ctx context.Context, id uuid.UUID, payload string) error {
	_, err := r.db.Exec(ctx, `UPDATE tickets SET qr_payload = $2 WHERE id = $1`, id, payload)
	return err
}

// ResetUsage clears every usage marker and reactivates the ticket.
func (r *Repository) ResetUsage(ctx context.Context, code string) error {
	const q = `UPDATE tickets
		SET last_used_at = NULL, usage_day1 = NULL, usage_day2 = NULL, usage_event = NULL, status = $2
		WHERE code_6_digit = $1`
	tag, err := r.db.Exec(ctx, q, code, models.TicketStatusActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Columns lists the column names of the tickets table.
func (r *Repository) Columns(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT column_name FROM information_schema.columns WHERE table_name = 'tickets' ORDER BY ordinal_position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}
