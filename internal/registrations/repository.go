package registrations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/pkg/database"
)

// ErrNotFound is returned when no registration matches.
var ErrNotFound = errors.New("registration not found")

const registrationColumns = `id, name, email, COALESCE(phone, ''), COALESCE(college, ''), COALESCE(ticket_type, ''), COALESCE(price, ''),
	is_rit_student, COALESCE(payment_status, 'unpaid'), ticket_generated, ticket_email_sent, ticket_sent_at, created_at`

// Repository handles registration persistence.
type Repository struct {
	db database.Querier
}

// NewRepository creates a registrations repository.
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.Name, &reg.Email, &reg.Phone, &reg.College, &reg.TicketType, &reg.Price,
		&reg.IsRITStudent, &reg.PaymentStatus, &reg.TicketGenerated, &reg.TicketEmailSent, &reg.TicketSentAt, &reg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return reg, err
}

// ListPending returns paid registrations whose entry pass has not been
// emailed, oldest first.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]models.Registration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM registrations
		WHERE payment_status = $1 AND NOT ticket_email_sent
		ORDER BY created_at
		LIMIT $2`
	rows, err := r.db.Query(ctx, q, models.PaymentStatusPaid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]models.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

// MarkTicketSent records that the ticket was generated and emailed.
func (r *Repository) MarkTicketSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `UPDATE registrations SET ticket_generated = TRUE, ticket_email_sent = TRUE, ticket_sent_at = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id, at)
	return err
}

// MarkEmailSent backfills ticket_email_sent from the email event history.
func (r *Repository) MarkEmailSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE registrations SET ticket_email_sent = TRUE WHERE id = $1`, id)
	return err
}
