package overrides

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/pkg/database"
)

// Result is the procedure reply for force-allow and reset.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Procedures are the database-side admin override functions. They own all
// usage bookkeeping and write the audit rows.
type Procedures interface {
	ForceAllow(ctx context.Context, ticketID uuid.UUID, day int, reason, admin string) (Result, error)
	ResetEntry(ctx context.Context, ticketID uuid.UUID, day int, reason, admin string) (Result, error)
	OverrideLogs(ctx context.Context, ticketID uuid.UUID) ([]models.OverrideLogEntry, error)
}

// PostgresProcedures calls the override functions through pgx.
type PostgresProcedures struct {
	db database.Querier
}

// NewPostgresProcedures creates the procedure client.
func NewPostgresProcedures(db database.Querier) *PostgresProcedures {
	return &PostgresProcedures{db: db}
}

func (p *PostgresProcedures) call(ctx context.Context, fn string, ticketID uuid.UUID, day int, reason, admin string) (Result, error) {
	q := fmt.Sprintf(`SELECT %s(p_ticket_id => $1, p_day => $2, p_reason => $3, p_admin_identifier => $4)::jsonb`, fn)
	var raw []byte
	if err := p.db.QueryRow(ctx, q, ticketID, day, reason, admin).Scan(&raw); err != nil {
		return Result{}, fmt.Errorf("%s: %w", fn, err)
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, fmt.Errorf("%s: decode: %w", fn, err)
	}
	return res, nil
}

// ForceAllow calls admin_force_allow.
func (p *PostgresProcedures) ForceAllow(ctx context.Context, ticketID uuid.UUID, day int, reason, admin string) (Result, error) {
	return p.call(ctx, "admin_force_allow", ticketID, day, reason, admin)
}

// ResetEntry calls admin_reset_entry.
func (p *PostgresProcedures) ResetEntry(ctx context.Context, ticketID uuid.UUID, day int, reason, admin string) (Result, error) {
	return p.call(ctx, "admin_reset_entry", ticketID, day, reason, admin)
}

// OverrideLogs calls get_ticket_override_logs and aggregates the rows.
func (p *PostgresProcedures) OverrideLogs(ctx context.Context, ticketID uuid.UUID) ([]models.OverrideLogEntry, error) {
	const q = `SELECT COALESCE(jsonb_agg(l), '[]'::jsonb) FROM get_ticket_override_logs(p_ticket_id => $1) l`
	var raw []byte
	if err := p.db.QueryRow(ctx, q, ticketID).Scan(&raw); err != nil {
		return nil, fmt.Errorf("get_ticket_override_logs: %w", err)
	}
	var logs []models.OverrideLogEntry
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, fmt.Errorf("get_ticket_override_logs: decode: %w", err)
	}
	return logs, nil
}
