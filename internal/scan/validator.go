package scan

import (
	"context"
	"fmt"

	"github.com/yatra-gate/backend/pkg/database"
)

// Validator runs the database-side validate_scan procedure and returns its
// raw JSONB result.
type Validator interface {
	ValidateScan(ctx context.Context, token, gateType, device string) ([]byte, error)
}

// PostgresValidator calls validate_scan through pgx.
type PostgresValidator struct {
	db database.Querier
	fn string
}

// NewPostgresValidator creates a validator bound to validate_scan.
func NewPostgresValidator(db database.Querier) *PostgresValidator {
	return &PostgresValidator{db: db, fn: "validate_scan"}
}

// NewPostgresValidatorFunc binds to another procedure with the same signature
// (validate_scan_unified on some deployments).
func NewPostgresValidatorFunc(db database.Querier, fn string) *PostgresValidator {
	return &PostgresValidator{db: db, fn: fn}
}

// ValidateScan issues a single call; the procedure does replay detection,
// day/time/gate checks and usage marking atomically.
func (v *PostgresValidator) ValidateScan(ctx context.Context, token, gateType, device string) ([]byte, error) {
	var dev *string
	if device != "" {
		dev = &device
	}
	var raw []byte
	q := fmt.Sprintf(`SELECT %s(p_qr_token => $1, p_gate_type => $2, p_scanner_device => $3)::jsonb`, v.fn)
	if err := v.db.QueryRow(ctx, q, token, gateType, dev).Scan(&raw); err != nil {
		return nil, fmt.Errorf("%s: %w", v.fn, err)
	}
	return raw, nil
}
