package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yatra-gate/backend/pkg/database"
)

var (
	ErrMissingBearer = errors.New("missing authorization bearer token")
	ErrNotAdmin      = errors.New("not an admin")
	ErrAdminCheck    = errors.New("admin check failed")
)

// AdminLookup answers whether an email belongs to an admin.
type AdminLookup interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// PostgresAdminLookup calls the check_is_admin procedure.
type PostgresAdminLookup struct {
	db database.Querier
}

// NewPostgresAdminLookup creates an admin lookup.
func NewPostgresAdminLookup(db database.Querier) *PostgresAdminLookup {
	return &PostgresAdminLookup{db: db}
}

// IsAdmin runs SELECT check_is_admin(user_email).
func (l *PostgresAdminLookup) IsAdmin(ctx context.Context, email string) (bool, error) {
	var ok bool
	if err := l.db.QueryRow(ctx, `SELECT check_is_admin(user_email => $1)`, email).Scan(&ok); err != nil {
		return false, fmt.Errorf("check_is_admin: %w", err)
	}
	return ok, nil
}

// AdminChecker resolves an Authorization header to an admin email.
type AdminChecker struct {
	jwt         *JWTService
	lookup      AdminLookup
	masterAdmin string
}

// NewAdminChecker creates an admin checker. masterAdmin bypasses the lookup.
func NewAdminChecker(jwt *JWTService, lookup AdminLookup, masterAdmin string) *AdminChecker {
	return &AdminChecker{jwt: jwt, lookup: lookup, masterAdmin: strings.ToLower(strings.TrimSpace(masterAdmin))}
}

// RequireAdminEmail validates the bearer token and returns the lowercased
// admin email.
func (a *AdminChecker) RequireAdminEmail(ctx context.Context, authorization string) (string, error) {
	token := strings.TrimPrefix(authorization, "Bearer ")
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingBearer
	}
	claims, err := a.jwt.Validate(token)
	if err != nil || claims.Email == "" {
		return "", ErrInvalidToken
	}
	email := strings.ToLower(claims.Email)
	if a.masterAdmin != "" && email == a.masterAdmin {
		return email, nil
	}
	ok, err := a.lookup.IsAdmin(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAdminCheck, err)
	}
	if !ok {
		return "", ErrNotAdmin
	}
	return email, nil
}
