package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Roles carried in tokens issued here.
const (
	RoleGate  = "gate"
	RoleAdmin = "admin"
)

// Claims holds JWT claims. Gate sessions carry Gate and Device; admin tokens
// (including ones minted by the hosted auth service with the shared secret)
// carry Email.
type Claims struct {
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	Gate   string `json:"gate,omitempty"`
	Device string `json:"device,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret      []byte
	expireHours int
	now         func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
		now:         time.Now,
	}
}

// GenerateGate creates a scanner session token bound to a gate and device.
func (s *JWTService) GenerateGate(gate, device string) (string, time.Time, error) {
	return s.generate(Claims{Role: RoleGate, Gate: gate, Device: device})
}

// GenerateAdmin creates an admin token for an email address.
func (s *JWTService) GenerateAdmin(email string) (string, time.Time, error) {
	return s.generate(Claims{Role: RoleAdmin, Email: email})
}

func (s *JWTService) generate(claims Claims) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(time.Duration(s.expireHours) * time.Hour)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	return signed, expires, err
}

// Validate parses and validates a JWT, returning claims or error.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
