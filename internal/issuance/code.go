package issuance

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
)

const (
	codeMin      = 100000
	codeSpan     = 900000
	codeAttempts = 10
)

// ErrCodeExhausted is returned when no free code was found.
var ErrCodeExhausted = errors.New("Failed to generate unique ticket code")

// CodeChecker reports whether a ticket code is taken.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// CodeGenerator draws random 6-digit codes in [100000, 999999] until one is
// free.
type CodeGenerator struct {
	checker  CodeChecker
	attempts int
	random   func() (int64, error)
}

// NewCodeGenerator creates a generator backed by crypto/rand.
func NewCodeGenerator(checker CodeChecker) *CodeGenerator {
	return &CodeGenerator{checker: checker, attempts: codeAttempts, random: randomCode}
}

func randomCode() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return 0, err
	}
	return codeMin + n.Int64(), nil
}

// Generate returns an unused code.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < g.attempts; i++ {
		n, err := g.random()
		if err != nil {
			return "", fmt.Errorf("random code: %w", err)
		}
		code := strconv.FormatInt(n, 10)
		taken, err := g.checker.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}
