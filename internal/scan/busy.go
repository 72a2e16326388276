package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned while a session already has a verification in flight.
var ErrBusy = errors.New("scanner busy")

const (
	busyKeyPrefix = "scan:busy:"
	// BusyTTL bounds how long a crashed request can hold a session.
	BusyTTL = 15 * time.Second
)

// releaseScript deletes the flag only while it still holds the caller's token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Guard serialises verifications per scanner session.
type Guard interface {
	Acquire(ctx context.Context, session string) (release func(), err error)
}

// BusyGuard is a Redis-backed Guard shared by every API instance.
type BusyGuard struct {
	client *redis.Client
	ttl    time.Duration
	token  func() string
}

// NewBusyGuard creates a guard with BusyTTL.
func NewBusyGuard(client *redis.Client) *BusyGuard {
	return &BusyGuard{client: client, ttl: BusyTTL, token: uuid.NewString}
}

// BusyKey returns the Redis key for a scanner session.
func BusyKey(session string) string {
	return busyKeyPrefix + session
}

// Acquire marks the session busy. The returned release clears the flag if
// this call still owns it.
func (g *BusyGuard) Acquire(ctx context.Context, session string) (func(), error) {
	key := BusyKey(session)
	token := g.token()
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("busy flag: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = g.client.Eval(ctx, releaseScript, []string{key}, token).Err()
	}, nil
}
