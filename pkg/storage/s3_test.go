package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQRKey(t *testing.T) {
	key := QRKey("7d3c", "reg-1")
	assert.Regexp(t, `^qr/7d3c/[0-9a-f]{16}\.png$`, key)
	assert.Equal(t, key, QRKey("7d3c", "reg-1"))
	assert.NotEqual(t, key, QRKey("7d3c", `{"id":"7d3c","code":"568789"}`))
}

func TestPresignExpire(t *testing.T) {
	s := &S3{cfg: S3Config{}}
	assert.Equal(t, 15*time.Minute, s.PresignExpire())
	s.cfg.PresignExpireMinutes = 60
	assert.Equal(t, time.Hour, s.PresignExpire())
}
