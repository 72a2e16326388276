package auth

import (
	"crypto/subtle"

	"github.com/yatra-gate/backend/pkg/utils"
)

// CheckSecret compares a submitted secret with the configured one. Configured
// values that look like bcrypt hashes are verified with bcrypt.
func CheckSecret(submitted, configured string) bool {
	if configured == "" {
		return false
	}
	if utils.IsBcryptHash(configured) {
		return utils.CheckSecretHash(submitted, configured)
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(configured)) == 1
}
