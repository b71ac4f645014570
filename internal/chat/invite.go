package chat

import (
	"crypto/rand"
	"fmt"
)

const (
	inviteCodeLength = 16
	inviteCodeChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxInviteCodeAttempts bounds regeneration on global code collisions.
	// Hitting the bound signals an operational problem, not a user error.
	maxInviteCodeAttempts = 10
)

// generateInviteCode draws a fixed-length alphanumeric token from a
// cryptographically strong random source. Bytes at or above the largest
// multiple of the alphabet size are redrawn, keeping every character
// equally likely.
func generateInviteCode() (string, error) {
	const limit = 256 - 256%len(inviteCodeChars)

	code := make([]byte, 0, inviteCodeLength)
	buf := make([]byte, inviteCodeLength)
	for len(code) < inviteCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, inviteCodeChars[int(b)%len(inviteCodeChars)])
			if len(code) == inviteCodeLength {
				break
			}
		}
	}
	return string(code), nil
}
