package chat

import (
	"crypto/rand"
	"strings"
)

const (
	inviteCodeLength   = 8
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Collisions surface as unique violations and are retried with a
	// fresh code this many times before giving up.
	inviteCodeRetries = 5
)

// NewInviteCode returns a random fixed-length upper-case code.
func NewInviteCode() string {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	var b strings.Builder
	for _, c := range buf {
		b.WriteByte(inviteCodeAlphabet[int(c)%len(inviteCodeAlphabet)])
	}
	return b.String()
}

// NormalizeInviteCode case-normalizes a client-supplied code.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
