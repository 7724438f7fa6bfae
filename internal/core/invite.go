package core

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// inviteAlphabet avoids look-alike characters (I/O/0/1) so codes survive
// being read aloud or typed from a phone screen.
const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// InviteCodeLength is the fixed length of family invite codes.
const InviteCodeLength = 8

// NewInviteCode generates a random invite code from the unambiguous
// alphabet using crypto/rand.
func NewInviteCode() (string, error) {
	buf := make([]byte, InviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}
	return string(buf), nil
}

// NormalizeInviteCode uppercases and trims a user-typed code.
func NormalizeInviteCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidInviteCode reports whether s has the shape of a generated code.
func ValidInviteCode(s string) bool {
	if len(s) != InviteCodeLength {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(inviteAlphabet, r) {
			return false
		}
	}
	return true
}
