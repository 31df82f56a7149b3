package common

import (
	"crypto/rand"
	"math/big"
)

// inviteAlphabet omits characters that are easy to confuse when read aloud
// at the club (0/O, 1/I/L).
const inviteAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// MakeInviteCode returns a random InviteCodeLength-character group code.
func MakeInviteCode() (string, error) {
	max := big.NewInt(int64(len(inviteAlphabet)))
	code := make([]byte, InviteCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = inviteAlphabet[n.Int64()]
	}
	return string(code), nil
}

// IsInviteCode reports whether s is shaped like a code from MakeInviteCode.
func IsInviteCode(s string) bool {
	if len(s) != InviteCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !containsByte(inviteAlphabet, s[i]) {
			return false
		}
	}
	return true
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}
