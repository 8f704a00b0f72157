package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// inviteCodeAlphabet omits 0/O and 1/I so codes read unambiguously when
// shared out loud or handwritten.
const inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// InviteCodeLength is the length of family invite codes.
const InviteCodeLength = 6

const maxInviteCodeAttempts = 10

// ErrInviteCodeExhausted is returned when repeated generation attempts all
// collided with existing codes.
var ErrInviteCodeExhausted = errors.New("could not generate a unique invite code")

// NewInviteCode draws a single random invite code from the given randomness
// source. Uniqueness is the caller's concern.
func NewInviteCode(random io.Reader) (string, error) {
	buf := make([]byte, InviteCodeLength)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", fmt.Errorf("failed to read randomness: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(buf), nil
}

// UniqueInviteCode generates an invite code and retries on collision, using
// exists to probe the store. The database UNIQUE constraint on the code column
// remains the final arbiter; the probe just keeps retries out of the error
// path.
func UniqueInviteCode(exists func(code string) (bool, error)) (string, error) {
	for i := 0; i < maxInviteCodeAttempts; i++ {
		code, err := NewInviteCode(rand.Reader)
		if err != nil {
			return "", err
		}
		taken, err := exists(code)
		if err != nil {
			return "", fmt.Errorf("failed to check invite code uniqueness: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrInviteCodeExhausted
}
