package security

import (
	"crypto/rand"
	"errors"
	"strings"
	"testing"
)

func TestNewInviteCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := NewInviteCode(rand.Reader)
		if err != nil {
			t.Fatalf("NewInviteCode() error = %v", err)
		}
		if len(code) != InviteCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), InviteCodeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(inviteCodeAlphabet, c) {
				t.Fatalf("code %q contains character %q outside the alphabet", code, c)
			}
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Errorf("expected mostly unique codes, got %d unique of 50", len(seen))
	}
}

func TestUniqueInviteCodeRetriesOnCollision(t *testing.T) {
	collisions := 3
	var probes []string

	code, err := UniqueInviteCode(func(code string) (bool, error) {
		probes = append(probes, code)
		if collisions > 0 {
			collisions--
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		t.Fatalf("UniqueInviteCode() error = %v", err)
	}
	if len(probes) != 4 {
		t.Errorf("expected 4 uniqueness probes, got %d", len(probes))
	}
	if code != probes[len(probes)-1] {
		t.Error("returned code should be the last probed code")
	}
}

func TestUniqueInviteCodeGivesUp(t *testing.T) {
	_, err := UniqueInviteCode(func(string) (bool, error) {
		return true, nil
	})
	if !errors.Is(err, ErrInviteCodeExhausted) {
		t.Errorf("expected ErrInviteCodeExhausted, got %v", err)
	}
}

func TestUniqueInviteCodePropagatesProbeError(t *testing.T) {
	boom := errors.New("db down")
	_, err := UniqueInviteCode(func(string) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected probe error to propagate, got %v", err)
	}
}
