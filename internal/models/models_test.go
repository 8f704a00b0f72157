package models

import (
	"testing"
	"time"
)

func TestMemberRoleValid(t *testing.T) {
	tests := []struct {
		role  MemberRole
		valid bool
	}{
		{RolePrimaryGuardian, true},
		{RoleSecondaryGuardian, true},
		{RoleChild, true},
		{RoleOtherRelative, true},
		{MemberRole("parent"), false},
		{MemberRole(""), false},
	}

	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.valid {
			t.Errorf("MemberRole(%q).Valid() = %v, want %v", tt.role, got, tt.valid)
		}
	}
}

func TestMemberRoleSelfClaimable(t *testing.T) {
	tests := []struct {
		role      MemberRole
		claimable bool
	}{
		{RolePrimaryGuardian, true},
		{RoleSecondaryGuardian, true},
		{RoleOtherRelative, true},
		{RoleChild, false},
		{MemberRole("grandparent"), false},
	}

	for _, tt := range tests {
		if got := tt.role.SelfClaimable(); got != tt.claimable {
			t.Errorf("MemberRole(%q).SelfClaimable() = %v, want %v", tt.role, got, tt.claimable)
		}
	}
}

func TestFamilyMemberClaimed(t *testing.T) {
	userID := int64(7)

	headless := FamilyMember{Name: "Bo", Role: RoleChild}
	if headless.Claimed() {
		t.Error("member without user reference should not be claimed")
	}

	claimed := FamilyMember{Name: "Ann", Role: RolePrimaryGuardian, UserID: &userID}
	if !claimed.Claimed() {
		t.Error("member with user reference should be claimed")
	}

	// Callable on non-addressable values, e.g. map lookups over a roster.
	roster := map[string]FamilyMember{"Bo": headless, "Ann": claimed}
	if roster["Bo"].Claimed() || !roster["Ann"].Claimed() {
		t.Error("claimed state should be readable straight off a map lookup")
	}
}

func TestSessionIsExpired(t *testing.T) {
	expired := Session{ExpiresAt: time.Now().Add(-time.Minute)}
	if !expired.IsExpired() {
		t.Error("session past its expiry should be expired")
	}

	live := Session{ExpiresAt: time.Now().Add(time.Hour)}
	if live.IsExpired() {
		t.Error("session before its expiry should not be expired")
	}
}

func TestFocusCategoryValid(t *testing.T) {
	for _, c := range []FocusCategory{CategoryPhysical, CategoryEducational, CategoryCreative, CategorySocial, CategoryLifeSkills} {
		if !c.Valid() {
			t.Errorf("FocusCategory(%q).Valid() = false, want true", c)
		}
	}
	if FocusCategory("athletic").Valid() {
		t.Error("unknown category should not be valid")
	}
}

func TestEnvironmentValid(t *testing.T) {
	if !EnvironmentIndoor.Valid() || !EnvironmentOutdoor.Valid() {
		t.Error("indoor and outdoor should be valid environments")
	}
	if Environment("underwater").Valid() {
		t.Error("unknown environment should not be valid")
	}
}
