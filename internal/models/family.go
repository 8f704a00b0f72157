package models

import "time"

// MemberRole is the role a person holds within a family.
type MemberRole string

const (
	RolePrimaryGuardian   MemberRole = "primary_guardian"
	RoleSecondaryGuardian MemberRole = "secondary_guardian"
	RoleChild             MemberRole = "child"
	RoleOtherRelative     MemberRole = "other_relative"
)

// Valid reports whether the role is one of the known member roles.
func (r MemberRole) Valid() bool {
	switch r {
	case RolePrimaryGuardian, RoleSecondaryGuardian, RoleChild, RoleOtherRelative:
		return true
	}
	return false
}

// SelfClaimable reports whether a new registrant may claim a member holding
// this role. A registrant is never "the child".
func (r MemberRole) SelfClaimable() bool {
	return r.Valid() && r != RoleChild
}

// Family is the grouping unit; it owns members, focus areas and resources.
// The invite code is generated once at creation and never reassigned.
type Family struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FamilyMember is a person in the family graph. UserID is nil for a headless
// member (typically a child, or a relative pre-registered by a guardian); a
// headless member can later be claimed by a newly registering account. Each
// user is linked from at most one member record system-wide.
//
// DateOfBirth is a plain calendar date in YYYY-MM-DD form; it never passes
// through time.Time so it cannot drift across timezones.
type FamilyMember struct {
	ID          int64      `json:"id"`
	FamilyID    int64      `json:"family_id"`
	UserID      *int64     `json:"user_id,omitempty"`
	Name        string     `json:"name"`
	Role        MemberRole `json:"role"`
	DateOfBirth *string    `json:"date_of_birth,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	AvatarColor string     `json:"avatar_color,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Claimed reports whether the member is linked to an account.
func (m FamilyMember) Claimed() bool {
	return m.UserID != nil
}

// FamilyWithMembers combines a family with its member records
type FamilyWithMembers struct {
	Family  Family         `json:"family"`
	Members []FamilyMember `json:"members"`
}
