package models

import "time"

// FocusCategory classifies what a focus area develops.
type FocusCategory string

const (
	CategoryPhysical    FocusCategory = "physical"
	CategoryEducational FocusCategory = "educational"
	CategoryCreative    FocusCategory = "creative"
	CategorySocial      FocusCategory = "social"
	CategoryLifeSkills  FocusCategory = "life_skills"
)

// Valid reports whether the category is one of the known categories.
func (c FocusCategory) Valid() bool {
	switch c {
	case CategoryPhysical, CategoryEducational, CategoryCreative, CategorySocial, CategoryLifeSkills:
		return true
	}
	return false
}

// FocusArea is a development goal a family sets, optionally scoped to a
// single member. Priority ranges from 1 (lowest) to 5 (highest).
type FocusArea struct {
	ID          int64         `json:"id"`
	FamilyID    int64         `json:"family_id"`
	MemberID    *int64        `json:"member_id,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Category    FocusCategory `json:"category"`
	Priority    int           `json:"priority"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
