package models

import "time"

// Environment says where an activity or resource can be used.
type Environment string

const (
	EnvironmentIndoor  Environment = "indoor"
	EnvironmentOutdoor Environment = "outdoor"
)

// Valid reports whether the environment is indoor or outdoor.
func (e Environment) Valid() bool {
	return e == EnvironmentIndoor || e == EnvironmentOutdoor
}

// Resource is something a family has available for activities, like a garden
// or a board game shelf. Inactive resources stay on record but are not offered
// to activity generation.
type Resource struct {
	ID          int64       `json:"id"`
	FamilyID    int64       `json:"family_id"`
	Name        string      `json:"name"`
	Environment Environment `json:"environment"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
