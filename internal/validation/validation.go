package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"familyplan/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// dateLayout is the calendar-date form used everywhere a date of birth moves
// through the system. No time or timezone component.
const dateLayout = "2006-01-02"

// ValidationError represents a field-level validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a person or family name is valid
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: field, Message: field + " must be at least 2 characters"}
	}
	return nil
}

// ValidateRole checks if a member role is one of the known roles
func ValidateRole(role models.MemberRole) error {
	if !role.Valid() {
		return ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", role)}
	}
	return nil
}

// ValidateGuardianRole checks a role submitted for the registering guardian.
// The registrant is an adult opening the account, so "child" is rejected.
func ValidateGuardianRole(role models.MemberRole) error {
	if err := ValidateRole(role); err != nil {
		return err
	}
	if !role.SelfClaimable() {
		return ValidationError{Field: "role", Message: "a registering guardian cannot have the child role"}
	}
	return nil
}

// ValidateDate checks an optional YYYY-MM-DD calendar date. A nil pointer is
// valid; an empty string is not.
func ValidateDate(field string, date *string) error {
	if date == nil {
		return nil
	}
	if _, err := time.Parse(dateLayout, *date); err != nil {
		return ValidationError{Field: field, Message: "date must be in YYYY-MM-DD format"}
	}
	return nil
}

// ValidateCategory checks if a focus category is one of the known categories
func ValidateCategory(category models.FocusCategory) error {
	if !category.Valid() {
		return ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", category)}
	}
	return nil
}

// ValidatePriority checks a focus area priority (1 low to 5 high)
func ValidatePriority(priority int) error {
	if priority < 1 || priority > 5 {
		return ValidationError{Field: "priority", Message: "priority must be between 1 and 5"}
	}
	return nil
}

// ValidateEnvironment checks if an environment is indoor or outdoor
func ValidateEnvironment(env models.Environment) error {
	if !env.Valid() {
		return ValidationError{Field: "environment", Message: fmt.Sprintf("unknown environment %q", env)}
	}
	return nil
}
