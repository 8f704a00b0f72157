package validation

import (
	"errors"
	"testing"

	"familyplan/internal/models"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "ann@example.com", false},
		{"valid with plus", "ann+tag@example.co.uk", false},
		{"surrounding whitespace", "  ann@example.com  ", false},
		{"empty", "", true},
		{"missing domain", "ann@", true},
		{"missing at", "ann.example.com", true},
		{"missing tld", "ann@example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("secret123"); err != nil {
		t.Errorf("ValidatePassword() unexpected error: %v", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Error("ValidatePassword() should reject passwords under 8 characters")
	}
	if err := ValidatePassword(""); err == nil {
		t.Error("ValidatePassword() should reject empty password")
	}
}

func TestValidateNameReportsField(t *testing.T) {
	err := ValidateName("family_name", "X")
	if err == nil {
		t.Fatal("expected error for one-character name")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Field != "family_name" {
		t.Errorf("expected field family_name, got %q", verr.Field)
	}
}

func TestValidateGuardianRole(t *testing.T) {
	tests := []struct {
		role    models.MemberRole
		wantErr bool
	}{
		{models.RolePrimaryGuardian, false},
		{models.RoleSecondaryGuardian, false},
		{models.RoleOtherRelative, false},
		{models.RoleChild, true},
		{models.MemberRole("parent"), true},
	}

	for _, tt := range tests {
		err := ValidateGuardianRole(tt.role)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateGuardianRole(%q) error = %v, wantErr %v", tt.role, err, tt.wantErr)
		}
	}
}

func TestValidateDate(t *testing.T) {
	good := "2016-03-09"
	bad := "09/03/2016"
	empty := ""

	if err := ValidateDate("date_of_birth", nil); err != nil {
		t.Errorf("nil date should be valid, got %v", err)
	}
	if err := ValidateDate("date_of_birth", &good); err != nil {
		t.Errorf("ValidateDate(%q) unexpected error: %v", good, err)
	}
	if err := ValidateDate("date_of_birth", &bad); err == nil {
		t.Errorf("ValidateDate(%q) should fail", bad)
	}
	if err := ValidateDate("date_of_birth", &empty); err == nil {
		t.Error("empty date string should fail")
	}
}

func TestValidatePriority(t *testing.T) {
	for _, p := range []int{1, 3, 5} {
		if err := ValidatePriority(p); err != nil {
			t.Errorf("ValidatePriority(%d) unexpected error: %v", p, err)
		}
	}
	for _, p := range []int{0, 6, -1} {
		if err := ValidatePriority(p); err == nil {
			t.Errorf("ValidatePriority(%d) should fail", p)
		}
	}
}
