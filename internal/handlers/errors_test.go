package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"familyplan/internal/generation"
	"familyplan/internal/service"
	"familyplan/internal/validation"
)

func TestRespondServiceError(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", validation.ValidationError{Field: "email", Message: "invalid email format"}, http.StatusBadRequest, "invalid email format"},
		{"email taken", service.ErrEmailTaken, http.StatusConflict, "Email already taken"},
		{"invalid invite code", service.ErrInvalidInviteCode, http.StatusBadRequest, "Invalid invite code"},
		{"invalid member selection", service.ErrInvalidMemberSelection, http.StatusConflict, "That family member can no longer be claimed. Please pick again."},
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{"no family", service.ErrNoFamily, http.StatusForbidden, "Complete onboarding before using this feature"},
		{"not found", service.ErrNotFound, http.StatusNotFound, "Not found"},
		{"generation down", generation.ErrUnavailable, http.StatusBadGateway, "Activity generation is temporarily unavailable. Please try again."},
		{"storage failure", errors.New("sql: database is closed"), http.StatusInternalServerError, "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, log, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body.Success {
				t.Error("success should be false")
			}
			if body.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", body.Error, tt.wantMsg)
			}
		})
	}
}

func TestRespondServiceErrorHidesInternals(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	rec := httptest.NewRecorder()
	respondServiceError(rec, log, errors.New("pq: connection refused host=10.0.0.5"))

	got := rec.Body.String()
	if strings.Contains(got, "pq:") || strings.Contains(got, "10.0.0.5") {
		t.Errorf("response leaked internals: %s", got)
	}
}
