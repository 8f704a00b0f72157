package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"familyplan/internal/generation"
	"familyplan/internal/service"
	"familyplan/internal/validation"
)

// respondServiceError maps service errors to HTTP responses. Expected
// conditions become specific user-facing messages; anything else is logged
// and answered with a generic retryable message so storage details never
// reach the client.
func respondServiceError(w http.ResponseWriter, log *logrus.Logger, err error) {
	var ve validation.ValidationError
	if errors.As(err, &ve) {
		respondFailure(w, http.StatusBadRequest, ve.Message)
		return
	}

	switch {
	case errors.Is(err, service.ErrEmailTaken):
		respondFailure(w, http.StatusConflict, "Email already taken")
	case errors.Is(err, service.ErrInvalidInviteCode):
		respondFailure(w, http.StatusBadRequest, "Invalid invite code")
	case errors.Is(err, service.ErrInvalidMemberSelection):
		respondFailure(w, http.StatusConflict, "That family member can no longer be claimed. Please pick again.")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		respondFailure(w, http.StatusConflict, "This account already belongs to a family")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondFailure(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrInvalidResetToken):
		respondFailure(w, http.StatusBadRequest, "This reset link is invalid or has expired")
	case errors.Is(err, service.ErrNoFamily):
		respondFailure(w, http.StatusForbidden, "Complete onboarding before using this feature")
	case errors.Is(err, service.ErrNotGuardian):
		respondFailure(w, http.StatusForbidden, "Only guardians can do this")
	case errors.Is(err, service.ErrNotFound):
		respondFailure(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrMemberClaimed):
		respondFailure(w, http.StatusConflict, "Members with their own account cannot be removed")
	case errors.Is(err, generation.ErrUnavailable):
		log.WithError(err).Warn("generation service unavailable")
		respondFailure(w, http.StatusBadGateway, "Activity generation is temporarily unavailable. Please try again.")
	default:
		log.WithError(err).Error("request failed")
		respondFailure(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
