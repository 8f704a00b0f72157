package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"familyplan/internal/database"
	"familyplan/internal/models"
	"familyplan/internal/repository"
	"familyplan/internal/security"
	"familyplan/internal/validation"
)

var (
	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidResetToken is returned when a reset token is unknown, expired
	// or already consumed
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrUnknownEmail is returned when a password reset is requested for an
	// email with no account. Handlers should not reveal this to the client.
	ErrUnknownEmail = errors.New("no account for email")
)

const passwordResetTokenTTL = time.Hour

// AuthService owns credential checks, sessions and password resets.
type AuthService struct {
	db              *database.DB
	users           *repository.UserRepository
	sessionDuration time.Duration
	log             *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(db *database.DB, users *repository.UserRepository, sessionDuration time.Duration, log *logrus.Logger) *AuthService {
	return &AuthService{
		db:              db,
		users:           users,
		sessionDuration: sessionDuration,
		log:             log,
	}
}

// Login verifies credentials and opens a session.
func (s *AuthService) Login(email, password string) (*models.User, *models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.CreateSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// CreateSession opens a session for a user. Used by login and by the
// registration and OAuth handlers, which authenticate through other means.
func (s *AuthService) CreateSession(userID int64) (*models.Session, error) {
	return s.users.CreateSession(security.GenerateSessionID(), userID, time.Now().Add(s.sessionDuration))
}

// ValidateSession resolves a session ID to its user. Returns nil without
// error for an unknown or expired session; an expired session is removed.
func (s *AuthService) ValidateSession(sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.users.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	if session.IsExpired() {
		if err := s.users.DeleteSession(sessionID); err != nil {
			s.log.WithError(err).Warn("failed to remove expired session")
		}
		return nil, nil
	}

	return s.users.GetByID(session.UserID)
}

// Logout deletes the session
func (s *AuthService) Logout(sessionID string) error {
	return s.users.DeleteSession(sessionID)
}

// CleanupExpired removes expired sessions and reset tokens. Run periodically.
func (s *AuthService) CleanupExpired() error {
	if err := s.users.DeleteExpiredSessions(); err != nil {
		return err
	}
	return s.users.DeleteExpiredPasswordResetTokens()
}

// CreatePasswordReset issues a reset token for the account behind the email.
// Returns ErrUnknownEmail when no account matches; callers decide whether to
// surface that.
func (s *AuthService) CreatePasswordReset(email string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrUnknownEmail
	}

	token := uuid.New().String()
	if err := s.users.CreatePasswordResetToken(token, user.ID, time.Now().Add(passwordResetTokenTTL)); err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	reset, err := s.users.GetPasswordResetToken(token)
	if err != nil {
		return err
	}
	if reset == nil || reset.Used || reset.IsExpired() {
		return ErrInvalidResetToken
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(reset.UserID, hash); err != nil {
		return err
	}
	if err := s.users.MarkPasswordResetTokenUsed(token); err != nil {
		return err
	}
	// Leftover tokens for the same user are dead weight once one succeeds.
	if err := s.users.DeleteUserPasswordResetTokens(reset.UserID); err != nil {
		s.log.WithError(err).Warn("failed to clear reset tokens")
	}
	return nil
}

// OAuthLogin resolves an OAuth identity to a local user, creating or linking
// an account as needed. The second return reports whether the account is new;
// new OAuth accounts have no family yet and must complete onboarding.
func (s *AuthService) OAuthLogin(provider, subject, email, name string) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByOAuth(provider, subject)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	// Same email means the same person signed up with a password earlier.
	user, err = s.users.GetByEmail(email)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		if err := s.users.LinkOAuthProvider(user.ID, provider, subject); err != nil {
			return nil, false, err
		}
		return user, false, nil
	}

	// No usable password; the account authenticates through the provider.
	user, err = s.users.Create(s.db, email, "", name)
	if err != nil {
		return nil, false, err
	}
	if err := s.users.LinkOAuthProvider(user.ID, provider, subject); err != nil {
		return nil, false, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "provider": provider}).Info("oauth account created")
	return user, true, nil
}
