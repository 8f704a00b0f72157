package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"familyplan/internal/metrics"
	"familyplan/internal/models"
	"familyplan/internal/security"
	"familyplan/internal/service"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// AuthHandler owns registration, login, onboarding and the OAuth flow.
type AuthHandler struct {
	authService       *service.AuthService
	onboardingService *service.OnboardingService
	familyService     *service.FamilyService
	emailService      *service.EmailService
	googleOAuth       *oauth2.Config
	appBaseURL        string
	log               *logrus.Logger
}

// NewAuthHandler creates a new auth handler. googleOAuth may be nil when the
// provider is not configured.
func NewAuthHandler(authService *service.AuthService, onboardingService *service.OnboardingService, familyService *service.FamilyService, emailService *service.EmailService, googleOAuth *oauth2.Config, appBaseURL string, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService:       authService,
		onboardingService: onboardingService,
		familyService:     familyService,
		emailService:      emailService,
		googleOAuth:       googleOAuth,
		appBaseURL:        appBaseURL,
		log:               log,
	}
}

// Register handles POST /api/register. It creates the account, enrolls it in
// a family and opens a session in one go.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var sub service.RegistrationSubmission
	if !decodeJSON(w, r, &sub) {
		return
	}

	result, err := h.onboardingService.CompleteRegistration(sub)
	if err != nil {
		metrics.Registrations.WithLabelValues("failed").Inc()
		respondServiceError(w, h.log, err)
		return
	}

	// Enrollment treats a blank code as "start a new family".
	outcome := "created_family"
	if strings.TrimSpace(sub.FamilyData.InviteCode) != "" {
		outcome = "joined_family"
	}
	metrics.Registrations.WithLabelValues(outcome).Inc()

	if err := h.openSession(w, r, result.UserID); err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	// Best effort; registration already committed.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.emailService.SendWelcomeEmail(ctx, sub.AccountData.Email, sub.FamilyData.PrimaryGuardian.Name); err != nil {
			h.log.WithError(err).Warn("failed to send welcome email")
		}
	}()

	respondSuccess(w, nil)
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, session, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, sessionCookieName, session.ID, session.ExpiresAt))
	respondSuccess(w, map[string]interface{}{
		"user":      user,
		"onboarded": h.isOnboarded(user.ID),
	})
}

// Logout handles POST /api/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := h.authService.Logout(cookie.Value); err != nil {
			h.log.WithError(err).Warn("failed to delete session")
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, sessionCookieName))
	respondSuccess(w, nil)
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	respondSuccess(w, map[string]interface{}{
		"user":      user,
		"onboarded": h.isOnboarded(user.ID),
	})
}

// InvitePreview handles GET /api/invite/{code}. The onboarding wizard uses it
// to show the family name and the members a registrant could claim.
func (h *AuthHandler) InvitePreview(w http.ResponseWriter, r *http.Request) {
	resolution, err := h.onboardingService.ResolveInviteCode(r.PathValue("code"))
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	type memberPreview struct {
		ID   int64             `json:"id"`
		Name string            `json:"name"`
		Role models.MemberRole `json:"role"`
	}
	previews := make([]memberPreview, 0, len(resolution.EligibleMembers))
	for _, m := range resolution.EligibleMembers {
		previews = append(previews, memberPreview{ID: m.ID, Name: m.Name, Role: m.Role})
	}

	respondSuccess(w, map[string]interface{}{
		"familyName":      resolution.Family.Name,
		"eligibleMembers": previews,
	})
}

// CompleteOnboarding handles POST /api/onboarding/complete for accounts that
// signed in through OAuth and have no family yet.
func (h *AuthHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var familyData service.FamilySubmission
	if !decodeJSON(w, r, &familyData) {
		return
	}

	if _, err := h.onboardingService.CompleteOnboarding(user.ID, familyData); err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, nil)
}

// ForgotPassword handles POST /api/auth/forgot-password. It always reports
// success so the endpoint cannot be used to probe for accounts.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	token, user, err := h.authService.CreatePasswordReset(req.Email)
	if err != nil {
		if !errors.Is(err, service.ErrUnknownEmail) {
			h.log.WithError(err).Error("failed to create password reset")
		}
		respondSuccess(w, nil)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.emailService.SendPasswordResetEmail(ctx, user.Email, user.Name, token); err != nil {
			h.log.WithError(err).Warn("failed to send password reset email")
		}
	}()

	respondSuccess(w, nil)
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.Password); err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, nil)
}

// StartGoogleOAuth handles GET /auth/google/start.
func (h *AuthHandler) StartGoogleOAuth(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuth == nil {
		respondFailure(w, http.StatusBadRequest, "Google sign-in is not configured")
		return
	}

	state := security.GenerateSessionID()
	http.SetCookie(w, security.CreateSessionCookie(r, "oauth_state", state, time.Now().Add(10*time.Minute)))
	http.Redirect(w, r, h.googleOAuth.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// GoogleOAuthCallback handles GET /auth/google/callback. A first-time OAuth
// user lands on the onboarding flow; everyone else goes straight in.
func (h *AuthHandler) GoogleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuth == nil {
		respondFailure(w, http.StatusBadRequest, "Google sign-in is not configured")
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondFailure(w, http.StatusBadRequest, "OAuth state mismatch")
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, "oauth_state"))

	code := r.URL.Query().Get("code")
	if code == "" {
		respondFailure(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	token, err := h.googleOAuth.Exchange(r.Context(), code)
	if err != nil {
		h.log.WithError(err).Error("oauth code exchange failed")
		respondFailure(w, http.StatusBadGateway, "Sign-in failed. Please try again.")
		return
	}

	info, err := h.fetchGoogleUserInfo(r.Context(), token)
	if err != nil {
		h.log.WithError(err).Error("failed to fetch oauth user info")
		respondFailure(w, http.StatusBadGateway, "Sign-in failed. Please try again.")
		return
	}

	user, created, err := h.authService.OAuthLogin("google", info.ID, info.Email, info.Name)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	if err := h.openSession(w, r, user.ID); err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	target := h.appBaseURL + "/"
	if created || !h.isOnboarded(user.ID) {
		target = h.appBaseURL + "/onboarding"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *AuthHandler) fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.googleOAuth.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("user info missing id or email")
	}
	return &info, nil
}

func (h *AuthHandler) openSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	session, err := h.authService.CreateSession(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, security.CreateSessionCookie(r, sessionCookieName, session.ID, session.ExpiresAt))
	return nil
}

func (h *AuthHandler) isOnboarded(userID int64) bool {
	_, err := h.familyService.MemberForUser(userID)
	return err == nil
}
