package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"familyplan/internal/config"
	"familyplan/internal/database"
	"familyplan/internal/generation"
	"familyplan/internal/handlers"
	"familyplan/internal/metrics"
	"familyplan/internal/repository"
	"familyplan/internal/security"
	"familyplan/internal/service"
	"familyplan/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()
	log.WithField("type", cfg.DatabaseType).Info("database connection established")

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	log.Info("migrations completed")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	focusAreaRepo := repository.NewFocusAreaRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)

	// Services
	emailService, err := service.NewEmailService(cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize email service")
	}

	authService := service.NewAuthService(db, userRepo, cfg.SessionDuration, log)
	onboardingService := service.NewOnboardingService(db, userRepo, familyRepo, memberRepo, log)
	familyService := service.NewFamilyService(db, familyRepo, memberRepo, focusAreaRepo, resourceRepo, log)

	generationClient := generation.NewClient(cfg.GenerationURL, cfg.GenerationSecret, cfg.GenerationTimeout)
	activityService := service.NewActivityService(familyService, memberRepo, focusAreaRepo, resourceRepo, favoriteRepo, generationClient, log)

	var googleOAuth *oauth2.Config
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		googleOAuth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthRedirectBaseURL + "/auth/google/callback",
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		}
	}

	// Handlers
	authLimiter := security.NewRateLimiter(10, time.Minute)
	generateLimiter := security.NewRateLimiter(20, time.Minute)

	middleware := handlers.NewMiddleware(authService, authLimiter, log)
	generateMiddleware := handlers.NewMiddleware(authService, generateLimiter, log)

	authHandler := handlers.NewAuthHandler(authService, onboardingService, familyService, emailService, googleOAuth, cfg.AppBaseURL, log)
	familyHandler := handlers.NewFamilyHandler(familyService, emailService, log)
	activityHandler := handlers.NewActivityHandler(activityService, log)

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/invite/{code}", middleware.RateLimit(authHandler.InvitePreview))
	mux.HandleFunc("POST /api/auth/forgot-password", middleware.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", middleware.RateLimit(authHandler.ResetPassword))
	mux.HandleFunc("GET /auth/google/start", authHandler.StartGoogleOAuth)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleOAuthCallback)

	// Authenticated routes
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("POST /api/onboarding/complete", middleware.RequireAuth(authHandler.CompleteOnboarding))

	mux.HandleFunc("GET /api/family", middleware.RequireAuth(familyHandler.GetFamily))
	mux.HandleFunc("PUT /api/family", middleware.RequireAuth(familyHandler.UpdateFamily))
	mux.HandleFunc("GET /api/family/invite", middleware.RequireAuth(familyHandler.GetInvite))
	mux.HandleFunc("POST /api/family/invite/send", middleware.RequireAuth(familyHandler.SendInvite))
	mux.HandleFunc("POST /api/family/members", middleware.RequireAuth(familyHandler.AddMember))
	mux.HandleFunc("PUT /api/family/members/{id}", middleware.RequireAuth(familyHandler.UpdateMember))
	mux.HandleFunc("DELETE /api/family/members/{id}", middleware.RequireAuth(familyHandler.RemoveMember))

	mux.HandleFunc("GET /api/focus-areas", middleware.RequireAuth(familyHandler.ListFocusAreas))
	mux.HandleFunc("POST /api/focus-areas", middleware.RequireAuth(familyHandler.CreateFocusArea))
	mux.HandleFunc("PUT /api/focus-areas/{id}", middleware.RequireAuth(familyHandler.UpdateFocusArea))
	mux.HandleFunc("DELETE /api/focus-areas/{id}", middleware.RequireAuth(familyHandler.DeleteFocusArea))

	mux.HandleFunc("GET /api/resources", middleware.RequireAuth(familyHandler.ListResources))
	mux.HandleFunc("POST /api/resources", middleware.RequireAuth(familyHandler.CreateResource))
	mux.HandleFunc("PUT /api/resources/{id}", middleware.RequireAuth(familyHandler.UpdateResource))
	mux.HandleFunc("DELETE /api/resources/{id}", middleware.RequireAuth(familyHandler.DeleteResource))

	mux.HandleFunc("POST /api/activities/generate", generateMiddleware.RateLimit(generateMiddleware.RequireAuth(activityHandler.Generate)))
	mux.HandleFunc("GET /api/activities/favorites", middleware.RequireAuth(activityHandler.ListFavorites))
	mux.HandleFunc("POST /api/activities/favorites", middleware.RequireAuth(activityHandler.SaveFavorite))
	mux.HandleFunc("DELETE /api/activities/favorites/{id}", middleware.RequireAuth(activityHandler.DeleteFavorite))

	mux.Handle("GET /metrics", metrics.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Periodic cleanup of expired sessions and reset tokens
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := authService.CleanupExpired(); err != nil {
					log.WithError(err).Warn("session cleanup failed")
				}
			case <-cleanupDone:
				return
			}
		}
	}()

	go func() {
		log.WithField("port", cfg.ServerPort).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	close(cleanupDone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}
