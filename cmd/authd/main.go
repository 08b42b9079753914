package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/gochop/gochop-auth/internal/config"
	"github.com/gochop/gochop-auth/internal/crypto"
	"github.com/gochop/gochop-auth/internal/handler"
	"github.com/gochop/gochop-auth/internal/middleware"
	"github.com/gochop/gochop-auth/internal/oidc"
	"github.com/gochop/gochop-auth/internal/ratelimit"
	"github.com/gochop/gochop-auth/internal/repository"
	"github.com/gochop/gochop-auth/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	if err := userRepo.Bootstrap(ctx); err != nil {
		slog.Error("schema bootstrap failed", "error", err)
		os.Exit(1)
	}

	admins := service.NewAdminResolver(cfg.AdminEmails)
	authService := service.NewAuthService(userRepo, crypto.NewBcryptHasher())
	sessionService, err := service.NewSessionService(cfg.AuthSecret, cfg.SessionMaxAge, cfg.BaseURL, admins, cfg.IsProduction())
	if err != nil {
		slog.Error("invalid session configuration", "error", err)
		os.Exit(1)
	}

	var provider handler.IdentityProvider
	if cfg.Google.ClientID != "" {
		p, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  sessionService.Origin() + "/auth/callback/google",
		})
		if err != nil {
			slog.Error("google provider init failed", "error", err)
			os.Exit(1)
		}
		provider = p
	} else {
		slog.Warn("GOOGLE_CLIENT_ID not set, external sign-in disabled")
	}

	limiter := ratelimit.New()
	limiter.StartSweeper(time.Minute)
	defer limiter.Stop()

	authHandler := handler.NewAuthHandler(authService, admins)
	sessionHandler := handler.NewSessionHandler(authService, sessionService, userRepo, provider)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Throttle(cfg.ThrottleRPS, cfg.ThrottleBurst))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Govern(limiter, ratelimit.Policy{
			MaxRequests: cfg.RegisterRateMax,
			Window:      cfg.RegisterRateWindow,
		}))
		r.Post("/auth/register", authHandler.HandleRegister)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Govern(limiter, ratelimit.Policy{
			MaxRequests: cfg.VerifyRateMax,
			Window:      cfg.VerifyRateWindow,
		}))
		r.Post("/auth/verify-credentials", authHandler.HandleVerifyCredentials)
		r.Post("/auth/signin", sessionHandler.HandleSignIn)
	})

	r.Get("/auth/signin/google", sessionHandler.HandleGoogleSignIn)
	r.Get("/auth/callback/google", sessionHandler.HandleGoogleCallback)
	r.Get("/auth/session", sessionHandler.HandleSession)
	r.Post("/auth/signout", sessionHandler.HandleSignOut)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.AuthSecret))
		r.Get("/auth/me", authHandler.HandleMe)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
