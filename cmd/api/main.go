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
	"github.com/kylegrahammatzen/authgate/internal/config"
	"github.com/kylegrahammatzen/authgate/internal/handler"
	"github.com/kylegrahammatzen/authgate/internal/mailer"
	"github.com/kylegrahammatzen/authgate/internal/middleware"
	"github.com/kylegrahammatzen/authgate/internal/repository"
	"github.com/kylegrahammatzen/authgate/internal/routes"
	"github.com/kylegrahammatzen/authgate/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	var notifier mailer.Notifier
	if cfg.SMTPAddr != "" {
		notifier = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		slog.Warn("SMTP_ADDR not set — verification codes will be logged, not emailed")
		notifier = mailer.LogMailer{}
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)

	sessionService := service.NewSessionService(userRepo, sessionRepo, cfg.SessionSecret, cfg.SessionDuration, cfg.SessionRefreshWindow)
	verificationService := service.NewVerificationService(userRepo, verificationRepo, notifier, cfg.VerificationCodeTTL, cfg.ResendCooldown)
	authService := service.NewAuthService(userRepo, sessionService, verificationService)
	authHandler := handler.NewAuthHandler(authService, verificationService, cfg.Production())

	classifier := routes.NewClassifier(cfg.PublicPrefixes, cfg.PrivatePrefixes)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Gate(classifier, sessionService, cfg.LoginRedirectURL, cfg.Production()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(5, 10))
		r.Post("/api/v1/auth/register", authHandler.HandleRegister)
		r.Post("/api/v1/auth/login", authHandler.HandleLogin)
		r.Post("/api/v1/auth/verify-email", authHandler.HandleVerifyEmail)
		r.Post("/api/v1/auth/resend-code", authHandler.HandleResendCode)
	})

	r.Post("/api/v1/auth/logout", authHandler.HandleLogout)
	r.Get("/api/v1/auth/me", authHandler.HandleMe)

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
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
