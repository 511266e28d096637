package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/evacdesk/rollcall/internal/broadcast"
	"github.com/evacdesk/rollcall/internal/clock"
	"github.com/evacdesk/rollcall/internal/http/handlers"
	apimw "github.com/evacdesk/rollcall/internal/http/middleware"
	"github.com/evacdesk/rollcall/internal/platform/auth"
	"github.com/evacdesk/rollcall/internal/platform/mailer"
	"github.com/evacdesk/rollcall/internal/repo/postgres"
	"github.com/evacdesk/rollcall/internal/service"
	"github.com/evacdesk/rollcall/pkg/config"
	"github.com/evacdesk/rollcall/pkg/database"
	"github.com/evacdesk/rollcall/pkg/events"
	"github.com/evacdesk/rollcall/pkg/logger"
	"github.com/evacdesk/rollcall/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using environment")
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := database.Connect(ctx, cfg.Database)
	cancel()
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	admins := postgres.NewAdminRepo(pool)
	if cfg.Auth.AdminPassword != "" {
		hash, err := argon2id.CreateHash(cfg.Auth.AdminPassword, argon2id.DefaultParams)
		if err != nil {
			logger.Error("failed to hash admin password", "error", err)
			os.Exit(1)
		}
		email := strings.ToLower(strings.TrimSpace(cfg.Auth.AdminEmail))
		if err := admins.Ensure(context.Background(), email, hash); err != nil {
			logger.Error("failed to seed admin account", "error", err)
			os.Exit(1)
		}
		logger.Info("admin account ready", "email", email)
	}

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to local", "timezone", cfg.App.Timezone)
		loc = time.Local
	}
	clk := clock.New(loc)

	var bus events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err, "url", cfg.NATS.URL)
			os.Exit(1)
		}
		bus = nats
		logger.Info("event mirror connected", "url", cfg.NATS.URL)
	}
	defer bus.Close()

	hub := broadcast.NewHub()
	mail := mailer.FromConfig(cfg.Mailer)
	tokens := auth.New(cfg.Auth.JWTSecret)

	svc := service.NewAttendanceService(
		postgres.NewStaffRepo(pool),
		postgres.NewAttendanceRepo(pool),
		postgres.NewAccessCodeRepo(pool),
		clk,
		hub,
		bus,
		mail,
		cfg.Mailer.ReportTo,
	)

	limiter := apimw.NewRateLimiter(pool, apimw.RateLimitConfig{
		Requests: cfg.App.RateLimitRequests,
		Window:   cfg.App.RateLimitWindow,
	})

	checkin := handlers.NewCheckinHandler(svc)
	status := handlers.NewStatusHandler(svc)
	admin := handlers.NewAdminHandler(svc)
	authH := handlers.NewAuthHandler(admins, tokens, cfg.Auth.TokenTTL)
	ws := handlers.NewWSHandler(hub)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.ServiceName("rollcall"))
	r.Use(middleware.Logging)
	r.Use(middleware.Health)

	r.Route("/api", func(r chi.Router) {
		status.Register(r)
		r.Mount("/auth", authH.Routes())
		r.With(limiter.Middleware()).Mount("/checkin", checkin.Routes())
		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAdmin(tokens))
			admin.Register(r)
		})
	})
	r.Get("/ws", ws.Serve)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	hub.Shutdown()
	logger.Info("server stopped")
}
