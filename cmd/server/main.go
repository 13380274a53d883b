// Command server runs the volunteer marketplace API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminhandler "volunity/internal/admin/handler"
	adminservice "volunity/internal/admin/service"
	eventhandler "volunity/internal/event/handler"
	eventservice "volunity/internal/event/service"
	eventpostgres "volunity/internal/event/store/postgres"
	identityhandler "volunity/internal/identity/handler"
	identitymetrics "volunity/internal/identity/metrics"
	identityservice "volunity/internal/identity/service"
	identitypostgres "volunity/internal/identity/store/postgres"
	"volunity/internal/identity/store/revocation"
	"volunity/internal/jwttoken"
	"volunity/internal/platform/config"
	"volunity/internal/platform/database"
	"volunity/internal/platform/httpserver"
	"volunity/internal/platform/logger"
	redisplatform "volunity/internal/platform/redis"
	registrationhandler "volunity/internal/registration/handler"
	registrationmetrics "volunity/internal/registration/metrics"
	registrationservice "volunity/internal/registration/service"
	registrationpostgres "volunity/internal/registration/store/postgres"
	statshandler "volunity/internal/stats/handler"
	statsservice "volunity/internal/stats/service"
	transporthttp "volunity/internal/transport/http"
	"volunity/pkg/email"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db, "file://migrations"); err != nil {
		return err
	}

	redisClient, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	var revocations interface {
		Revoke(ctx context.Context, jti string, ttl time.Duration) error
		IsRevoked(ctx context.Context, jti string) (bool, error)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocations = revocation.NewRedisList(redisClient.Client)
		log.Info("token revocation backed by redis")
	} else {
		revocations = revocation.NewMemoryList()
		log.Info("redis not configured, token revocation held in memory")
	}

	var notifier email.Notifier
	if cfg.SMTPHost != "" {
		notifier = email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		notifier = email.NewDevNotifier(log)
		log.Info("SMTP not configured, verification emails logged instead")
	}

	tokens := jwttoken.New(cfg.JWTSigningKey, "volunity", cfg.JWTTTL)

	users := identitypostgres.New(db)
	events := eventpostgres.New(db)
	orgs := eventpostgres.NewOrganizations(db)
	regs := registrationpostgres.New(db)

	identitySvc := identityservice.New(users, tokens, revocations, notifier, log, identitymetrics.New(), cfg.ClientURL)
	eventSvc := eventservice.New(events, orgs, regs, log)
	registrationSvc := registrationservice.New(regs, events, users, log, registrationmetrics.New())
	adminSvc := adminservice.New(users, events, regs, log)
	statsSvc := statsservice.New(events, users, regs)

	router := transporthttp.NewRouter(transporthttp.Handlers{
		Identity:      identityhandler.New(identitySvc, log),
		Events:        eventhandler.New(eventSvc, log),
		Registrations: registrationhandler.New(registrationSvc, log),
		Admin:         adminhandler.New(adminSvc, log),
		Stats:         statshandler.New(statsSvc),
	}, transporthttp.Deps{
		Tokens:         tokens,
		Revocations:    revocations,
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
		Health: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
	})

	server := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
