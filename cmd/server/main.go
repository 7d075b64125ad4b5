package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"spaces/internal/api"
	"spaces/internal/api/handlers"
	"spaces/internal/api/middleware"
	"spaces/internal/engine/avatars"
	"spaces/internal/engine/entitlements"
	"spaces/internal/engine/profiles"
	"spaces/internal/engine/spaces"
	"spaces/internal/pkg/logger"
	"spaces/internal/platform/audit"
	"spaces/internal/platform/auth"
	"spaces/internal/platform/config"
	"spaces/internal/platform/database"
	"spaces/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	migrate := flag.Bool("migrate", false, "Apply pending migrations before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging)

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret must be set")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	clock := clockwork.NewRealClock()

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(db)
	memberRepo := repositories.NewOrgMemberRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	checker := entitlements.NewChecker()
	spaceSvc := spaces.NewService(spaces.NewRepository(db), checker)
	profileSvc := profiles.NewService(profiles.NewRepository(db))
	imageClient := avatars.NewClient(cfg.Images)
	poller := avatars.NewPoller(imageClient, avatars.PollConfigFrom(cfg.Images), clock)
	auditLogger := audit.NewLogger(db)
	defer auditLogger.Wait()

	// Middleware
	metrics := middleware.NewMetrics()
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, clock)
	go rateLimiter.Run(ctx)

	deps := &api.Dependencies{
		HealthHandler:  handlers.NewHealthHandler(db),
		MetricsHandler: handlers.NewMetricsHandler(metrics),
		OrgHandler:     handlers.NewOrgHandler(checker),
		AuditHandler:   handlers.NewAuditHandler(auditLogger),
		SpaceHandler:   handlers.NewSpaceHandler(spaceSvc, auditLogger, metrics),
		StatusHandler:  handlers.NewStatusHandler(spaceSvc, auditLogger, metrics),
		ProfileHandler: handlers.NewProfileHandler(profileSvc, auditLogger, metrics),
		AvatarHandler:  handlers.NewAvatarHandler(imageClient, poller, auditLogger, metrics),
		AuthMiddleware: middleware.NewAuthMiddleware(tokenSvc),
		OrgMiddleware:  middleware.NewOrgMiddleware(orgRepo, memberRepo),
		RateLimiter:    rateLimiter,
		Metrics:        metrics,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewHandler(router, cfg.CORS, log.Logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
