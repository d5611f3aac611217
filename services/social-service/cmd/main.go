package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"google.golang.org/grpc"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/config"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/event"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/handler"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/usecase"
	"github.com/vasapolrittideah/jobfeed-api/shared/auth"
	"github.com/vasapolrittideah/jobfeed-api/shared/discovery"
	"github.com/vasapolrittideah/jobfeed-api/shared/logger"
	"github.com/vasapolrittideah/jobfeed-api/shared/mailer"
	"github.com/vasapolrittideah/jobfeed-api/shared/metrics"
	"github.com/vasapolrittideah/jobfeed-api/shared/provider"
	"github.com/vasapolrittideah/jobfeed-api/shared/ratelimit"
	"github.com/vasapolrittideah/jobfeed-api/shared/security"
	"github.com/vasapolrittideah/jobfeed-api/shared/utilities"
	"github.com/vasapolrittideah/jobfeed-api/shared/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, cfg.ServiceName)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("social service stopped with error")
	}
}

func run(cfg *config.SocialServiceConfig, log *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(cfg.Mongo.ConnectTimeout))
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	db := client.Database(cfg.Mongo.Database)

	userRepo := repository.NewUserMongoRepository(ctx, log, db)
	personRepo := repository.NewPersonMongoRepository(ctx, log, db)
	organizationRepo := repository.NewOrganizationMongoRepository(ctx, log, db)
	tokenRepo := repository.NewTokenMongoRepository(ctx, log, db)
	postRepo := repository.NewPostMongoRepository(ctx, log, db)
	commentRepo := repository.NewCommentMongoRepository(ctx, log, db)
	likeRepo := repository.NewLikeMongoRepository(ctx, log, db)
	shareRepo := repository.NewShareMongoRepository(db)
	searchIndexRepo := repository.NewSearchIndexMongoRepository(ctx, log, db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	bus := event.NewBus(cfg.Events.BufferSize, log, collector)
	event.NewIndexer(searchIndexRepo, log).Register(bus)
	// Queued events are still indexed after a shutdown signal.
	bus.Start(context.WithoutCancel(ctx))

	tokens := auth.NewTokenIssuer(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.ExpiresIn)
	sanitizer := security.NewContentSanitizer()

	v, err := validation.New()
	if err != nil {
		return fmt.Errorf("failed to create validator: %w", err)
	}

	if !cfg.SMTP.Enabled() {
		log.Warn().Msg("SMTP is not configured, verification mails will only be logged")
	}
	mail := mailer.NewMailer(mailer.Config{
		Host:            cfg.SMTP.Host,
		Port:            cfg.SMTP.Port,
		Username:        cfg.SMTP.Username,
		Password:        cfg.SMTP.Password,
		From:            cfg.SMTP.From,
		VerificationURL: cfg.VerificationURL(),
	}, log)

	authUsecase := usecase.NewAuthUsecase(usecase.AuthDeps{
		UserRepo:         userRepo,
		PersonRepo:       personRepo,
		OrganizationRepo: organizationRepo,
		TokenRepo:        tokenRepo,
		Hasher:           security.PasswordHasher{},
		Tokens:           tokens,
		Mailer:           mail,
		Events:           bus,
		Logger:           log,
	})
	postUsecase := usecase.NewPostUsecase(postRepo, likeRepo, shareRepo, sanitizer, bus)
	commentUsecase := usecase.NewCommentUsecase(commentRepo, postUsecase, sanitizer)
	feedUsecase := usecase.NewFeedUsecase(postRepo, likeRepo, collector)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Rate:  ratelimit.PerMinute(cfg.RateLimit.AuthPerMinute),
		Burst: cfg.RateLimit.AuthBurst,
	}, log)
	defer limiter.Stop()

	deps := handler.RouterDeps{
		Logger:      log,
		Validator:   v,
		Tokens:      tokens,
		Auth:        authUsecase,
		Feed:        feedUsecase,
		Posts:       postUsecase,
		Comments:    commentUsecase,
		FrontendURL: cfg.FrontendURL,
		AuthLimiter: limiter,
		Metrics:     collector,
		Gatherer:    registry,
		HealthCheck: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
	}
	if cfg.Google.Enabled() {
		deps.OAuth = provider.NewGoogleOAuthProvider(provider.GoogleOAuthConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
	} else {
		log.Warn().Msg("Google sign-in is disabled")
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      handler.NewRouter(deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}
	grpcServer := grpc.NewServer()
	healthServer := utilities.RegisterHealthServer(grpcServer, cfg.ServiceName)

	errCh := make(chan error, 2)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	go func() {
		log.Info().Int("port", cfg.GRPC.Port).Msg("gRPC health server listening")
		if err := grpcServer.Serve(grpcListener); err != nil {
			errCh <- fmt.Errorf("grpc server failed: %w", err)
		}
	}()

	var registryClient *discovery.ConsulRegistry
	registration := discovery.Registration{
		Name:     cfg.ServiceName,
		Host:     cfg.Consul.AdvertiseHost,
		HTTPPort: cfg.HTTP.Port,
		GRPCPort: cfg.GRPC.Port,
		Tags:     []string{"http", "social"},
	}
	if cfg.Consul.Address != "" {
		registryClient, err = discovery.NewConsulRegistry(cfg.Consul.Address, log)
		if err != nil {
			return err
		}
		if err := registryClient.Register(registration); err != nil {
			return err
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down social service")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelShutdown()

	if registryClient != nil {
		if err := registryClient.Deregister(registration); err != nil {
			log.Error().Err(err).Msg("failed to deregister from consul")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down HTTP server")
	}

	healthServer.Shutdown()
	grpcServer.GracefulStop()

	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("event bus did not drain")
	}

	log.Info().Msg("social service stopped")
	return runErr
}
