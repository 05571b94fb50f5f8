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
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"honeypot-lab/internal/api"
	"honeypot-lab/internal/api/handlers"
	"honeypot-lab/internal/config"
	"honeypot-lab/internal/domain/services"
	"honeypot-lab/internal/grpc/health"
	"honeypot-lab/internal/infrastructure/cache"
	"honeypot-lab/internal/infrastructure/database"
	"honeypot-lab/internal/infrastructure/database/repository"
	"honeypot-lab/internal/infrastructure/store"
	"honeypot-lab/internal/streaming"
	"honeypot-lab/pkg/logger"
)

const janitorInterval = time.Minute

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
		Service:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Str("store", cfg.Store.Driver).
		Bool("llm", cfg.LLM.Enabled).
		Msg("starting honeypot")

	if cfg.Auth.APIKey == "" {
		log.Warn().Msg("auth.api_key is empty, every honeypot request will be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	conversations, err := initStore(ctx, cfg, db, redisCache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize conversation store")
	}

	// Streaming
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing with local events only")
			natsPublisher = nil
		}
	}

	var broker streaming.Publisher
	if natsPublisher != nil {
		broker = natsPublisher
	}
	eventBus := streaming.NewEventBus(broker, log)
	defer eventBus.Close()
	log.Info().Bool("nats_enabled", broker != nil).Msg("event bus initialized")

	wsHub := streaming.NewWebSocketHub(log)
	go wsHub.Run(ctx)

	eventPublisher := streaming.NewEventBusPublisher(eventBus, wsHub)

	honeypot, err := services.NewHoneypotServiceFromConfig(cfg, conversations, eventPublisher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize honeypot service")
	}

	// Dependency health, shared by /ready and the gRPC health service
	deps := map[string]health.Pinger{}
	if db != nil {
		deps["postgres"] = db
	}
	if redisCache != nil {
		deps["redis"] = redisCache
	}
	checker := health.NewChecker(deps, health.DefaultInterval, log)
	go checker.Run(ctx)

	h := handlers.NewHandlers(handlers.Dependencies{
		Honeypot:     honeypot,
		Readiness:    checker,
		WSHub:        wsHub,
		EventBus:     eventBus,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Version:      cfg.App.Version,
		Logger:       log,
	})

	router := api.NewRouter(*cfg, h, redisCache, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	var grpcServer *grpc.Server
	if cfg.Server.GRPCPort > 0 {
		grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create gRPC listener")
		}

		grpcServer = grpc.NewServer()
		checker.Register(grpcServer)

		go func() {
			log.Info().Str("addr", grpcListener.Addr().String()).Msg("starting gRPC server")
			if err := grpcServer.Serve(grpcListener); err != nil {
				log.Fatal().Err(err).Msg("gRPC server failed")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure connects to the enabled backing services. A backend the
// selected store depends on must connect; anything else only logs a warning.
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	var (
		db         *database.PostgresDB
		redisCache *cache.RedisCache
		err        error
	)

	if cfg.Database.Enabled {
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			if cfg.Store.Driver == config.StoreDriverPostgres {
				return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
			}
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
			db = nil
		}
	}

	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			if cfg.Store.Driver == config.StoreDriverRedis {
				return db, nil, fmt.Errorf("failed to connect to Redis: %w", err)
			}
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
			redisCache = nil
		}
	}

	return db, redisCache, nil
}

// initStore builds the configured conversation store. The PostgreSQL driver
// gets a purge janitor; the memory store reaps expired entries itself.
func initStore(ctx context.Context, cfg *config.Config, db *database.PostgresDB, redisCache *cache.RedisCache, log *logger.Logger) (store.ConversationStore, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		log.Info().Dur("ttl", cfg.Store.TTL).Msg("using Redis conversation store")
		return store.NewRedisStore(redisCache, cfg.Store.TTL, log), nil

	case config.StoreDriverPostgres:
		repo := repository.NewConversationRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		s := store.NewPostgresStore(repo, cfg.Store.TTL, log)
		go s.Run(ctx, janitorInterval)
		log.Info().Dur("ttl", cfg.Store.TTL).Msg("using PostgreSQL conversation store")
		return s, nil

	default:
		s := store.NewMemoryStore(store.MemoryStoreConfig{
			TTL:        cfg.Store.TTL,
			MaxEntries: cfg.Store.MaxEntries,
		}, log)
		log.Info().
			Dur("ttl", cfg.Store.TTL).
			Int("max_entries", cfg.Store.MaxEntries).
			Msg("using in-memory conversation store")
		return s, nil
	}
}
