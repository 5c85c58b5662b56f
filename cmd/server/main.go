package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"basket/internal/activity"
	authhandler "basket/internal/auth/handler"
	authservice "basket/internal/auth/service"
	authstore "basket/internal/auth/store"
	"basket/internal/auth/store/revocation"
	"basket/internal/auth/store/user"
	"basket/internal/jwttoken"
	"basket/internal/platform/config"
	"basket/internal/platform/httpserver"
	"basket/internal/platform/logger"
	"basket/internal/platform/metrics"
	platformredis "basket/internal/platform/redis"
	shoppinghandler "basket/internal/shopping/handler"
	shoppingmetrics "basket/internal/shopping/metrics"
	shoppingservice "basket/internal/shopping/service"
	shoppingstore "basket/internal/shopping/store"
	httptransport "basket/internal/transport/http"
	dErrors "basket/pkg/domain-errors"
)

// main wires storage, services and transport, then runs the HTTP server until
// a shutdown signal. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		users authstore.UserStore
		shop  shoppingstore.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		users = user.NewPostgres(db)
		shop = shoppingstore.NewPostgres(db)
		log.Info("using postgres storage")
	} else {
		users = user.NewInMemory()
		shop = shoppingstore.NewInMemory()
		log.Info("using in-memory storage")
	}

	// Token revocation list: Redis when configured.
	var revocations authstore.TokenRevocationList
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocations = revocation.NewRedisTRL(redisClient.Client)
		log.Info("using redis token revocation list")
	} else {
		revocations = revocation.NewInMemoryTRL()
	}

	// Activity events: Kafka when configured, structured log otherwise.
	var publisher activity.Publisher = activity.NewLogPublisher(log)
	if cfg.KafkaBrokers != "" {
		kafkaPublisher, err := activity.NewKafkaPublisher(cfg.KafkaBrokers, "", log)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafkaPublisher.Close(flushCtx); err != nil {
				log.Warn("kafka flush on shutdown failed", "error", err)
			}
		}()
		publisher = kafkaPublisher
		log.Info("publishing activity events to kafka", "brokers", cfg.KafkaBrokers)
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "basket", "basket-api")
	validator := jwttoken.NewAdapter(tokens)

	authSvc := authservice.New(users, revocations, tokens, cfg.TokenTTL, log)
	if err := seedUsers(ctx, cfg, authSvc, log); err != nil {
		return err
	}

	shoppingSvc := shoppingservice.New(shop, authSvc, publisher,
		shoppingservice.WithLogger(log),
		shoppingservice.WithMetrics(shoppingmetrics.New()),
		shoppingservice.WithPreviewCap(cfg.PreviewCap),
	)

	var health func(ctx context.Context) error
	if redisClient != nil {
		health = redisClient.Health
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:        authhandler.New(authSvc, validator, revocations, log),
		Shopping:    shoppinghandler.New(shoppingSvc, cfg.PageSize, log),
		Validator:   validator,
		Revocations: revocations,
		Metrics:     metrics.New(),
		Logger:      log,
		Health:      health,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting basket server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// seedUsers loads the optional seed file and creates any users that do not
// exist yet. Re-running against an already seeded store is harmless.
func seedUsers(ctx context.Context, cfg config.Server, authSvc *authservice.Service, log *slog.Logger) error {
	if cfg.SeedUsersPath == "" {
		return nil
	}
	seeds, err := authstore.LoadSeedUsers(cfg.SeedUsersPath)
	if err != nil {
		return err
	}
	for _, seed := range seeds {
		_, err := authSvc.CreateUser(ctx, seed.Username, seed.Email, seed.Password, seed.Admin)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
				log.Debug("seed user already present", "username", seed.Username)
				continue
			}
			return err
		}
		log.Info("seeded user", "username", seed.Username)
	}
	return nil
}
