package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/ticketnest/ticketnest/internal/account"
	"github.com/ticketnest/ticketnest/internal/config"
	"github.com/ticketnest/ticketnest/internal/event"
	"github.com/ticketnest/ticketnest/internal/httpapi"
	"github.com/ticketnest/ticketnest/internal/metrics"
	"github.com/ticketnest/ticketnest/internal/minting"
	"github.com/ticketnest/ticketnest/internal/storage"
	"github.com/ticketnest/ticketnest/internal/ticket"
	sharedauth "github.com/ticketnest/ticketnest/pkg/auth"
	"github.com/ticketnest/ticketnest/pkg/envconfig"
	"github.com/ticketnest/ticketnest/pkg/logging"
	sharedserver "github.com/ticketnest/ticketnest/pkg/server"
)

const serviceName = "ticketnest"

type repositories struct {
	accounts account.Repository
	events   event.Repository
	tickets  ticket.Repository
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	envErr := godotenv.Load()
	logger := logging.NewLogger(serviceName, envconfig.Get("LOG_LEVEL", "info"))
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("could not read .env file", slog.Any("error", envErr))
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	repos, cleanup, err := newRepositories(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("repository init error: %w", err))
	}
	defer cleanup()

	clock := event.NewSystemClock()
	ids := event.NewUUIDGenerator()
	minter := newMinter(cfg)
	counters := metrics.New()

	accountService := account.NewService(repos.accounts, clock)

	eventService, err := event.NewService(repos.events, minter, clock, ids, logger)
	if err != nil {
		panic(fmt.Errorf("event service init error: %w", err))
	}

	ticketOpts := []ticket.Option{ticket.WithMetrics(counters)}
	if cfg.Storage.QRBucket != "" {
		qrStore, err := storage.NewService(ctx, cfg.Storage.QRBucket)
		if err != nil {
			panic(fmt.Errorf("storage init error: %w", err))
		}
		defer qrStore.Close()
		ticketOpts = append(ticketOpts, ticket.WithQRStore(qrStore))
	}

	ticketService, err := ticket.NewService(repos.tickets, repos.events, accountService, minter, clock, ids, logger, ticketOpts...)
	if err != nil {
		panic(fmt.Errorf("ticket service init error: %w", err))
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}
	if cfg.AdminSecretKey == "" {
		logger.Warn("ADMIN_SECRET_KEY is not set; manual badge awards are disabled")
	}

	scheduler, err := event.StartStatusScheduler(ctx, eventService, cfg.Scheduler.Interval, cfg.Scheduler.EventDuration, logger)
	if err != nil {
		panic(fmt.Errorf("scheduler init error: %w", err))
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Error("scheduler shutdown failed", slog.Any("error", err))
		}
	}()

	router := sharedserver.NewRouter(serviceName, func(r chi.Router) {
		r.Handle("/metrics", counters.Handler())

		httpapi.RegisterRoutes(r, httpapi.Dependencies{
			Accounts:       accountService,
			Events:         eventService,
			Tickets:        ticketService,
			Metrics:        counters,
			AdminSecretKey: cfg.AdminSecretKey,
			Logger:         logger,
		}, sharedauth.Middleware(verifier))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newRepositories(ctx context.Context, cfg config.Config) (repositories, func(), error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		if cfg.Firestore.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firestore.EmulatorHost); err != nil {
				return repositories{}, nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
			}
		}

		client, err := firestore.NewClientWithDatabase(ctx, cfg.GCPProjectID, cfg.Firestore.Database)
		if err != nil {
			return repositories{}, nil, fmt.Errorf("firestore client: %w", err)
		}

		repos := repositories{
			accounts: account.NewFirestoreRepository(client),
			events:   event.NewFirestoreRepository(client),
			tickets:  ticket.NewFirestoreRepository(client),
		}
		cleanup := func() {
			_ = client.Close()
		}
		return repos, cleanup, nil
	default:
		repos := repositories{
			accounts: account.NewMemoryRepository(),
			events:   event.NewMemoryRepository(),
			tickets:  ticket.NewMemoryRepository(),
		}
		return repos, func() {}, nil
	}
}

func newMinter(cfg config.Config) minting.Minter {
	switch cfg.Minting.Kind {
	case config.MinterRelay:
		return minting.NewRelayClient(cfg.Minting.RelayURL, cfg.Minting.RelayKey)
	default:
		return minting.NewMock(time.Now().Unix() % 1_000_000)
	}
}
