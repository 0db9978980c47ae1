package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/config"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/database"
	"github.com/xavierca1/ligue-crm/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/infra/mail"
	"github.com/xavierca1/ligue-crm/internal/infra/memstore"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
	"github.com/xavierca1/ligue-crm/internal/infra/worker"
	"github.com/xavierca1/ligue-crm/internal/logger"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type leadStore interface {
	entity.LeadRepositoryInterface
	worker.OwnerLister
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Record Store
	var (
		store leadStore
		db    *sql.DB
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		store = memstore.NewLeadRepository()
	default:
		var err error
		db, err = database.NewDBConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.DBMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
		}
		store = database.NewLeadRepository(db)
	}

	// 2. Lead events (optional)
	var (
		events usecase.EventPublisher
		rmq    *queue.RabbitMQ
	)
	if cfg.EventsEnabled() {
		var err error
		rmq, err = queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer rmq.Close()
		events = queue.NewProducer(rmq.Ch)

		if cfg.MailEnabled() {
			sender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom, cfg.NotifyEmail)
			consumer := queue.NewWorker(rmq.Ch, sender, log.Named("queue"))
			go func() {
				if err := consumer.Start(ctx, queue.QueueName); err != nil {
					log.Error("lead event worker stopped", zap.Error(err))
				}
			}()
		}

		scanner := worker.NewStuckLeadsWorker(store, events, cfg.StuckScanInterval, log.Named("stuck"))
		go scanner.Start(ctx)
	}

	// 3. Use cases
	sessions := usecase.NewImportSessionStore(cfg.ImportSessionTTL)
	go sessions.Run(ctx, time.Minute)

	boards := usecase.NewBoardRegistry(store, events, log.Named("board"))
	importer := usecase.NewImportLeadsUseCase(store, events, log.Named("import"))

	// 4. Handlers
	leadHandler := handlers.NewLeadHandler(
		usecase.NewListLeadsUseCase(store, log),
		usecase.NewCreateLeadUseCase(store, log),
		usecase.NewUpdateLeadUseCase(store, log),
		usecase.NewDeleteLeadUseCase(store, log),
		usecase.NewSeedSamplesUseCase(store, log),
		boards,
		log,
	)

	health := handlers.NewHealthHandler(nil, nil)
	if db != nil {
		health.DB = db
	}
	if rmq != nil {
		health.RabbitMQ = rmq.Conn
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		JWTSecret:     cfg.JWTSecret,
		CORSOrigins:   cfg.CORSOrigins,
		ImportLimiter: middleware.PerMinute(cfg.ImportRatePerMinute, log),
		Logger:        log.Named("http"),
		Leads:         leadHandler,
		Board:         handlers.NewBoardHandler(boards, log),
		Dashboard:     handlers.NewDashboardHandler(usecase.NewGetDashboardUseCase(store, log), log),
		Imports:       handlers.NewImportHandler(sessions, importer, boards, cfg.ImportMaxBytes, log),
		Health:        health,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("ligue-crm listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
