// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/phishing-campaigns/internal/config"
	"github.com/unclebandit/phishing-campaigns/internal/controller"
	"github.com/unclebandit/phishing-campaigns/internal/db"
	"github.com/unclebandit/phishing-campaigns/internal/handler"
	"github.com/unclebandit/phishing-campaigns/internal/logger"
	"github.com/unclebandit/phishing-campaigns/internal/queue"
	"github.com/unclebandit/phishing-campaigns/internal/repository"
	"github.com/unclebandit/phishing-campaigns/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Fatal("Server stopped with error", zap.Error(err))
	}
	logg.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logg *zap.Logger) error {
	started := time.Now()

	campaignRepo, directory, closeStore, err := openStores(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, closePublisher, err := openPublisher(cfg, logg)
	if err != nil {
		return err
	}
	defer closePublisher()

	campaignService := &service.CampaignService{
		CampaignRepo:           campaignRepo,
		Directory:              directory,
		Publisher:              publisher,
		Logger:                 logg,
		DefaultMaxSharePerDept: cfg.DefaultMaxSharePerDept,
	}
	campaignController := &controller.CampaignController{CampaignService: campaignService, Logger: logg}
	campaignHandler := handler.NewCampaignHandler(campaignService, logg)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           controller.NewRouter(campaignController, campaignHandler, handler.NewHealthHandler(started), logg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("Server running", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("Shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config, logg *zap.Logger) (repository.CampaignRepositoryInterface, repository.UserDirectoryInterface, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		directory, err := repository.LoadMemoryUserDirectory(cfg.MemoryUsersFile)
		if err != nil {
			return nil, nil, nil, err
		}
		logg.Warn("Using in-memory store; data is lost on restart", zap.String("users_file", cfg.MemoryUsersFile))
		return repository.NewMemoryCampaignRepository(), directory, func() {}, nil
	}

	conn, err := db.Open(ctx, db.DSN(cfg), cfg.DBMaxOpenConns, logg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	closeDB := func(c *sql.DB) func() {
		return func() {
			if err := c.Close(); err != nil {
				logg.Warn("Failed to close database", zap.Error(err))
			}
		}
	}(conn)
	campaignRepo := &repository.CampaignRepository{DB: conn, GroupingLease: cfg.GroupingLockLease}
	return campaignRepo, &repository.UserDirectoryRepository{DB: conn}, closeDB, nil
}

// openPublisher dials RabbitMQ when AMQP_URL is set and otherwise keeps
// launch events in process.
func openPublisher(cfg *config.Config, logg *zap.Logger) (queue.Publisher, func(), error) {
	if cfg.AMQPURL != "" {
		p, err := queue.DialAMQP(cfg.AMQPURL, cfg.AMQPLaunchQueue, logg)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {
			if err := p.Close(); err != nil {
				logg.Warn("Failed to close RabbitMQ publisher", zap.Error(err))
			}
		}, nil
	}

	q := queue.NewInMemoryQueue(logg)
	if err := queue.StartLaunchEventSubscriber(q, logg); err != nil {
		return nil, nil, err
	}
	return q, func() { q.Close() }, nil
}
