// Command server runs the logbook RPC service.
//
// @title                       Logbook API
// @version                     1.0
// @description                 Multi-tenant logbook: accounts, owner-scoped entries and image attachments behind a single RPC endpoint.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/logbook/logbook-service/internal/api"
	"github.com/logbook/logbook-service/internal/core/ports"
	"github.com/logbook/logbook-service/internal/core/service"
	s3store "github.com/logbook/logbook-service/internal/infrastructure/blob/s3"
	"github.com/logbook/logbook-service/internal/infrastructure/config"
	mongodb "github.com/logbook/logbook-service/internal/infrastructure/db/mongo"
	redisdb "github.com/logbook/logbook-service/internal/infrastructure/db/redis"
	"github.com/logbook/logbook-service/internal/infrastructure/http/handlers"
	"github.com/logbook/logbook-service/internal/infrastructure/memory"
	"github.com/logbook/logbook-service/internal/infrastructure/queue"
	"github.com/logbook/logbook-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// storage is the set of persistence and coordination backends in use.
type storage struct {
	accounts  ports.AccountRepository
	entries   ports.EntryRepository
	sequence  ports.SequenceAllocator
	claims    ports.Claimer
	locker    ports.RecordLocker
	readiness map[string]handlers.Checker
	closers   []func(context.Context) error
}

func (s *storage) close(ctx context.Context, log zerolog.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("failed to close backend")
		}
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "logbook",
	})

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close(context.Background(), log)

	blobs, err := openBlobStore(ctx, cfg, store.readiness)
	if err != nil {
		return err
	}

	// Trash workers get their own context so they can drain after the
	// server stops taking requests.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var trasher ports.BlobTrasher = service.NewDirectTrasher(blobs, logger.Component("attachments"))
	if cfg.Trash.Async {
		q := queue.NewTrashQueue(cfg.Trash.Workers, trasher, logger.Component("trash_queue"))
		q.Start(workerCtx)
		defer q.Close()
		trasher = q
	}

	tokens := service.NewTokenService(store.accounts, cfg.JWTSecret, cfg.TokenTTL)
	accounts := service.NewAccountService(store.accounts, store.claims, tokens, logger.Component("accounts"))
	attachments := service.NewAttachmentService(blobs, trasher, logger.Component("attachments"))
	entries := service.NewEntryService(store.entries, store.sequence, store.locker, attachments, logger.Component("entries"))

	deps := api.Dependencies{
		Accounts:       accounts,
		Entries:        entries,
		Tokens:         tokens,
		Readiness:      store.readiness,
		RequestTimeout: cfg.RequestTimeout,
		Log:            logger.Component("http"),
	}
	if reader, ok := blobs.(handlers.BlobReader); ok {
		deps.Blobs = reader
	}
	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("storage", cfg.StorageBackend).
			Str("blobs", cfg.BlobBackend).
			Bool("async_trash", cfg.Trash.Async).
			Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	s := &storage{readiness: make(map[string]handlers.Checker)}

	if cfg.StorageBackend == config.BackendMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		s.accounts = memory.NewAccountRepository()
		s.entries = memory.NewEntryRepository()
		s.sequence = memory.NewSequence()
		s.claims = memory.NewClaims()
		s.locker = memory.NewEntryLocker(cfg.Lock.Wait)
		return s, nil
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, client.Disconnect)

	accounts := mongodb.NewAccountRepository(db)
	entries := mongodb.NewEntryRepository(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		s.close(ctx, log)
		return nil, fmt.Errorf("account indexes: %w", err)
	}
	if err := entries.EnsureIndexes(ctx); err != nil {
		s.close(ctx, log)
		return nil, fmt.Errorf("entry indexes: %w", err)
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		s.close(ctx, log)
		return nil, err
	}
	s.closers = append(s.closers, func(context.Context) error { return rdb.Close() })

	s.accounts = accounts
	s.entries = entries
	s.sequence = mongodb.NewCounterSequence(db)
	s.claims = mongodb.NewClaimStore(db)
	s.locker = redisdb.NewEntryLocker(rdb, cfg.Lock.TTL, cfg.Lock.Wait, logger.Component("lock"))
	s.readiness["mongodb"] = func(ctx context.Context) error { return mongodb.Ping(ctx, db) }
	s.readiness["redis"] = func(ctx context.Context) error { return redisdb.Ping(ctx, rdb) }
	return s, nil
}

func openBlobStore(ctx context.Context, cfg *config.Config, readiness map[string]handlers.Checker) (ports.BlobStore, error) {
	if cfg.BlobBackend == config.BackendMemory {
		return memory.NewBlobStore("http://localhost:" + cfg.Port + "/blobs"), nil
	}

	s3cfg := s3store.Config{
		Bucket:        cfg.S3.Bucket,
		Region:        cfg.S3.Region,
		Endpoint:      cfg.S3.Endpoint,
		AccessKey:     cfg.S3.AccessKey,
		SecretKey:     cfg.S3.SecretKey,
		PublicBaseURL: cfg.S3.PublicBaseURL,
		TrashPrefix:   cfg.S3.TrashPrefix,
	}
	client, err := s3store.NewClient(ctx, s3cfg)
	if err != nil {
		return nil, err
	}

	store := s3store.NewStore(client, s3cfg)
	readiness["s3"] = store.Ping
	return store, nil
}
