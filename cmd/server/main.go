// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fishtopia_backend/internal/app"
	"fishtopia_backend/internal/config"
	"fishtopia_backend/internal/listing"
	platformes "fishtopia_backend/internal/platform/elasticsearch"
	"fishtopia_backend/internal/platform/logger"
	"fishtopia_backend/internal/search"
	"fishtopia_backend/internal/user"

	"go.uber.org/zap"
)

func main() {
	reindexCmd := flag.NewFlagSet("reindex", flag.ExitOnError)
	batchSize := reindexCmd.Int("batch-size", defaultReindexBatchSize, "Batch size for reindexing listings and users")
	esRefresh := reindexCmd.String("es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")

	if len(os.Args) > 1 && os.Args[1] == "reindex" {
		if err := reindexCmd.Parse(os.Args[2:]); err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		runReindex(*batchSize, *esRefresh)
		return
	}

	// Default: Start server
	startServer()
}

// runReindex rebuilds both search indexes from the database and exits.
func runReindex(batchSize int, esRefresh string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for reindex: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for reindex: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	db, cleanup, err := provideDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize database for reindex", zap.Error(err))
	}
	defer cleanup()

	esClient, err := platformes.NewClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Elasticsearch client for reindex", zap.Error(err))
	}
	ctx := context.Background()
	if err := platformes.EnsureIndexes(ctx, esClient, appLogger); err != nil {
		appLogger.Fatal("Failed to create/verify Elasticsearch indexes before reindex", zap.Error(err))
	}

	index := search.NewElasticIndex(esClient, esRefresh, appLogger)
	reindexer := app.NewReindexer(index, listing.NewGORMRepository(db), user.NewGORMRepository(db), batchSize, appLogger)

	stats, err := reindexer.ReindexAll(ctx)
	if err != nil {
		appLogger.Fatal("Search reindex failed", zap.Error(err))
	}
	appLogger.Info("Search reindex completed successfully.",
		zap.Any("synced", stats.Synced),
		zap.Any("failed", stats.Failed),
	)
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}
