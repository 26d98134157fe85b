package main

import (
	"context"
	"time"

	"fishtopia_backend/internal/app"
	"fishtopia_backend/internal/auth"
	"fishtopia_backend/internal/config"
	"fishtopia_backend/internal/events"
	"fishtopia_backend/internal/listing"
	"fishtopia_backend/internal/platform/cache"
	"fishtopia_backend/internal/platform/database"
	platformes "fishtopia_backend/internal/platform/elasticsearch"
	"fishtopia_backend/internal/readmodel"
	"fishtopia_backend/internal/search"
	"fishtopia_backend/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultReindexBatchSize = 100

// provideDatabase opens the database and migrates every collection table.
func provideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { database.CloseGORMDB(db, logger) }
	if err := database.AutoMigrate(db, app.Models()...); err != nil {
		cleanup()
		return nil, nil, err
	}
	return db, cleanup, nil
}

func provideEventBus(cfg *config.Config, logger *zap.Logger) (events.Bus, func(), error) {
	bus, err := events.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return bus, func() {
		if err := bus.Close(); err != nil {
			logger.Warn("Error closing change feed", zap.Error(err))
		}
	}, nil
}

// provideSearchIndex connects to Elasticsearch and makes sure both indexes exist.
// A missing index is logged rather than fatal so the API still starts.
func provideSearchIndex(cfg *config.Config, logger *zap.Logger) (search.Index, error) {
	client, err := platformes.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := platformes.EnsureIndexes(ctx, client, logger); err != nil {
		logger.Error("Failed to create Elasticsearch indexes", zap.Error(err))
	}
	return search.NewElasticIndex(client, cfg.ElasticsearchRefresh, logger), nil
}

func provideOwnerResolver(cfg *config.Config, users *user.ServiceImplementation, c cache.Cache, logger *zap.Logger) *readmodel.OwnerResolver {
	return readmodel.NewOwnerResolver(users, c, cfg.ProfileCacheTTL, cfg.DefaultOwnerName, cfg.DefaultAvatarURL, logger)
}

// provideRevocationList stores sign-outs in the shared cache, so with the
// redis backend every replica refuses revoked tokens.
func provideRevocationList(c cache.Cache) auth.RevocationList {
	return auth.NewCacheRevocationList(c)
}

func provideReindexer(index search.Index, listings listing.Repository, users user.Repository, logger *zap.Logger) *search.Reindexer {
	return app.NewReindexer(index, listings, users, defaultReindexBatchSize, logger)
}
