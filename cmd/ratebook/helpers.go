package main

import (
	"context"

	"github.com/buildrate/ratebook/internal/common"
	"github.com/buildrate/ratebook/internal/config"
	"github.com/buildrate/ratebook/internal/service"
	"github.com/buildrate/ratebook/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(config.DBPath())
	if err != nil {
		return nil, common.NewUserError("failed to open the estimate database", err)
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, common.NewUserError("failed to migrate the estimate database", err)
	}

	return store, nil
}
