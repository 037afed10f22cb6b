package service

import (
	"context"
	"fmt"
	"log/slog"

	"sidetask/internal/domain"
)

// MigrationCoordinator performs the one-shot transfer of legacy
// records into the durable store. It runs during startup, before the
// first task list read.
type MigrationCoordinator struct {
	source LegacySource
	store  LegacyMigrator
	logger *slog.Logger
}

func NewMigrationCoordinator(source LegacySource, store LegacyMigrator, logger *slog.Logger) *MigrationCoordinator {
	return &MigrationCoordinator{source: source, store: store, logger: logger}
}

// Run loads the legacy snapshot, hands it to the store, and clears
// the legacy source only when the store confirms the data is covered:
// freshly migrated rows, or a previous run already did the work. An
// ambiguous or failed migration leaves the source untouched.
func (mc *MigrationCoordinator) Run(ctx context.Context) (*domain.MigrationResult, error) {
	records, err := mc.source.Load()
	if err != nil {
		return nil, fmt.Errorf("load legacy records: %w", err)
	}

	result, err := mc.store.MigrateLegacy(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("migrate legacy records: %w", err)
	}

	mc.logger.Info("legacy migration",
		"migrated", result.MigratedCount,
		"already_migrated", result.AlreadyMigrated)

	if result.MigratedCount > 0 || result.AlreadyMigrated {
		if err := mc.source.Clear(); err != nil {
			// The store holds the data either way; a sticky legacy file
			// just means another clear attempt next launch.
			mc.logger.Warn("failed to clear legacy source", "error", err)
		}
	}

	return result, nil
}
