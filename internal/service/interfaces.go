package service

import (
	"context"

	"sidetask/internal/domain"
)

// Store is the durable-store command surface the controller consumes.
// Every mutation returns the authoritative record; the store is the
// only writer of ids and timestamps.
type Store interface {
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, input domain.CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, id string, input domain.UpdateTaskInput) (*domain.Task, error)
	ToggleCompleted(ctx context.Context, id string) (*domain.Task, error)
	SetCycleCheck(ctx context.Context, id string, satisfied bool) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, ids []string) error
}

// LegacyMigrator is the store-side half of the one-shot migration.
type LegacyMigrator interface {
	MigrateLegacy(ctx context.Context, records []domain.LegacyTask) (*domain.MigrationResult, error)
}

// LegacySource is the deprecated storage location being migrated
// away from.
type LegacySource interface {
	Load() ([]domain.LegacyTask, error)
	Clear() error
}
