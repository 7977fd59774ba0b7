package store

import (
	"context"

	"kryreport/internal/store/model"
)

// Store is the entry point for database access.
type Store interface {
	// Snapshots returns the snapshot repository.
	Snapshots() SnapshotRepository
	// Close closes the store connection.
	Close() error
}

// SnapshotRepository keeps the last delivered snapshot per shop.
// It is overwritten on every change; there is no history.
type SnapshotRepository interface {
	Save(ctx context.Context, snap *model.SnapshotModel) error
	FindByShop(ctx context.Context, shopID string) (*model.SnapshotModel, error)
}
