package store

import (
	"context"

	"github.com/goliatone/go-cms-translate/internal/tracker"
)

// Store is the Relationship Store port.
type Store interface {
	Store(ctx context.Context, rel Relationship) error
	Get(ctx context.Context, sourceID, targetID string) (*Relationship, bool, error)
	StoreDeepMap(ctx context.Context, sourceID, targetID string, tree *tracker.ReferenceTree) error
	GetDeepMap(ctx context.Context, sourceID, targetID string) (*tracker.ReferenceTree, bool, error)
	StoreBackup(ctx context.Context, sourceID, targetID string, backup BackupData) error
	Delete(ctx context.Context, sourceID, targetID string) (bool, error)
	ListBySource(ctx context.Context, sourceID string) ([]Relationship, error)
}
