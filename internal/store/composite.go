package store

import (
	"context"

	"github.com/goliatone/go-cms-translate/internal/tracker"
	"github.com/goliatone/go-cms-translate/pkg/interfaces"
)

// Backend identifies which Composite member answered a call.
type Backend string

const (
	BackendCMS  Backend = "cms"
	BackendFile Backend = "file"
)

// Outcome reports which backend served a Composite call.
type Outcome struct {
	Backend Backend
}

// Composite wraps a primary (CMS-backed) and fallback (file-backed) Store,
// trying primary first and falling back transparently on any primary error.
// Once a primary write succeeds again, primary is authoritative
// again -- Composite carries no sticky failover state between calls.
type Composite struct {
	primary  Store
	fallback Store
	logger   interfaces.Logger
}

// NewComposite builds a Composite. logger may be nil.
func NewComposite(primary, fallback Store, logger interfaces.Logger) *Composite {
	return &Composite{primary: primary, fallback: fallback, logger: logger}
}

func (c *Composite) logOutcome(op string, backend Backend, err error) {
	if c.logger == nil {
		return
	}
	if err != nil {
		c.logger.Warn("store: operation failed on both backends", "op", op, "backend", string(backend), "error", err)
		return
	}
	c.logger.Debug("store: operation served", "op", op, "backend", string(backend))
}

func (c *Composite) Store(ctx context.Context, rel Relationship) (Outcome, error) {
	if err := c.primary.Store(ctx, rel); err == nil {
		c.logOutcome("Store", BackendCMS, nil)
		return Outcome{Backend: BackendCMS}, nil
	}
	err := c.fallback.Store(ctx, rel)
	c.logOutcome("Store", BackendFile, err)
	return Outcome{Backend: BackendFile}, err
}

func (c *Composite) Get(ctx context.Context, sourceID, targetID string) (*Relationship, bool, Outcome, error) {
	if rel, ok, err := c.primary.Get(ctx, sourceID, targetID); err == nil {
		c.logOutcome("Get", BackendCMS, nil)
		return rel, ok, Outcome{Backend: BackendCMS}, nil
	}
	rel, ok, err := c.fallback.Get(ctx, sourceID, targetID)
	c.logOutcome("Get", BackendFile, err)
	return rel, ok, Outcome{Backend: BackendFile}, err
}

func (c *Composite) StoreDeepMap(ctx context.Context, sourceID, targetID string, tree *tracker.ReferenceTree) (Outcome, error) {
	if err := c.primary.StoreDeepMap(ctx, sourceID, targetID, tree); err == nil {
		c.logOutcome("StoreDeepMap", BackendCMS, nil)
		return Outcome{Backend: BackendCMS}, nil
	}
	err := c.fallback.StoreDeepMap(ctx, sourceID, targetID, tree)
	c.logOutcome("StoreDeepMap", BackendFile, err)
	return Outcome{Backend: BackendFile}, err
}

func (c *Composite) GetDeepMap(ctx context.Context, sourceID, targetID string) (*tracker.ReferenceTree, bool, Outcome, error) {
	if tree, ok, err := c.primary.GetDeepMap(ctx, sourceID, targetID); err == nil {
		c.logOutcome("GetDeepMap", BackendCMS, nil)
		return tree, ok, Outcome{Backend: BackendCMS}, nil
	}
	tree, ok, err := c.fallback.GetDeepMap(ctx, sourceID, targetID)
	c.logOutcome("GetDeepMap", BackendFile, err)
	return tree, ok, Outcome{Backend: BackendFile}, err
}

func (c *Composite) StoreBackup(ctx context.Context, sourceID, targetID string, backup BackupData) (Outcome, error) {
	if err := c.primary.StoreBackup(ctx, sourceID, targetID, backup); err == nil {
		c.logOutcome("StoreBackup", BackendCMS, nil)
		return Outcome{Backend: BackendCMS}, nil
	}
	err := c.fallback.StoreBackup(ctx, sourceID, targetID, backup)
	c.logOutcome("StoreBackup", BackendFile, err)
	return Outcome{Backend: BackendFile}, err
}

func (c *Composite) Delete(ctx context.Context, sourceID, targetID string) (bool, Outcome, error) {
	if deleted, err := c.primary.Delete(ctx, sourceID, targetID); err == nil {
		c.logOutcome("Delete", BackendCMS, nil)
		return deleted, Outcome{Backend: BackendCMS}, nil
	}
	deleted, err := c.fallback.Delete(ctx, sourceID, targetID)
	c.logOutcome("Delete", BackendFile, err)
	return deleted, Outcome{Backend: BackendFile}, err
}

func (c *Composite) ListBySource(ctx context.Context, sourceID string) ([]Relationship, Outcome, error) {
	if rels, err := c.primary.ListBySource(ctx, sourceID); err == nil {
		c.logOutcome("ListBySource", BackendCMS, nil)
		return rels, Outcome{Backend: BackendCMS}, nil
	}
	rels, err := c.fallback.ListBySource(ctx, sourceID)
	c.logOutcome("ListBySource", BackendFile, err)
	return rels, Outcome{Backend: BackendFile}, err
}
