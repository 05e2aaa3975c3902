package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	repocache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-translate/internal/tracker"
)

// relationshipRecord is the bun row backing one persisted relationship. The
// full Relationship travels in the payload column; source/target/relationship
// ids are projected out so ListBySource and the identifier lookup stay
// indexed queries.
type relationshipRecord struct {
	bun.BaseModel `bun:"table:translation_relationships,alias:tr"`

	ID             uuid.UUID `bun:",pk,type:uuid" json:"id"`
	RelationshipID string    `bun:"relationship_id,notnull,unique" json:"relationship_id"`
	SourceEntryID  string    `bun:"source_entry_id,notnull" json:"source_entry_id"`
	TargetEntryID  string    `bun:"target_entry_id,notnull" json:"target_entry_id"`
	Payload        string    `bun:"payload,notnull" json:"payload"`
	CreatedAt      time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

func newRelationshipRepository(db *bun.DB) repository.Repository[*relationshipRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*relationshipRecord]{
		NewRecord: func() *relationshipRecord { return &relationshipRecord{} },
		GetID: func(r *relationshipRecord) uuid.UUID {
			return r.ID
		},
		SetID: func(r *relationshipRecord, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "relationship_id"
		},
		GetIdentifierValue: func(r *relationshipRecord) string {
			return r.RelationshipID
		},
	})
}

// BunStore is a database-backed Store usable in place of the file fallback
// when the deployment has a local SQLite (or Postgres) database: relationship
// history survives container restarts without a shared volume, and
// ListBySource is one indexed query instead of a directory scan.
type BunStore struct {
	db   *bun.DB
	repo repository.Repository[*relationshipRecord]
}

// NewBunStore builds a BunStore without caching.
func NewBunStore(db *bun.DB) *BunStore {
	return NewBunStoreWithCache(db, nil, nil)
}

// NewBunStoreWithCache builds a BunStore whose reads go through the
// repository cache when both a cache service and a key serializer are given.
func NewBunStoreWithCache(db *bun.DB, cacheService repocache.CacheService, keySerializer repocache.KeySerializer) *BunStore {
	base := newRelationshipRepository(db)
	if cacheService != nil && keySerializer != nil {
		base = repositorycache.New(base, cacheService, keySerializer)
	}
	return &BunStore{db: db, repo: base}
}

// Init creates the backing table when it does not exist yet.
func (s *BunStore) Init(ctx context.Context) error {
	if s.db == nil {
		return errors.New("store/bun: database not configured")
	}
	if _, err := s.db.NewCreateTable().Model((*relationshipRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("store/bun: create translation_relationships table: %w", err)
	}
	return nil
}

func encodeRelationship(rel Relationship) (string, error) {
	payload, err := json.Marshal(rel)
	if err != nil {
		return "", fmt.Errorf("store/bun: marshal relationship %q: %w", rel.ID(), err)
	}
	return string(payload), nil
}

func decodeRelationship(rec *relationshipRecord) (*Relationship, error) {
	var rel Relationship
	if err := json.Unmarshal([]byte(rec.Payload), &rel); err != nil {
		return nil, fmt.Errorf("store/bun: decode relationship %q: %w", rec.RelationshipID, err)
	}
	return &rel, nil
}

func (s *BunStore) getRecord(ctx context.Context, sourceID, targetID string) (*relationshipRecord, bool, error) {
	rec, err := s.repo.GetByIdentifier(ctx, RelationshipID(sourceID, targetID))
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store/bun: lookup relationship %q: %w", RelationshipID(sourceID, targetID), err)
	}
	return rec, true, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

func (s *BunStore) Store(ctx context.Context, rel Relationship) error {
	existing, ok, err := s.getRecord(ctx, rel.SourceEntryID, rel.TargetEntryID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if ok {
		// Upsert preserves createdAt and any backups the caller did not carry.
		prior, err := decodeRelationship(existing)
		if err == nil {
			if rel.Metadata.CreatedAt.IsZero() {
				rel.Metadata.CreatedAt = prior.Metadata.CreatedAt
			}
			if rel.DeepReferenceMap == nil {
				rel.DeepReferenceMap = prior.DeepReferenceMap
			}
			if len(rel.BackupData) == 0 {
				rel.BackupData = prior.BackupData
			}
		}
		payload, err := encodeRelationship(rel)
		if err != nil {
			return err
		}
		existing.Payload = payload
		existing.UpdatedAt = now
		if _, err := s.repo.Update(ctx, existing); err != nil {
			return fmt.Errorf("store/bun: update relationship %q: %w", rel.ID(), err)
		}
		return nil
	}

	if rel.Metadata.CreatedAt.IsZero() {
		rel.Metadata.CreatedAt = now
	}
	payload, err := encodeRelationship(rel)
	if err != nil {
		return err
	}
	rec := &relationshipRecord{
		ID:             uuid.New(),
		RelationshipID: rel.ID(),
		SourceEntryID:  rel.SourceEntryID,
		TargetEntryID:  rel.TargetEntryID,
		Payload:        payload,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("store/bun: create relationship %q: %w", rel.ID(), err)
	}
	return nil
}

func (s *BunStore) Get(ctx context.Context, sourceID, targetID string) (*Relationship, bool, error) {
	rec, ok, err := s.getRecord(ctx, sourceID, targetID)
	if err != nil || !ok {
		return nil, false, err
	}
	rel, err := decodeRelationship(rec)
	if err != nil {
		return nil, false, err
	}
	return rel, true, nil
}

// mutate applies fn to the stored relationship (seeding a bare one when the
// pair is unknown) and writes the result back in a single row update.
func (s *BunStore) mutate(ctx context.Context, sourceID, targetID string, fn func(*Relationship)) error {
	rel, ok, err := s.Get(ctx, sourceID, targetID)
	if err != nil {
		return err
	}
	if !ok {
		rel = &Relationship{SourceEntryID: sourceID, TargetEntryID: targetID}
	}
	fn(rel)
	return s.Store(ctx, *rel)
}

func (s *BunStore) StoreDeepMap(ctx context.Context, sourceID, targetID string, tree *tracker.ReferenceTree) error {
	return s.mutate(ctx, sourceID, targetID, func(rel *Relationship) {
		rel.DeepReferenceMap = tree
	})
}

func (s *BunStore) GetDeepMap(ctx context.Context, sourceID, targetID string) (*tracker.ReferenceTree, bool, error) {
	rel, ok, err := s.Get(ctx, sourceID, targetID)
	if err != nil || !ok {
		return nil, false, err
	}
	if rel.DeepReferenceMap == nil {
		return nil, false, nil
	}
	return rel.DeepReferenceMap, true, nil
}

func (s *BunStore) StoreBackup(ctx context.Context, sourceID, targetID string, backup BackupData) error {
	return s.mutate(ctx, sourceID, targetID, func(rel *Relationship) {
		rel.BackupData = append(rel.BackupData, backup)
	})
}

func (s *BunStore) Delete(ctx context.Context, sourceID, targetID string) (bool, error) {
	rec, ok, err := s.getRecord(ctx, sourceID, targetID)
	if err != nil || !ok {
		return false, err
	}
	if err := s.repo.Delete(ctx, rec); err != nil {
		return false, fmt.Errorf("store/bun: delete relationship %q: %w", rec.RelationshipID, err)
	}
	return true, nil
}

func (s *BunStore) ListBySource(ctx context.Context, sourceID string) ([]Relationship, error) {
	records, _, err := s.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.source_entry_id = ?", sourceID).Order("relationship_id ASC")
	}))
	if err != nil {
		return nil, fmt.Errorf("store/bun: list relationships for source %q: %w", sourceID, err)
	}

	out := make([]Relationship, 0, len(records))
	for _, rec := range records {
		rel, err := decodeRelationship(rec)
		if err != nil {
			continue
		}
		out = append(out, *rel)
	}
	return out, nil
}
