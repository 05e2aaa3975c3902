package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-cms-translate/internal/tracker"
)

// relationshipShape / treeShape discriminate the two JSON file kinds this
// store writes, so a reader can refuse to return one as the other even if a
// file ends up under the wrong name.
const (
	relationshipShape = "relationship"
	treeShape         = "tree"
)

type relationshipEnvelope struct {
	Shape        string       `json:"shape"`
	Relationship Relationship `json:"relationship"`
}

type treeEnvelope struct {
	Shape string                 `json:"shape"`
	Tree  *tracker.ReferenceTree `json:"tree"`
}

// FileStore is the filesystem fallback backend: one JSON file
// per relationship, a sibling "_deep_refs.json" per tree snapshot, and
// "backups/<id>_<ts>.json" per backup, all written atomically via a temp
// file plus os.Rename, the same rename-on-close pattern used elsewhere in
// the corpus for idempotent file writes.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it if necessary.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "backups"), 0o755); err != nil {
		return nil, fmt.Errorf("store: create tracking dir %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) relationshipPath(sourceID, targetID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", sourceID, targetID))
}

func (s *FileStore) treePath(sourceID, targetID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s_deep_refs.json", sourceID, targetID))
}

func (s *FileStore) backupPath(entryID string, takenAt time.Time) string {
	stamp := takenAt.UTC().Format("20060102T150405.000Z")
	return filepath.Join(s.dir, "backups", fmt.Sprintf("%s_%s.json", entryID, stamp))
}

func writeAtomic(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %q: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write temp file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: rename %q to %q: %w", tmp, path, err)
	}
	return nil
}

func (s *FileStore) Store(_ context.Context, rel Relationship) error {
	// An upsert carries forward what the caller did not resupply: createdAt,
	// the tree snapshot, and the backup history.
	if existing, ok, err := s.readRelationship(s.relationshipPath(rel.SourceEntryID, rel.TargetEntryID)); err == nil && ok {
		if rel.Metadata.CreatedAt.IsZero() {
			rel.Metadata.CreatedAt = existing.Metadata.CreatedAt
		}
		if rel.DeepReferenceMap == nil {
			rel.DeepReferenceMap = existing.DeepReferenceMap
		}
		if len(rel.BackupData) == 0 {
			rel.BackupData = existing.BackupData
		}
	}
	if rel.Metadata.CreatedAt.IsZero() {
		rel.Metadata.CreatedAt = time.Now().UTC()
	}
	return writeAtomic(s.relationshipPath(rel.SourceEntryID, rel.TargetEntryID), relationshipEnvelope{
		Shape: relationshipShape, Relationship: rel,
	})
}

func (s *FileStore) readRelationship(path string) (*Relationship, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: read %q: %w", path, err)
	}
	if err := validateFileShape(path, data, false); err != nil {
		return nil, false, err
	}
	var env relationshipEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false, fmt.Errorf("store: decode %q: %w", path, err)
	}
	rel := env.Relationship
	return &rel, true, nil
}

func (s *FileStore) Get(_ context.Context, sourceID, targetID string) (*Relationship, bool, error) {
	return s.readRelationship(s.relationshipPath(sourceID, targetID))
}

func (s *FileStore) StoreDeepMap(_ context.Context, sourceID, targetID string, tree *tracker.ReferenceTree) error {
	return writeAtomic(s.treePath(sourceID, targetID), treeEnvelope{Shape: treeShape, Tree: tree})
}

func (s *FileStore) GetDeepMap(_ context.Context, sourceID, targetID string) (*tracker.ReferenceTree, bool, error) {
	data, err := os.ReadFile(s.treePath(sourceID, targetID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: read tree %q: %w", s.treePath(sourceID, targetID), err)
	}
	if err := validateFileShape(s.treePath(sourceID, targetID), data, true); err != nil {
		return nil, false, err
	}
	var env treeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false, fmt.Errorf("store: decode tree %q: %w", s.treePath(sourceID, targetID), err)
	}
	return env.Tree, true, nil
}

func (s *FileStore) StoreBackup(_ context.Context, sourceID, targetID string, backup BackupData) error {
	rel, ok, err := s.readRelationship(s.relationshipPath(sourceID, targetID))
	if err != nil {
		return err
	}
	if !ok {
		rel = &Relationship{SourceEntryID: sourceID, TargetEntryID: targetID}
	}
	rel.BackupData = append(rel.BackupData, backup)

	if err := writeAtomic(s.relationshipPath(sourceID, targetID), relationshipEnvelope{
		Shape: relationshipShape, Relationship: *rel,
	}); err != nil {
		return err
	}
	return writeAtomic(s.backupPath(backup.EntryID, backup.TakenAt), backup)
}

func (s *FileStore) Delete(_ context.Context, sourceID, targetID string) (bool, error) {
	path := s.relationshipPath(sourceID, targetID)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("store: stat %q: %w", path, err)
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("store: remove %q: %w", path, err)
	}
	os.Remove(s.treePath(sourceID, targetID))
	return true, nil
}

func (s *FileStore) ListBySource(_ context.Context, sourceID string) ([]Relationship, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: list tracking dir %q: %w", s.dir, err)
	}

	prefix := sourceID + "_"
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || strings.HasSuffix(name, "_deep_refs.json") || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Relationship, 0, len(names))
	for _, name := range names {
		rel, ok, err := s.readRelationship(filepath.Join(s.dir, name))
		if err != nil || !ok {
			continue
		}
		out = append(out, *rel)
	}
	return out, nil
}
