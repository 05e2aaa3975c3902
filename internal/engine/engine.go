// Package engine implements the Clone & Incremental Engine: the
// orchestrator that performs the recursive first clone, diffs and applies
// incremental updates, and answers status checks, by composing the
// Classifier (internal/policy), the Relationship Store (internal/store),
// the Reference Graph Tracker (internal/tracker), and the Translator
// (internal/translator) behind the cmsclient.Client port.
package engine

import (
	"context"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/commands"
	"github.com/goliatone/go-cms-translate/internal/policy"
	"github.com/goliatone/go-cms-translate/internal/store"
	"github.com/goliatone/go-cms-translate/internal/tracker"
	"github.com/goliatone/go-cms-translate/internal/translator"
	"github.com/goliatone/go-cms-translate/pkg/interfaces"
	"golang.org/x/sync/singleflight"
)

// DefaultRootContentType is the content type a source entry must have for
// a first clone to start.
const DefaultRootContentType = "cmsPage"

// DefaultStorageLocale is the single locale the CMS stores field values
// under. Per-language content lives in distinct entries, so every field the
// engine writes is keyed by this locale; the target culture only ever
// appears as the culture field's value.
const DefaultStorageLocale = "en-US-POSIX"

// RelationshipStore is the surface the Engine needs from the Relationship
// Store. *store.Composite satisfies it directly; it is narrower than
// store.Store because Composite's calls additionally report which backend
// answered.
type RelationshipStore interface {
	Store(ctx context.Context, rel store.Relationship) (store.Outcome, error)
	Get(ctx context.Context, sourceID, targetID string) (*store.Relationship, bool, store.Outcome, error)
	StoreDeepMap(ctx context.Context, sourceID, targetID string, tree *tracker.ReferenceTree) (store.Outcome, error)
	GetDeepMap(ctx context.Context, sourceID, targetID string) (*tracker.ReferenceTree, bool, store.Outcome, error)
	StoreBackup(ctx context.Context, sourceID, targetID string, backup store.BackupData) (store.Outcome, error)
	ListBySource(ctx context.Context, sourceID string) ([]store.Relationship, store.Outcome, error)
}

// Config customises one Engine.
type Config struct {
	// RootContentType is the content type a first-clone source entry must
	// carry. Defaults to DefaultRootContentType.
	RootContentType string
	// StorageLocale is the locale key written fields are stored under.
	// Defaults to DefaultStorageLocale.
	StorageLocale string
}

// DefaultConfig returns the design defaults.
func DefaultConfig() Config {
	return Config{RootContentType: DefaultRootContentType, StorageLocale: DefaultStorageLocale}
}

// Engine is the Clone & Incremental Engine.
type Engine struct {
	cms      cmsclient.Client
	store    RelationshipStore
	tracker  *tracker.Tracker
	policy   policy.Policy
	text     *translator.TextTranslator
	markdown *translator.MarkdownTranslator
	logger   interfaces.Logger

	rootContentType string
	storageLocale   string

	// sf serializes incremental updates by relationship id. First clones are not serialized here; they are naturally
	// deduplicated by the in-run clone map (keyed by source id only).
	sf singleflight.Group
}

// New builds an Engine. logger may be nil.
func New(
	cms cmsclient.Client,
	relStore RelationshipStore,
	trk *tracker.Tracker,
	pol policy.Policy,
	text *translator.TextTranslator,
	markdown *translator.MarkdownTranslator,
	logger interfaces.Logger,
	cfg Config,
) *Engine {
	if cfg.RootContentType == "" {
		cfg.RootContentType = DefaultRootContentType
	}
	if cfg.StorageLocale == "" {
		cfg.StorageLocale = DefaultStorageLocale
	}
	return &Engine{
		cms:             cms,
		store:           relStore,
		tracker:         trk,
		policy:          pol,
		text:            text,
		markdown:        markdown,
		logger:          commands.EnsureLogger(logger),
		rootContentType: cfg.RootContentType,
		storageLocale:   cfg.StorageLocale,
	}
}

// cloneRun carries the per-request state a recursive clone thread needs:
// the in-run memo/clone map, the cycle-detection processing stack, and the
// translation/locale context, all scoped to one Clone or IncrementalUpdate
// call.
type cloneRun struct {
	schemaCache   *cmsclient.SchemaCache
	cloneMap      map[string]string
	processing    map[string]bool
	created       map[string]bool
	tctx          store.TranslationContext
	storageLocale string
	targetLocale  string
	policy        policy.Policy
	logger        interfaces.Logger
}

func newCloneRun(schemaCache *cmsclient.SchemaCache, cloneMap map[string]string, tctx store.TranslationContext, storageLocale, targetLocale string, pol policy.Policy, logger interfaces.Logger) *cloneRun {
	if cloneMap == nil {
		cloneMap = make(map[string]string)
	}
	return &cloneRun{
		schemaCache:   schemaCache,
		cloneMap:      cloneMap,
		processing:    make(map[string]bool),
		created:       make(map[string]bool),
		tctx:          tctx,
		storageLocale: storageLocale,
		targetLocale:  targetLocale,
		policy:        pol,
		logger:        logger,
	}
}
