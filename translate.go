// Package translate clones entries of a headless CMS into target locales --
// machine-translating text and markdown fields, recursively cloning
// referenced entries, and persisting the source/target relationship so later
// source edits propagate incrementally.
package translate

import (
	"context"
	"fmt"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/engine"
	"github.com/goliatone/go-cms-translate/internal/logging"
	"github.com/goliatone/go-cms-translate/internal/policy"
	"github.com/goliatone/go-cms-translate/internal/store"
	"github.com/goliatone/go-cms-translate/internal/tracker"
	"github.com/goliatone/go-cms-translate/internal/translator"
	"github.com/goliatone/go-cms-translate/pkg/interfaces"
)

// CMSClient exports the CMS Management API port consumers can implement to
// back the engine with a different headless CMS.
type CMSClient = cmsclient.Client

// TranslatorClient exports the machine-translation port.
type TranslatorClient = translator.Client

// Store exports the relationship-store port.
type Store = store.Store

// Request/result shapes of the engine operations.
type (
	CloneRequest             = engine.CloneRequest
	CloneResult              = engine.CloneResult
	CloneManyRequest         = engine.CloneManyRequest
	CloneManyResult          = engine.CloneManyResult
	IncrementalUpdateRequest = engine.IncrementalUpdateRequest
	IncrementalUpdateResult  = engine.IncrementalUpdateResult
	StatusRequest            = engine.StatusRequest
	StatusResult             = engine.StatusResult
)

// Module is the top-level runtime façade: a configured engine plus the
// collaborators it was wired with.
type Module struct {
	engine *engine.Engine
	store  *store.Composite
}

// Dependencies carries the external collaborators New wires the engine with.
// CMS and Translator are required; Fallback defaults to a file store under
// cfg.TrackingDir and Logger defaults to a no-op.
type Dependencies struct {
	CMS        CMSClient
	Translator TranslatorClient
	Fallback   Store
	Logger     interfaces.Logger
}

// New constructs a Module from cfg and deps.
func New(cfg Config, deps Dependencies) (*Module, error) {
	if deps.CMS == nil {
		return nil, fmt.Errorf("translate: a CMS client is required")
	}
	if deps.Translator == nil {
		return nil, fmt.Errorf("translate: a translator client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	fallback := deps.Fallback
	if fallback == nil {
		fs, err := store.NewFileStore(cfg.TrackingDir)
		if err != nil {
			return nil, err
		}
		fallback = fs
	}
	composite := store.NewComposite(store.NewCMSStore(deps.CMS), fallback, logger)

	pol := policy.New(policy.WithClonePrefix(cfg.ClonePrefix))
	trk := tracker.New(deps.CMS, pol, tracker.Config{
		MaxDepth:             cfg.MaxDepth,
		AutoTranslateNewRefs: cfg.AutoTranslateNewRefs,
	})
	text := translator.NewTextTranslator(deps.Translator, cfg.ClonePrefix, logger)
	markdown := translator.NewMarkdownTranslator(text)

	eng := engine.New(deps.CMS, composite, trk, pol, text, markdown, logger, engine.DefaultConfig())
	return &Module{engine: eng, store: composite}, nil
}

// Engine exposes the underlying engine for integrations that register its
// command handlers on a dispatcher.
func (m *Module) Engine() *engine.Engine {
	return m.engine
}

// Clone performs a first, recursive clone into one target language.
func (m *Module) Clone(ctx context.Context, req CloneRequest) (*CloneResult, error) {
	return m.engine.Clone(ctx, req)
}

// CloneMany clones into several target languages in sequence.
func (m *Module) CloneMany(ctx context.Context, req CloneManyRequest) (*CloneManyResult, error) {
	return m.engine.CloneMany(ctx, req)
}

// IncrementalUpdate propagates source changes onto an existing clone.
func (m *Module) IncrementalUpdate(ctx context.Context, req IncrementalUpdateRequest) (*IncrementalUpdateResult, error) {
	return m.engine.IncrementalUpdate(ctx, req)
}

// Status answers a drift check for a source/target pair. It leaves the
// target entry untouched; a clean check refreshes the stored reference tree
// snapshot.
func (m *Module) Status(ctx context.Context, req StatusRequest) (*StatusResult, error) {
	return m.engine.Status(ctx, req)
}
