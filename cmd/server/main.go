// Command server runs the clone-and-translate HTTP service: a thin fiber
// server over the translate engine, wired against Contentful's Management
// API and DeepL.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	translate "github.com/goliatone/go-cms-translate"
	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/cmsclient/contentful"
	"github.com/goliatone/go-cms-translate/internal/engine"
	"github.com/goliatone/go-cms-translate/internal/httpapi"
	"github.com/goliatone/go-cms-translate/internal/logging"
	"github.com/goliatone/go-cms-translate/internal/logging/gologger"
	"github.com/goliatone/go-cms-translate/internal/policy"
	"github.com/goliatone/go-cms-translate/internal/store"
	"github.com/goliatone/go-cms-translate/internal/tracker"
	"github.com/goliatone/go-cms-translate/internal/translator"
	"github.com/goliatone/go-cms-translate/internal/translator/deepl"
)

func main() {
	ctx := context.Background()

	cfg := translate.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration: %v (set CMS_MANAGEMENT_TOKEN and TRANSLATOR_API_KEY)", err)
	}

	provider, err := gologger.NewProvider(gologger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	logger := logging.EngineLogger(provider)
	httpLogger := logging.HTTPLogger(provider)
	storeLogger := logging.StoreLogger(provider)

	cms := cmsclient.WithCallPolicy(
		contentful.New(cfg.CMSManagementToken, cfg.CMSSpaceID, cfg.CMSEnvironmentID),
		cmsclient.DefaultCallTimeout,
	)
	deeplClient := deepl.New(cfg.TranslatorAPIKey, os.Getenv("TRANSLATOR_BASE_URL"), nil)

	fallback, cleanup, err := buildFallbackStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer cleanup()

	composite := store.NewComposite(store.NewCMSStore(cms), fallback, storeLogger)

	pol := policy.New(policy.WithClonePrefix(cfg.ClonePrefix))
	trk := tracker.New(cms, pol, tracker.Config{
		MaxDepth:             cfg.MaxDepth,
		AutoTranslateNewRefs: cfg.AutoTranslateNewRefs,
	})
	text := translator.NewTextTranslator(deeplClient, cfg.ClonePrefix, logger)
	markdown := translator.NewMarkdownTranslator(text)

	eng := engine.New(cms, composite, trk, pol, text, markdown, logger, engine.DefaultConfig())

	server := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			AppName: "go-cms-translate",
		})
	})
	httpapi.New(eng, deeplClient, httpLogger).Register(server.Router())

	addr := cfg.Addr()
	logger.Info("starting translate server", "addr", addr)
	go func() {
		if err := server.Serve(addr); err != nil {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}

// buildFallbackStore picks the fallback backend: a SQLite-backed store when
// TRACKING_DSN is set, the tracking-directory file store otherwise.
func buildFallbackStore(ctx context.Context, cfg translate.Config) (store.Store, func(), error) {
	if cfg.TrackingDSN != "" {
		sqlDB, err := sql.Open("sqlite3", cfg.TrackingDSN)
		if err != nil {
			return nil, nil, err
		}
		db := bun.NewDB(sqlDB, sqlitedialect.New())
		bunStore := store.NewBunStore(db)
		if err := bunStore.Init(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return bunStore, func() { db.Close() }, nil
	}

	fileStore, err := store.NewFileStore(cfg.TrackingDir)
	if err != nil {
		return nil, nil, err
	}
	return fileStore, func() {}, nil
}
