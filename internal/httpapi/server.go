// Package httpapi registers the HTTP surface over the translate engine:
// thin route handlers that decode a request, call one engine operation, and
// JSON-encode the outcome. No business logic lives here.
package httpapi

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-cms-translate/internal/engine"
	"github.com/goliatone/go-cms-translate/internal/logging"
	"github.com/goliatone/go-cms-translate/internal/translator"
	"github.com/goliatone/go-cms-translate/pkg/interfaces"
)

// API bundles the collaborators the route handlers need.
type API struct {
	engine     *engine.Engine
	translator translator.Client
	logger     interfaces.Logger
}

// New builds an API. logger may be nil.
func New(eng *engine.Engine, trans translator.Client, logger interfaces.Logger) *API {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &API{engine: eng, translator: trans, logger: logger}
}

// Register wires every route onto r.
func (a *API) Register(r router.Router[*fiber.App]) {
	r.Get("/health", a.health)
	r.Get("/api/deepl/status", a.translatorStatus)
	r.Post("/api/clone", a.clone)
	r.Get("/api/incremental/status", a.incrementalStatus)
	r.Post("/api/incremental/update", a.incrementalUpdate)
	r.Get("/api/incremental/relationships/:entryId", a.relationships)
	r.Get("/api/incremental/backups/:entryId", a.backups)
	r.Get("/api/incremental/deep-references/:sourceId/:targetId", a.deepReferences)
	r.Post("/api/incremental/deep-references/:sourceId/:targetId/rebuild", a.rebuildDeepReferences)
}

// statusFor maps a handler error onto an HTTP status code via its error
// category: validation errors are 400, not-found errors 404, anything else 500.
func statusFor(err error) int {
	switch {
	case goerrors.IsCategory(err, goerrors.CategoryValidation):
		return fiber.StatusBadRequest
	case goerrors.IsCategory(err, goerrors.CategoryNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func (a *API) fail(ctx router.Context, err error) error {
	a.logger.Error("httpapi: request failed", "path", ctx.Path(), "error", err)
	return ctx.JSON(statusFor(err), map[string]string{"error": err.Error()})
}

func badRequest(ctx router.Context, message string) error {
	return ctx.JSON(fiber.StatusBadRequest, map[string]string{"error": message})
}

func (a *API) health(ctx router.Context) error {
	return ctx.JSON(fiber.StatusOK, map[string]string{"status": "ok"})
}

// translatorStatus reports translator reachability and quota.
func (a *API) translatorStatus(ctx router.Context) error {
	usage, err := a.translator.GetUsage(ctx.Context())
	if err != nil {
		return ctx.JSON(fiber.StatusServiceUnavailable, map[string]any{
			"reachable": false,
			"error":     err.Error(),
		})
	}

	sources, err := a.translator.GetSourceLanguages(ctx.Context())
	if err != nil {
		a.logger.Warn("httpapi: failed to fetch source languages", "error", err)
	}
	targets, err := a.translator.GetTargetLanguages(ctx.Context())
	if err != nil {
		a.logger.Warn("httpapi: failed to fetch target languages", "error", err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"reachable": true,
		"usage": map[string]int{
			"characterCount": usage.CharacterCount,
			"characterLimit": usage.CharacterLimit,
		},
		"sourceLanguages": sources,
		"targetLanguages": targets,
	})
}
