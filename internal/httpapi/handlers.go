package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-cms-translate/internal/engine"
)

// cloneRequest is the body of POST /api/clone. SpaceID and EnvironmentID
// identify the CMS scope the server was wired against; they are accepted for
// interface compatibility and otherwise ignored.
type cloneRequest struct {
	SourceEntryID   string   `json:"sourceEntryId"`
	SpaceID         string   `json:"spaceId"`
	EnvironmentID   string   `json:"environmentId"`
	SourceLanguage  string   `json:"sourceLanguage"`
	TargetLanguage  string   `json:"targetLanguage"`
	TargetLanguages []string `json:"targetLanguages"`
}

func (a *API) clone(ctx router.Context) error {
	var req cloneRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid JSON body")
	}
	if strings.TrimSpace(req.SourceEntryID) == "" {
		return badRequest(ctx, "sourceEntryId is required")
	}

	languages := req.TargetLanguages
	if len(languages) == 0 {
		if strings.TrimSpace(req.TargetLanguage) == "" {
			return badRequest(ctx, "targetLanguage or targetLanguages is required")
		}
		languages = []string{req.TargetLanguage}
	}

	result, err := a.engine.CloneMany(ctx.Context(), engine.CloneManyRequest{
		SourceEntryID:   req.SourceEntryID,
		SourceLanguage:  req.SourceLanguage,
		TargetLanguages: languages,
	})
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"originalEntryId": result.OriginalEntryID,
		"clonedEntryId":   result.ClonedEntryID,
		"cloneMapping":    result.CloneMapping,
		"allResults":      result.AllResults,
		"targetLocales":   result.TargetLocales,
	})
}

func (a *API) incrementalStatus(ctx router.Context) error {
	entryID := ctx.Query("entryId", "")
	targetLanguage := ctx.Query("targetLanguage", "")
	if entryID == "" || targetLanguage == "" {
		return badRequest(ctx, "entryId and targetLanguage are required")
	}

	result, err := a.engine.StatusByLanguage(ctx.Context(), entryID, targetLanguage)
	if err != nil {
		return a.fail(ctx, err)
	}
	return ctx.JSON(fiber.StatusOK, result)
}

// updateRequest is the body of POST /api/incremental/update.
type updateRequest struct {
	SourceEntryID string         `json:"sourceEntryId"`
	TargetEntryID string         `json:"targetEntryId"`
	SpaceID       string         `json:"spaceId"`
	EnvironmentID string         `json:"environmentId"`
	Options       map[string]any `json:"options"`
}

func (a *API) incrementalUpdate(ctx router.Context) error {
	var req updateRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid JSON body")
	}
	if strings.TrimSpace(req.SourceEntryID) == "" || strings.TrimSpace(req.TargetEntryID) == "" {
		return badRequest(ctx, "sourceEntryId and targetEntryId are required")
	}

	result, err := a.engine.IncrementalUpdate(ctx.Context(), engine.IncrementalUpdateRequest{
		SourceEntryID: req.SourceEntryID,
		TargetEntryID: req.TargetEntryID,
	})
	if err != nil {
		return a.fail(ctx, err)
	}
	return ctx.JSON(fiber.StatusOK, result)
}

func (a *API) relationships(ctx router.Context) error {
	entryID := ctx.Param("entryId")
	rels, err := a.engine.Relationships(ctx.Context(), entryID)
	if err != nil {
		return a.fail(ctx, err)
	}
	return ctx.JSON(fiber.StatusOK, map[string]any{
		"entryId":       entryID,
		"relationships": rels,
	})
}

func (a *API) backups(ctx router.Context) error {
	entryID := ctx.Param("entryId")
	backups, err := a.engine.Backups(ctx.Context(), entryID, ctx.Query("sourceId", ""))
	if err != nil {
		return a.fail(ctx, err)
	}
	return ctx.JSON(fiber.StatusOK, map[string]any{
		"entryId": entryID,
		"backups": backups,
	})
}

func (a *API) deepReferences(ctx router.Context) error {
	sourceID, targetID := ctx.Param("sourceId"), ctx.Param("targetId")
	stats, ok, err := a.engine.DeepReferences(ctx.Context(), sourceID, targetID)
	if err != nil {
		return a.fail(ctx, err)
	}
	if !ok {
		return ctx.JSON(fiber.StatusNotFound, map[string]string{
			"error": "no reference tree snapshot stored for this pair",
		})
	}
	return ctx.JSON(fiber.StatusOK, stats)
}

func (a *API) rebuildDeepReferences(ctx router.Context) error {
	sourceID, targetID := ctx.Param("sourceId"), ctx.Param("targetId")
	stats, err := a.engine.RebuildDeepReferences(ctx.Context(), sourceID, targetID)
	if err != nil {
		return a.fail(ctx, err)
	}
	return ctx.JSON(fiber.StatusOK, stats)
}
