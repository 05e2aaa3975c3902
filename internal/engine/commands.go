package engine

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-cms-translate/internal/commands"
	"github.com/goliatone/go-cms-translate/internal/logging"
	"github.com/goliatone/go-cms-translate/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const (
	cloneMessageType             = "cms.translate.clone"
	incrementalUpdateMessageType = "cms.translate.incremental_update"
	statusMessageType            = "cms.translate.status"
)

// CloneCommand requests a first clone of a source entry into targetLanguage.
type CloneCommand struct {
	SourceEntryID  string `json:"source_entry_id"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language"`
}

// Type implements command.Message.
func (CloneCommand) Type() string { return cloneMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m CloneCommand) Validate() error {
	errs := validation.Errors{}
	if m.SourceEntryID == "" {
		errs["source_entry_id"] = validation.NewError("cms.translate.clone.source_entry_id_required", "source_entry_id is required")
	}
	if m.TargetLanguage == "" {
		errs["target_language"] = validation.NewError("cms.translate.clone.target_language_required", "target_language is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CloneHandler dispatches CloneCommand to an Engine and discards the result,
// logging it instead -- callers that need the cloned entry id call
// Engine.Clone directly; this wrapper exists for dispatch-style callers that
// only need a command.Commander.
type CloneHandler struct {
	engine *Engine
	logger interfaces.Logger
}

// NewCloneHandler constructs a handler wired to engine.
func NewCloneHandler(engine *Engine, logger interfaces.Logger) *CloneHandler {
	return &CloneHandler{engine: engine, logger: commands.EnsureLogger(logger)}
}

// Execute satisfies command.Commander[CloneCommand].Execute.
func (h *CloneHandler) Execute(ctx context.Context, msg CloneCommand) error {
	if err := commands.WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = commands.EnsureContext(ctx)

	result, err := h.engine.Clone(ctx, CloneRequest{
		SourceEntryID:  msg.SourceEntryID,
		SourceLanguage: msg.SourceLanguage,
		TargetLanguage: msg.TargetLanguage,
	})
	if err != nil {
		return commands.WrapExecuteError(err)
	}

	logging.WithFields(h.logger, map[string]any{
		"operation":       "translate.clone",
		"source_entry_id": result.OriginalEntryID,
		"cloned_entry_id": result.ClonedEntryID,
		"target_language": msg.TargetLanguage,
	}).Info("translate.command.clone.completed")
	return nil
}

// IncrementalUpdateCommand requests propagation of source changes onto an
// already-cloned target.
type IncrementalUpdateCommand struct {
	SourceEntryID string `json:"source_entry_id"`
	TargetEntryID string `json:"target_entry_id"`
}

// Type implements command.Message.
func (IncrementalUpdateCommand) Type() string { return incrementalUpdateMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m IncrementalUpdateCommand) Validate() error {
	errs := validation.Errors{}
	if m.SourceEntryID == "" {
		errs["source_entry_id"] = validation.NewError("cms.translate.incremental_update.source_entry_id_required", "source_entry_id is required")
	}
	if m.TargetEntryID == "" {
		errs["target_entry_id"] = validation.NewError("cms.translate.incremental_update.target_entry_id_required", "target_entry_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IncrementalUpdateHandler dispatches IncrementalUpdateCommand to an Engine
// and discards the result, logging it instead.
type IncrementalUpdateHandler struct {
	engine *Engine
	logger interfaces.Logger
}

// NewIncrementalUpdateHandler constructs a handler wired to engine.
func NewIncrementalUpdateHandler(engine *Engine, logger interfaces.Logger) *IncrementalUpdateHandler {
	return &IncrementalUpdateHandler{engine: engine, logger: commands.EnsureLogger(logger)}
}

// Execute satisfies command.Commander[IncrementalUpdateCommand].Execute.
func (h *IncrementalUpdateHandler) Execute(ctx context.Context, msg IncrementalUpdateCommand) error {
	if err := commands.WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = commands.EnsureContext(ctx)

	result, err := h.engine.IncrementalUpdate(ctx, IncrementalUpdateRequest{
		SourceEntryID: msg.SourceEntryID,
		TargetEntryID: msg.TargetEntryID,
	})
	if err != nil {
		return commands.WrapExecuteError(err)
	}

	logging.WithFields(h.logger, map[string]any{
		"operation":       "translate.incremental_update",
		"source_entry_id": msg.SourceEntryID,
		"target_entry_id": msg.TargetEntryID,
		"success":         result.Success,
		"fields_updated":  result.FieldsUpdated,
	}).Info("translate.command.incremental_update.completed")
	return nil
}

// StatusQuery requests a status check on a relationship. The check leaves the
// target entry untouched; a clean check refreshes the stored tree snapshot.
type StatusQuery struct {
	SourceEntryID string `json:"source_entry_id"`
	TargetEntryID string `json:"target_entry_id"`
}

// Type implements command.Message.
func (StatusQuery) Type() string { return statusMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m StatusQuery) Validate() error {
	errs := validation.Errors{}
	if m.SourceEntryID == "" {
		errs["source_entry_id"] = validation.NewError("cms.translate.status.source_entry_id_required", "source_entry_id is required")
	}
	if m.TargetEntryID == "" {
		errs["target_entry_id"] = validation.NewError("cms.translate.status.target_entry_id_required", "target_entry_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// StatusHandler dispatches StatusQuery to an Engine and discards the result,
// logging it instead.
type StatusHandler struct {
	engine *Engine
	logger interfaces.Logger
}

// NewStatusHandler constructs a handler wired to engine.
func NewStatusHandler(engine *Engine, logger interfaces.Logger) *StatusHandler {
	return &StatusHandler{engine: engine, logger: commands.EnsureLogger(logger)}
}

// Execute satisfies command.Commander[StatusQuery].Execute.
func (h *StatusHandler) Execute(ctx context.Context, msg StatusQuery) error {
	if err := commands.WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = commands.EnsureContext(ctx)

	result, err := h.engine.Status(ctx, StatusRequest{
		SourceEntryID: msg.SourceEntryID,
		TargetEntryID: msg.TargetEntryID,
	})
	if err != nil {
		return commands.WrapExecuteError(err)
	}

	logging.WithFields(h.logger, map[string]any{
		"operation":        "translate.status",
		"source_entry_id":  msg.SourceEntryID,
		"target_entry_id":  msg.TargetEntryID,
		"has_relationship": result.HasRelationship,
		"up_to_date":       result.UpToDate,
	}).Info("translate.command.status.completed")
	return nil
}
