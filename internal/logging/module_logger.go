package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-cms-translate/pkg/interfaces"
)

const (
	rootModule    = "translate"
	engineModule  = "translate.engine"
	trackerModule = "translate.tracker"
	storeModule   = "translate.store"
	httpModule    = "translate.http"
)

const (
	fieldRelationshipID = "relationship_id"
	fieldSourceEntryID  = "source_entry_id"
	fieldTargetLanguage = "target_language"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// EngineLogger returns the logger namespace reserved for the clone/incremental engine.
func EngineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, engineModule)
}

// TrackerLogger returns the logger namespace reserved for the reference graph tracker.
func TrackerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, trackerModule)
}

// StoreLogger returns the logger namespace reserved for the relationship store.
func StoreLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storeModule)
}

// HTTPLogger returns the logger namespace reserved for the HTTP surface.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// WithRelationshipContext enriches the provided logger with the identifiers that
// tie a log entry to a single (source, target) relationship. Empty values are ignored.
func WithRelationshipContext(logger interfaces.Logger, sourceEntryID, relationshipID, targetLanguage string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(sourceEntryID); trimmed != "" {
		fields[fieldSourceEntryID] = trimmed
	}
	if trimmed := strings.TrimSpace(relationshipID); trimmed != "" {
		fields[fieldRelationshipID] = trimmed
	}
	if trimmed := strings.TrimSpace(targetLanguage); trimmed != "" {
		fields[fieldTargetLanguage] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
