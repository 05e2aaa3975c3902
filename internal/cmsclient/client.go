// Package cmsclient defines the port the rest of this module uses to talk to
// the headless CMS's Management API, and a thin schema cache on top of it.
// Concrete adapters (internal/cmsclient/contentful) implement Client; the
// core (store, tracker, engine) depends only on this interface.
package cmsclient

import (
	"context"
	"time"

	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
)

// Entry is this module's CMS-agnostic view of a content entry.
type Entry struct {
	ID            string
	ContentTypeID string
	Version       int
	Fields        map[string]fieldvalue.Localized
	UpdatedAt     time.Time
}

// FieldType enumerates the content-type field kinds the schema exposes.
type FieldType string

const (
	FieldTypeSymbol  FieldType = "Symbol"
	FieldTypeText    FieldType = "Text"
	FieldTypeInteger FieldType = "Integer"
	FieldTypeNumber  FieldType = "Number"
	FieldTypeBoolean FieldType = "Boolean"
	FieldTypeDate    FieldType = "Date"
	FieldTypeArray   FieldType = "Array"
	FieldTypeObject  FieldType = "Object"
	FieldTypeLink    FieldType = "Link"
)

// FieldValidation mirrors a Contentful-style "in" enum validation.
type FieldValidation struct {
	In []any
}

// FieldSchema describes one field of a content type.
type FieldSchema struct {
	ID          string
	Type        FieldType
	Required    bool
	Validations []FieldValidation
}

// ContentTypeSchema is the ordered field list for one content type id.
type ContentTypeSchema struct {
	ID     string
	Fields []FieldSchema
}

// FieldByID returns the schema for fieldID, in schema order being irrelevant
// to this lookup (callers needing order range Fields directly).
func (s ContentTypeSchema) FieldByID(fieldID string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.ID == fieldID {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Query filters getEntries calls.
type Query struct {
	ContentTypeID string
	FieldEquals   map[string]string
	Limit         int
}

// Client is the CMS Management API port.
type Client interface {
	GetEntry(ctx context.Context, id string) (*Entry, error)
	GetContentType(ctx context.Context, id string) (*ContentTypeSchema, error)
	GetEntries(ctx context.Context, query Query) ([]*Entry, error)
	CreateEntry(ctx context.Context, contentTypeID string, fields map[string]fieldvalue.Localized) (*Entry, error)
	UpdateEntry(ctx context.Context, id string, version int, fields map[string]fieldvalue.Localized) (*Entry, error)
	DeleteEntry(ctx context.Context, id string, version int) error
}
