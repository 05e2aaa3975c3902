// Package contentful adapts github.com/foomo/contentful's Content
// Management API client to this module's cmsclient.Client port. It is the
// one place in the tree that knows Contentful's Sys/Fields shape; everything
// above it talks only to cmsclient.Entry and fieldvalue.Localized.
package contentful

import (
	"context"
	"fmt"

	cf "github.com/foomo/contentful"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
)

// StorageLocale is the single locale this deployment stores entries under.
const StorageLocale = "en-US-POSIX"

// Adapter implements cmsclient.Client over a *contentful.Contentful
// management client scoped to one space and environment.
type Adapter struct {
	cma           *cf.Contentful
	spaceID       string
	environmentID string
}

// New returns an Adapter bound to spaceID/environmentID, authenticating with
// managementToken against Contentful's Content Management API.
func New(managementToken, spaceID, environmentID string) *Adapter {
	return &Adapter{
		cma:           cf.NewCMA(managementToken),
		spaceID:       spaceID,
		environmentID: environmentID,
	}
}

func (a *Adapter) GetEntry(ctx context.Context, id string) (*cmsclient.Entry, error) {
	entry := &cf.Entry{}
	if err := a.cma.WithSpaceId(a.spaceID).WithEnvironment(a.environmentID).Entries.Get(id, entry); err != nil {
		return nil, fmt.Errorf("cmsclient/contentful: get entry %q: %w", id, err)
	}
	return fromContentfulEntry(entry), nil
}

func (a *Adapter) GetContentType(ctx context.Context, id string) (*cmsclient.ContentTypeSchema, error) {
	ct := &cf.ContentType{}
	if err := a.cma.WithSpaceId(a.spaceID).WithEnvironment(a.environmentID).ContentTypes.Get(id, ct); err != nil {
		return nil, fmt.Errorf("cmsclient/contentful: get content type %q: %w", id, err)
	}
	return fromContentfulContentType(ct), nil
}

func (a *Adapter) GetEntries(ctx context.Context, query cmsclient.Query) ([]*cmsclient.Entry, error) {
	col := a.cma.WithSpaceId(a.spaceID).WithEnvironment(a.environmentID).Entries.List()
	if query.ContentTypeID != "" {
		col = col.ContentType(query.ContentTypeID)
	}
	for fieldID, value := range query.FieldEquals {
		col = col.Equal(fmt.Sprintf("fields.%s.%s", fieldID, StorageLocale), value)
	}
	if query.Limit > 0 {
		col = col.Limit(uint16(query.Limit))
	}

	if err := col.GetAll(); err != nil {
		return nil, fmt.Errorf("cmsclient/contentful: query entries: %w", err)
	}

	rawEntries, ok := col.ToEntry()
	if !ok {
		return nil, fmt.Errorf("cmsclient/contentful: query entries: unexpected collection shape")
	}

	out := make([]*cmsclient.Entry, 0, len(rawEntries))
	for _, e := range rawEntries {
		out = append(out, fromContentfulEntry(e))
	}
	return out, nil
}

func (a *Adapter) CreateEntry(ctx context.Context, contentTypeID string, fields map[string]fieldvalue.Localized) (*cmsclient.Entry, error) {
	entry := &cf.Entry{
		Sys:    &cf.Sys{},
		Fields: toContentfulFields(fields),
	}
	if err := a.cma.WithSpaceId(a.spaceID).WithEnvironment(a.environmentID).Entries.Upsert(contentTypeID, entry); err != nil {
		return nil, fmt.Errorf("cmsclient/contentful: create entry of type %q: %w", contentTypeID, err)
	}
	result := fromContentfulEntry(entry)
	result.ContentTypeID = contentTypeID
	return result, nil
}

func (a *Adapter) UpdateEntry(ctx context.Context, id string, version int, fields map[string]fieldvalue.Localized) (*cmsclient.Entry, error) {
	entry := &cf.Entry{
		Sys: &cf.Sys{
			ID:      id,
			Version: version,
		},
		Fields: toContentfulFields(fields),
	}
	if err := a.cma.WithSpaceId(a.spaceID).WithEnvironment(a.environmentID).Entries.Upsert("", entry); err != nil {
		return nil, fmt.Errorf("cmsclient/contentful: update entry %q: %w", id, err)
	}
	return fromContentfulEntry(entry), nil
}

func (a *Adapter) DeleteEntry(ctx context.Context, id string, version int) error {
	entry := &cf.Entry{Sys: &cf.Sys{ID: id, Version: version}}
	if err := a.cma.WithSpaceId(a.spaceID).WithEnvironment(a.environmentID).Entries.Delete(entry); err != nil {
		return fmt.Errorf("cmsclient/contentful: delete entry %q: %w", id, err)
	}
	return nil
}
