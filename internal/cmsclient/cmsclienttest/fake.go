// Package cmsclienttest provides an in-memory cmsclient.Client fake for unit
// tests across tracker, store, and engine packages, avoiding any network
// dependency on a real CMS.
package cmsclienttest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
)

// Fake is a simple in-memory CMS backed by maps, safe for concurrent use.
type Fake struct {
	mu           sync.Mutex
	entries      map[string]*cmsclient.Entry
	contentTypes map[string]*cmsclient.ContentTypeSchema
	nextID       int
	idPrefix     string

	// FailGetEntry, when set, is returned by GetEntry for matching ids.
	FailGetEntry map[string]error
	// FailCreateEntry forces CreateEntry to fail unconditionally, for
	// exercising Partial.Reference/clone-failure paths.
	FailCreateEntry error
}

// New returns an empty Fake. idPrefix namespaces generated ids ("tgt" produces tgt-1, tgt-2, ...).
func New(idPrefix string) *Fake {
	return &Fake{
		entries:      make(map[string]*cmsclient.Entry),
		contentTypes: make(map[string]*cmsclient.ContentTypeSchema),
		idPrefix:     idPrefix,
		FailGetEntry: make(map[string]error),
	}
}

// PutEntry seeds or overwrites an entry, cloning its field map.
func (f *Fake) PutEntry(e *cmsclient.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	cp.Fields = cloneFields(e.Fields)
	f.entries[e.ID] = &cp
}

// PutContentType seeds a content type schema.
func (f *Fake) PutContentType(schema *cmsclient.ContentTypeSchema) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contentTypes[schema.ID] = schema
}

func cloneFields(in map[string]fieldvalue.Localized) map[string]fieldvalue.Localized {
	out := make(map[string]fieldvalue.Localized, len(in))
	for k, v := range in {
		loc := make(fieldvalue.Localized, len(v))
		for locale, val := range v {
			loc[locale] = val
		}
		out[k] = loc
	}
	return out
}

func (f *Fake) GetEntry(_ context.Context, id string) (*cmsclient.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.FailGetEntry[id]; ok {
		return nil, err
	}
	e, ok := f.entries[id]
	if !ok {
		return nil, fmt.Errorf("cmsclienttest: entry %q not found", id)
	}
	cp := *e
	cp.Fields = cloneFields(e.Fields)
	return &cp, nil
}

func (f *Fake) GetContentType(_ context.Context, id string) (*cmsclient.ContentTypeSchema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	schema, ok := f.contentTypes[id]
	if !ok {
		return nil, fmt.Errorf("cmsclienttest: content type %q not found", id)
	}
	return schema, nil
}

func (f *Fake) GetEntries(_ context.Context, query cmsclient.Query) ([]*cmsclient.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []string
	for id := range f.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*cmsclient.Entry
	for _, id := range ids {
		e := f.entries[id]
		if query.ContentTypeID != "" && e.ContentTypeID != query.ContentTypeID {
			continue
		}
		if !matchesFieldEquals(e, query.FieldEquals) {
			continue
		}
		cp := *e
		cp.Fields = cloneFields(e.Fields)
		out = append(out, &cp)
		if query.Limit > 0 && len(out) >= query.Limit {
			break
		}
	}
	return out, nil
}

func matchesFieldEquals(e *cmsclient.Entry, filter map[string]string) bool {
	for fieldID, want := range filter {
		loc, ok := e.Fields[fieldID]
		if !ok {
			return false
		}
		got, ok := loc.FirstString()
		if !ok || got != want {
			return false
		}
	}
	return true
}

func (f *Fake) CreateEntry(_ context.Context, contentTypeID string, fields map[string]fieldvalue.Localized) (*cmsclient.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreateEntry != nil {
		return nil, f.FailCreateEntry
	}
	f.nextID++
	id := fmt.Sprintf("%s-%d", f.idPrefix, f.nextID)
	e := &cmsclient.Entry{
		ID:            id,
		ContentTypeID: contentTypeID,
		Version:       1,
		Fields:        cloneFields(fields),
		UpdatedAt:     time.Unix(0, 0).UTC(),
	}
	f.entries[id] = e
	cp := *e
	cp.Fields = cloneFields(e.Fields)
	return &cp, nil
}

func (f *Fake) UpdateEntry(_ context.Context, id string, version int, fields map[string]fieldvalue.Localized) (*cmsclient.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return nil, fmt.Errorf("cmsclienttest: entry %q not found", id)
	}
	if e.Version != version {
		return nil, fmt.Errorf("cmsclienttest: version conflict on %q: have %d, want %d", id, e.Version, version)
	}
	e.Fields = cloneFields(fields)
	e.Version++
	cp := *e
	cp.Fields = cloneFields(e.Fields)
	return &cp, nil
}

func (f *Fake) DeleteEntry(_ context.Context, id string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}
