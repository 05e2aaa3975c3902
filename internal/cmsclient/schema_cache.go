package cmsclient

import (
	"context"
	"sync"
)

// SchemaCache memoizes GetContentType lookups for the lifetime of one run.
// Callers create one SchemaCache per clone/incremental-update request and
// discard it after.
type SchemaCache struct {
	client Client

	mu   sync.Mutex
	byID map[string]*ContentTypeSchema
}

// NewSchemaCache wraps client with a per-request schema memo.
func NewSchemaCache(client Client) *SchemaCache {
	return &SchemaCache{client: client, byID: make(map[string]*ContentTypeSchema)}
}

// Get returns the cached schema for contentTypeID, fetching and memoizing on
// first access.
func (c *SchemaCache) Get(ctx context.Context, contentTypeID string) (*ContentTypeSchema, error) {
	c.mu.Lock()
	if schema, ok := c.byID[contentTypeID]; ok {
		c.mu.Unlock()
		return schema, nil
	}
	c.mu.Unlock()

	schema, err := c.client.GetContentType(ctx, contentTypeID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byID[contentTypeID] = schema
	c.mu.Unlock()
	return schema, nil
}
