package cmsclient

import (
	"context"
	"time"

	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
)

// DefaultCallTimeout bounds every CMS call issued through WithCallPolicy.
const DefaultCallTimeout = 30 * time.Second

// callPolicyClient decorates a Client with a per-call timeout on every
// operation and the bounded retry policy on idempotent reads only. Entry
// creation and updates are never retried, so a timed-out write cannot turn
// into a duplicate entry.
type callPolicyClient struct {
	inner   Client
	timeout time.Duration
}

// WithCallPolicy wraps inner with the per-call timeout/retry policy. A
// non-positive timeout falls back to DefaultCallTimeout.
func WithCallPolicy(inner Client, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &callPolicyClient{inner: inner, timeout: timeout}
}

func (c *callPolicyClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *callPolicyClient) GetEntry(ctx context.Context, id string) (*Entry, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return retryRead(ctx, func(ctx context.Context) (*Entry, error) {
		return c.inner.GetEntry(ctx, id)
	})
}

func (c *callPolicyClient) GetContentType(ctx context.Context, id string) (*ContentTypeSchema, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return retryRead(ctx, func(ctx context.Context) (*ContentTypeSchema, error) {
		return c.inner.GetContentType(ctx, id)
	})
}

func (c *callPolicyClient) GetEntries(ctx context.Context, query Query) ([]*Entry, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return retryRead(ctx, func(ctx context.Context) ([]*Entry, error) {
		return c.inner.GetEntries(ctx, query)
	})
}

func (c *callPolicyClient) CreateEntry(ctx context.Context, contentTypeID string, fields map[string]fieldvalue.Localized) (*Entry, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.inner.CreateEntry(ctx, contentTypeID, fields)
}

func (c *callPolicyClient) UpdateEntry(ctx context.Context, id string, version int, fields map[string]fieldvalue.Localized) (*Entry, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.inner.UpdateEntry(ctx, id, version, fields)
}

func (c *callPolicyClient) DeleteEntry(ctx context.Context, id string, version int) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.inner.DeleteEntry(ctx, id, version)
}
