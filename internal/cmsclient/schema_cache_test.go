package cmsclient_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/cmsclient/cmsclienttest"
)

func TestSchemaCacheMemoizesPerRun(t *testing.T) {
	fake := cmsclienttest.New("tgt")
	fake.PutContentType(&cmsclient.ContentTypeSchema{ID: "cmsPage", Fields: []cmsclient.FieldSchema{
		{ID: "title", Type: cmsclient.FieldTypeSymbol},
	}})

	cache := cmsclient.NewSchemaCache(fake)
	ctx := context.Background()

	first, err := cache.Get(ctx, "cmsPage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cache.Get(ctx, "cmsPage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached schema pointer to be reused")
	}
}

func TestSchemaCacheMissingContentType(t *testing.T) {
	fake := cmsclienttest.New("tgt")
	cache := cmsclient.NewSchemaCache(fake)

	if _, err := cache.Get(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for unknown content type")
	}
}
