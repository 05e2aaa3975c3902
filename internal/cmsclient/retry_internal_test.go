package cmsclient

import (
	"context"
	"errors"
	"testing"
)

func TestRetryReadSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	got, err := retryRead(context.Background(), func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("expected ok, got %q", got)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryReadGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	_, err := retryRead(context.Background(), func(context.Context) (string, error) {
		attempts++
		return "", errors.New("permanent")
	})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestRetryReadRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := retryRead(ctx, func(context.Context) (string, error) {
		attempts++
		return "", errors.New("transient")
	})
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
	if attempts != 1 {
		t.Fatalf("expected to stop after first attempt once context is cancelled, got %d attempts", attempts)
	}
}
