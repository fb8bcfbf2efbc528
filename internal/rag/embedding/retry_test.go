package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/pkg/logger_i"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:    3,
		BaseDelay:   time.Millisecond,
		CallTimeout: time.Second,
	}
}

func TestRetryPolicy_RetriesTransient(t *testing.T) {
	log := logger_i.NewLogger("test")
	calls := 0

	err := testPolicy().Do(context.Background(), log, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return faults.Transient("rate limited", errors.New("429"))
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	log := logger_i.NewLogger("test")
	calls := 0

	err := testPolicy().Do(context.Background(), log, func(ctx context.Context) error {
		calls++
		return faults.Transient("still down", errors.New("503"))
	})

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
	if !faults.IsKind(err, faults.EmbeddingProvider) {
		t.Errorf("expected EmbeddingProvider kind, got %v", faults.KindOf(err))
	}
}

func TestRetryPolicy_FailsFastOnNonRetryable(t *testing.T) {
	log := logger_i.NewLogger("test")
	calls := 0

	err := testPolicy().Do(context.Background(), log, func(ctx context.Context) error {
		calls++
		return faults.Wrap(faults.EmbeddingProvider, "bad credentials", errors.New("401"))
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-retryable error retried: %d attempts", calls)
	}
}

func TestRetryPolicy_StopsWhenContextCancelled(t *testing.T) {
	log := logger_i.NewLogger("test")
	ctx, cancel := context.WithCancel(context.Background())

	policy := RetryPolicy{Attempts: 5, BaseDelay: time.Minute, CallTimeout: time.Second}
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Do(ctx, log, func(ctx context.Context) error {
		calls++
		return faults.Transient("flaky", errors.New("timeout"))
	})

	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt before cancelled backoff, got %d", calls)
	}
}

func TestValidateInputs(t *testing.T) {
	if err := ValidateInputs([]string{"fine", "also fine"}); err != nil {
		t.Errorf("small inputs rejected: %v", err)
	}

	huge := strings.Repeat("x", 30000)
	err := ValidateInputs([]string{"fine", huge})
	if !faults.IsKind(err, faults.InputTooLarge) {
		t.Errorf("expected InputTooLarge, got %v", err)
	}
}
