package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/apocacache/zimsync/pkg/utils/retry"
)

func TestPolicy_Do_SucceedsFirstAttempt(t *testing.T) {
	p := retry.New(3, nil)

	var calls int
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})

	gt.NoError(t, err)
	gt.Number(t, calls).Equal(1)
}

func TestPolicy_Do_ExhaustsBudget(t *testing.T) {
	p := retry.New(3, nil)

	var calls int
	wantErr := errors.New("mirror unreachable")
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		gt.Number(t, attempt).Equal(calls)
		return wantErr
	})

	gt.Error(t, err)
	gt.Value(t, errors.Is(err, wantErr)).Equal(true)
	gt.Number(t, calls).Equal(3)
}

func TestPolicy_Do_RecoversMidBudget(t *testing.T) {
	p := retry.New(5, nil)

	var calls int
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	})

	gt.NoError(t, err)
	gt.Number(t, calls).Equal(3)
}

func TestPolicy_Do_CancelledBetweenAttempts(t *testing.T) {
	p := retry.New(10, func(int) time.Duration { return 50 * time.Millisecond })

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Do(ctx, func(ctx context.Context, attempt int) error {
			calls++
			return errors.New("always fails")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-errCh
	gt.Error(t, err)
	gt.Value(t, errors.Is(err, context.Canceled)).Equal(true)
	gt.Number(t, calls).Less(10)
}

func TestPolicy_MinimumOneAttempt(t *testing.T) {
	p := retry.New(0, nil)
	gt.Number(t, p.MaxAttempts()).Equal(1)
}

func TestExponential_DoublesAndCaps(t *testing.T) {
	backoff := retry.Exponential(time.Second, 4*time.Second)

	gt.Value(t, backoff(1)).Equal(time.Second)
	gt.Value(t, backoff(2)).Equal(2 * time.Second)
	gt.Value(t, backoff(3)).Equal(4 * time.Second)
	gt.Value(t, backoff(4)).Equal(4 * time.Second)
	gt.Value(t, backoff(10)).Equal(4 * time.Second)
}
