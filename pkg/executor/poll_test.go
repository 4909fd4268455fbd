package executor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPoll_TrueAtZero(t *testing.T) {
	calls := 0
	start := time.Now()
	err := poll(context.Background(), time.Second, 50*time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("poll() error: %v", err)
	}
	if calls != 1 {
		t.Errorf("check called %d times, want 1", calls)
	}
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Errorf("poll took %v, want immediate return", elapsed)
	}
}

func TestPoll_TrueJustBeforeDeadline(t *testing.T) {
	timeout := 100 * time.Millisecond
	start := time.Now()
	err := poll(context.Background(), timeout, 30*time.Millisecond, func(context.Context) (bool, error) {
		return time.Since(start) >= timeout-5*time.Millisecond, nil
	})
	if err != nil {
		t.Errorf("poll() error = %v, want success on the final check", err)
	}
}

func TestPoll_NeverTrue(t *testing.T) {
	timeout := 60 * time.Millisecond
	start := time.Now()
	err := poll(context.Background(), timeout, 10*time.Millisecond, func(context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, errDeadline) {
		t.Fatalf("poll() error = %v, want errDeadline", err)
	}
	if elapsed := time.Since(start); elapsed < timeout {
		t.Errorf("poll gave up after %v, before the %v deadline", elapsed, timeout)
	}
}

func TestPoll_CheckError(t *testing.T) {
	boom := errors.New("boom")
	err := poll(context.Background(), time.Second, 10*time.Millisecond, func(context.Context) (bool, error) {
		return false, boom
	})
	if err != boom {
		t.Errorf("poll() error = %v, want boom", err)
	}
}

func TestPoll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := poll(ctx, 5*time.Second, 5*time.Millisecond, func(context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("poll() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation was not observed promptly")
	}
}

func TestSleep(t *testing.T) {
	if err := sleep(context.Background(), 5*time.Millisecond); err != nil {
		t.Errorf("sleep() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("sleep() on cancelled ctx = %v", err)
	}
}
