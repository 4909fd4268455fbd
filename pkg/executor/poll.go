package executor

import (
	"context"
	"errors"
	"time"
)

// errDeadline is returned by poll when the condition never held.
var errDeadline = errors.New("deadline reached")

// poll evaluates check immediately and then every interval until it reports
// done, returns an error, or the deadline passes. The last evaluation happens
// at or after the deadline, so a condition that becomes true just before it
// is still observed. Context cancellation ends the poll with ctx.Err().
func poll(ctx context.Context, timeout, interval time.Duration, check func(context.Context) (bool, error)) error {
	deadline := time.Now().Add(timeout)
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errDeadline
		}
		timer.Reset(min(interval, remaining))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
