package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/cargodash/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// Pinger probes backend reachability.
type Pinger interface {
	Ping(ctx context.Context) (string, error)
}

// StartPoller launches a background goroutine that probes the backend and
// records the outcome in store. Failed probes back off exponentially up to
// maxBackoff. The returned channel closes once the goroutine has exited
// after ctx is cancelled.
func StartPoller(ctx context.Context, store *state.Store, client Pinger, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			probe(ctx, store, client, logger)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
	return done
}

func probe(ctx context.Context, store *state.Store, client Pinger, logger *zap.Logger) {
	start := time.Now()
	msg, err := client.Ping(ctx)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.Update("", elapsed, err)
		logger.Warn("health probe failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return
	}
	store.Update(msg, elapsed, nil)
}

// calculateBackoff doubles the interval for each consecutive failure.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
