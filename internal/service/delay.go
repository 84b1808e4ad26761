package service

import (
	"context"
	"math/rand/v2"
	"time"

	"mp_scraper/internal/config"
)

// DelayPolicy draws randomized pauses between requests and between accounts.
// Pure function of config; the jitter keeps the request cadence from looking
// mechanical to the upstream.
type DelayPolicy struct {
	requestMin time.Duration
	requestMax time.Duration
	accountMin time.Duration
	accountMax time.Duration
}

func NewDelayPolicy(cfg config.DelayConfig) DelayPolicy {
	return DelayPolicy{
		requestMin: cfg.RequestMin,
		requestMax: cfg.RequestMax,
		accountMin: cfg.AccountMin,
		accountMax: cfg.AccountMax,
	}
}

// RequestDelay is the pause between listing pages of one account.
func (p DelayPolicy) RequestDelay() time.Duration {
	return randomBetween(p.requestMin, p.requestMax)
}

// AccountDelay is the pause between accounts in sequential mode.
func (p DelayPolicy) AccountDelay() time.Duration {
	return randomBetween(p.accountMin, p.accountMax)
}

func randomBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}

// sleep waits for d or until the context is cancelled, whichever comes
// first.
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
