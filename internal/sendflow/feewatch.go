package sendflow

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/metrics"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
)

// DefaultFeeInterval is how often an open confirmation view re-prices.
const DefaultFeeInterval = 5 * time.Second

// FeeEstimator is the adapter capability the watcher needs.
type FeeEstimator interface {
	Chain() chain.ID
	EstimateFee(ctx context.Context, from, to, amount string) (wallet.FeeEstimate, error)
}

// FeeWatcher re-estimates the fee on a fixed cadence while a view is open.
// A slow estimate never blocks the next tick; ticks overlap freely and the
// subscriber only ever sees results in start order, later starts winning.
type FeeWatcher struct {
	interval time.Duration
	log      *logrus.Entry
}

func NewFeeWatcher(interval time.Duration) *FeeWatcher {
	if interval <= 0 {
		interval = DefaultFeeInterval
	}
	return &FeeWatcher{
		interval: interval,
		log:      logrus.WithField("component", "feewatch"),
	}
}

// Watch polls until the context is cancelled, calling publish with each
// fresh estimate. Estimates that finish after a later-started poll already
// published are dropped. Watch returns only after every in-flight estimate
// has settled, so publish is never called after it returns; estimators must
// honor ctx for that to hold.
func (w *FeeWatcher) Watch(ctx context.Context, estimator FeeEstimator, from, to, amount string, publish func(wallet.FeeEstimate)) {
	log := w.log.WithField("chain", estimator.Chain())

	var mu sync.Mutex
	var started, applied uint64
	var inflight sync.WaitGroup

	poll := func() {
		defer inflight.Done()
		mu.Lock()
		started++
		seq := started
		mu.Unlock()

		estimate, err := estimator.EstimateFee(ctx, from, to, amount)
		if err != nil {
			if ctx.Err() == nil {
				metrics.FeeEstimateFailures.WithLabelValues(estimator.Chain().String()).Inc()
				log.WithError(err).Warn("fee re-estimation failed")
			}
			return
		}

		// Published under the lock so subscribers see start order.
		mu.Lock()
		if seq > applied {
			applied = seq
			publish(estimate)
		}
		mu.Unlock()
	}

	// Price immediately, then on the ticker.
	inflight.Add(1)
	go poll()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			inflight.Wait()
			return
		case <-ticker.C:
			inflight.Add(1)
			go poll()
		}
	}
}
