package confirm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
)

const (
	// DefaultTimeout bounds how long a submitted transaction is watched
	// before it is marked failed.
	DefaultTimeout = 60 * time.Second

	// DefaultInterval is the chain polling cadence.
	DefaultInterval = 3 * time.Second
)

// Confirmer is the chain-side capability the tracker needs. Satisfied by
// every wallet.Adapter.
type Confirmer interface {
	Chain() chain.ID
	Confirm(ctx context.Context, txID string) (bool, error)
}

// Sink receives the terminal state of a tracked transaction. Satisfied by
// the wallet state store.
type Sink interface {
	SetConfirmationState(chainID chain.ID, hash string, state wallet.ConfirmationState) error
}

// Tracker polls submitted transactions until they confirm, fail, or run out
// the timeout. Each transaction reaches exactly one terminal state.
type Tracker struct {
	sink     Sink
	timeout  time.Duration
	interval time.Duration
	log      *logrus.Entry

	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(sink Sink, timeout, interval time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{
		sink:     sink,
		timeout:  timeout,
		interval: interval,
		log:      logrus.WithField("component", "confirm"),
		inflight: make(map[string]struct{}),
	}
}

// Track polls the chain until the transaction reaches a terminal state and
// reports it to the sink. Timeout and chain errors both resolve to failed;
// the timeout case additionally carries wallet.ErrConfirmationTimeout.
// Tracking the same hash twice while the first watch is live is an error.
func (t *Tracker) Track(ctx context.Context, confirmer Confirmer, hash string) (wallet.ConfirmationState, error) {
	if err := t.claim(hash); err != nil {
		return "", err
	}
	defer t.release(hash)

	log := t.log.WithFields(logrus.Fields{
		"chain": confirmer.Chain(),
		"tx":    hash,
	})

	deadline := time.NewTimer(t.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	// First probe without waiting out a full tick.
	probe := make(chan struct{}, 1)
	probe <- struct{}{}

	for {
		select {
		case <-ctx.Done():
			// Cancelled watches stop quietly; already-applied
			// transitions stay, nothing new is dispatched.
			return wallet.StateFailed, ctx.Err()

		case <-deadline.C:
			log.Warn("confirmation window elapsed")
			state := t.resolve(confirmer.Chain(), hash, wallet.StateFailed, log)
			return state, fmt.Errorf("transaction %s: %w", hash, wallet.ErrConfirmationTimeout)

		case <-probe:
		case <-ticker.C:
		}

		confirmed, err := confirmer.Confirm(ctx, hash)
		if err != nil {
			log.WithError(err).Warn("confirmation check failed")
			return t.resolve(confirmer.Chain(), hash, wallet.StateFailed, log), err
		}
		if confirmed {
			return t.resolve(confirmer.Chain(), hash, wallet.StateConfirmed, log), nil
		}
	}
}

func (t *Tracker) claim(hash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[hash]; ok {
		return fmt.Errorf("transaction %s is already being tracked", hash)
	}
	t.inflight[hash] = struct{}{}
	return nil
}

func (t *Tracker) release(hash string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, hash)
}

func (t *Tracker) resolve(chainID chain.ID, hash string, state wallet.ConfirmationState, log *logrus.Entry) wallet.ConfirmationState {
	if t.sink != nil {
		if err := t.sink.SetConfirmationState(chainID, hash, state); err != nil {
			log.WithError(err).Warn("failed to record confirmation state")
		}
	}
	log.WithField("state", state).Info("transaction resolved")
	return state
}
