package sendflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Tanishq1604/HD-wallet/internal/confirm"
	"github.com/Tanishq1604/HD-wallet/internal/keyring"
	"github.com/Tanishq1604/HD-wallet/internal/metrics"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
	"github.com/Tanishq1604/HD-wallet/internal/walletstate"
)

// Authenticator gates submission on an out-of-band challenge (biometrics on
// the original surface). A nil Authenticator means no gate is installed.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}

// Orchestrator runs a validated send end to end: authenticate, derive the
// signing key, submit, record the pending transaction and hand it to the
// confirmation tracker. Nothing is recorded until the broadcast succeeds.
type Orchestrator struct {
	registry *wallet.Registry
	seeds    keyring.Source
	store    *walletstate.Store
	tracker  *confirm.Tracker
	auth     Authenticator
	log      *logrus.Entry
}

func NewOrchestrator(registry *wallet.Registry, seeds keyring.Source, store *walletstate.Store, tracker *confirm.Tracker, auth Authenticator) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		seeds:    seeds,
		store:    store,
		tracker:  tracker,
		auth:     auth,
		log:      logrus.WithField("component", "orchestrator"),
	}
}

// Send submits the intent and returns the pending record. Confirmation
// tracking continues in the background after return; the caller observes
// the outcome through the wallet state store.
func (o *Orchestrator) Send(ctx context.Context, intent wallet.SendIntent, derivationPath string) (wallet.TxRecord, error) {
	adapter, err := o.registry.Get(intent.Chain)
	if err != nil {
		return wallet.TxRecord{}, err
	}

	log := o.log.WithFields(logrus.Fields{
		"send_id": uuid.NewString(),
		"chain":   intent.Chain,
	})

	// Fail closed: no signing key leaves the keyring without the gate's
	// approval.
	if o.auth != nil {
		if err := o.auth.Authenticate(ctx); err != nil {
			log.WithError(err).Warn("authentication challenge failed")
			metrics.SendsTotal.WithLabelValues(intent.Chain.String(), "auth_failed").Inc()
			return wallet.TxRecord{}, &wallet.AuthError{Reason: err.Error()}
		}
	}

	phrase, err := o.seeds.Phrase(ctx)
	if err != nil {
		metrics.SendsTotal.WithLabelValues(intent.Chain.String(), "network_failed").Inc()
		return wallet.TxRecord{}, fmt.Errorf("failed to obtain seed phrase: %w", err)
	}

	key, err := adapter.DeriveKey(phrase, derivationPath)
	if err != nil {
		metrics.SendsTotal.WithLabelValues(intent.Chain.String(), "network_failed").Inc()
		return wallet.TxRecord{}, fmt.Errorf("failed to derive signing key: %w", err)
	}

	record, err := adapter.Submit(ctx, key, intent.ToAddress, intent.Amount)
	if err != nil {
		log.WithError(err).Error("broadcast failed")
		metrics.SendsTotal.WithLabelValues(intent.Chain.String(), "submission_failed").Inc()
		return wallet.TxRecord{}, err
	}

	if err := o.store.AppendTransaction(record); err != nil {
		// The transaction is on the wire; surface the bookkeeping
		// failure but keep the record for the caller.
		log.WithError(err).Error("failed to record submitted transaction")
		return record, err
	}

	log.WithField("tx", record.Hash).Info("transaction submitted")
	metrics.SendsTotal.WithLabelValues(intent.Chain.String(), "submitted").Inc()

	// Tracking outlives the request that started it.
	go func() {
		state, err := o.tracker.Track(context.WithoutCancel(ctx), adapter, record.Hash)
		if err != nil {
			log.WithError(err).WithField("tx", record.Hash).Warn("confirmation watch ended with error")
		}
		if state != "" {
			metrics.ConfirmationsTotal.WithLabelValues(intent.Chain.String(), string(state)).Inc()
		}
	}()

	return record, nil
}
