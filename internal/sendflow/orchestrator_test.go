package sendflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/confirm"
	"github.com/Tanishq1604/HD-wallet/internal/keyring"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
	"github.com/Tanishq1604/HD-wallet/internal/walletstate"
)

type fakeAuth struct {
	err   error
	calls int
}

func (a *fakeAuth) Authenticate(context.Context) error {
	a.calls++
	return a.err
}

func sendFixture(adapter *fakeAdapter, auth Authenticator) (*Orchestrator, *walletstate.Store) {
	store := walletstate.NewStore()
	tracker := confirm.New(store, 500*time.Millisecond, 10*time.Millisecond)
	seeds := keyring.StaticSource{Mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"}
	return NewOrchestrator(wallet.NewRegistry(adapter), seeds, store, tracker, auth), store
}

func TestSendHappyPath(t *testing.T) {
	adapter := &fakeAdapter{
		id:        chain.Ethereum,
		submitRec: wallet.TxRecord{Hash: "0xabc", Chain: chain.Ethereum, Status: wallet.StatePending, SubmittedAt: time.Now()},
		confirmed: true,
	}
	auth := &fakeAuth{}
	orch, store := sendFixture(adapter, auth)

	intent := wallet.SendIntent{Chain: chain.Ethereum, ToAddress: goodEthAddr, Amount: "1.5"}
	rec, err := orch.Send(context.Background(), intent, "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	require.Equal(t, "0xabc", rec.Hash)
	require.Equal(t, wallet.StatePending, rec.Status)
	require.Equal(t, 1, auth.calls)

	// The pending record lands immediately; the tracker confirms it.
	got, err := store.Transaction(chain.Ethereum, "0xabc")
	require.NoError(t, err)
	require.Equal(t, chain.Ethereum, got.Chain)

	require.Eventually(t, func() bool {
		got, err := store.Transaction(chain.Ethereum, "0xabc")
		return err == nil && got.Status == wallet.StateConfirmed
	}, time.Second, 10*time.Millisecond)
}

func TestSendFailClosedOnAuth(t *testing.T) {
	adapter := &fakeAdapter{
		id:        chain.Ethereum,
		submitRec: wallet.TxRecord{Hash: "0xabc", Chain: chain.Ethereum, Status: wallet.StatePending},
	}
	orch, store := sendFixture(adapter, &fakeAuth{err: errors.New("challenge cancelled")})

	_, err := orch.Send(context.Background(), wallet.SendIntent{Chain: chain.Ethereum, ToAddress: goodEthAddr, Amount: "1"}, "m/44'/60'/0'/0/0")
	var authErr *wallet.AuthError
	require.ErrorAs(t, err, &authErr)

	// No state was committed.
	txs, err := store.Transactions(chain.Ethereum)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestSendNoRecordOnBroadcastRejection(t *testing.T) {
	adapter := &fakeAdapter{
		id:        chain.Ethereum,
		submitErr: &wallet.SubmissionError{Chain: "ethereum", Err: errors.New("nonce too low")},
	}
	orch, store := sendFixture(adapter, nil)

	_, err := orch.Send(context.Background(), wallet.SendIntent{Chain: chain.Ethereum, ToAddress: goodEthAddr, Amount: "1"}, "m/44'/60'/0'/0/0")
	var subErr *wallet.SubmissionError
	require.ErrorAs(t, err, &subErr)

	txs, err := store.Transactions(chain.Ethereum)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestSendNoRecordOnKeyFailure(t *testing.T) {
	adapter := &fakeAdapter{
		id:     chain.Ethereum,
		keyErr: errors.New("bad derivation path"),
	}
	orch, store := sendFixture(adapter, nil)

	_, err := orch.Send(context.Background(), wallet.SendIntent{Chain: chain.Ethereum, ToAddress: goodEthAddr, Amount: "1"}, "not-a-path")
	require.Error(t, err)

	txs, err := store.Transactions(chain.Ethereum)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestSendTimeoutMarksFailed(t *testing.T) {
	adapter := &fakeAdapter{
		id:        chain.Tron,
		submitRec: wallet.TxRecord{Hash: "txid1", Chain: chain.Tron, Status: wallet.StatePending},
		confirmed: false, // never finalizes
	}
	store := walletstate.NewStore()
	tracker := confirm.New(store, 50*time.Millisecond, 10*time.Millisecond)
	seeds := keyring.StaticSource{Mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"}
	orch := NewOrchestrator(wallet.NewRegistry(adapter), seeds, store, tracker, nil)

	_, err := orch.Send(context.Background(), wallet.SendIntent{Chain: chain.Tron, ToAddress: "Tdest", Amount: "1"}, "m/44'/195'/0'/0/0")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := store.Transaction(chain.Tron, "txid1")
		return err == nil && got.Status == wallet.StateFailed
	}, time.Second, 10*time.Millisecond)
}
