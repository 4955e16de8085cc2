package walletstate

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
)

func TestAccounts(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.SaveAccounts(chain.Ethereum, []Account{
		{Name: "Main", Address: "0xaaa", DerivationPath: "m/44'/60'/0'/0/0"},
		{Name: "Savings", Address: "0xbbb", DerivationPath: "m/44'/60'/0'/0/1"},
	}))

	active, err := store.ActiveAccount(chain.Ethereum)
	require.NoError(t, err)
	require.Equal(t, "Main", active.Name)

	require.NoError(t, store.SetActiveAccount(chain.Ethereum, 1))
	active, err = store.ActiveAccount(chain.Ethereum)
	require.NoError(t, err)
	require.Equal(t, "Savings", active.Name)

	require.Error(t, store.SetActiveAccount(chain.Ethereum, 2))

	require.NoError(t, store.RenameAccount(chain.Ethereum, 1, "Cold"))
	accounts, err := store.Accounts(chain.Ethereum)
	require.NoError(t, err)
	require.Equal(t, "Cold", accounts[1].Name)

	// Per-chain isolation.
	_, err = store.ActiveAccount(chain.Solana)
	require.Error(t, err)
}

func TestAddAccountRejectsDuplicates(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.AddAccount(chain.Tron, Account{Name: "Main", Address: "Txyz"}))
	err := store.AddAccount(chain.Tron, Account{Name: "Other", Address: "Txyz"})
	require.Error(t, err)
}

func TestUpdateBalance(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.AddAccount(chain.Solana, Account{Name: "Main", Address: "So1abc"}))

	require.NoError(t, store.UpdateBalance(chain.Solana, "So1abc", "1.5"))
	accounts, err := store.Accounts(chain.Solana)
	require.NoError(t, err)
	require.Equal(t, "1.5", accounts[0].Balance)
	require.False(t, accounts[0].UpdatedAt.IsZero())

	require.Error(t, store.UpdateBalance(chain.Solana, "unknown", "1"))
}

func TestTransactionLifecycle(t *testing.T) {
	store := NewStore()

	rec := wallet.TxRecord{Hash: "0xabc", Chain: chain.Ethereum, Status: wallet.StatePending}
	require.NoError(t, store.AppendTransaction(rec))
	require.Error(t, store.AppendTransaction(rec), "duplicate hash")

	// Pending -> Confirmed sticks.
	require.NoError(t, store.SetConfirmationState(chain.Ethereum, "0xabc", wallet.StateConfirmed))
	got, err := store.Transaction(chain.Ethereum, "0xabc")
	require.NoError(t, err)
	require.Equal(t, wallet.StateConfirmed, got.Status)

	// Terminal states are final.
	require.Error(t, store.SetConfirmationState(chain.Ethereum, "0xabc", wallet.StateFailed))
	require.Error(t, store.SetConfirmationState(chain.Ethereum, "0xabc", wallet.StatePending))

	// Re-recording the same state is harmless.
	require.NoError(t, store.SetConfirmationState(chain.Ethereum, "0xabc", wallet.StateConfirmed))

	require.Error(t, store.SetConfirmationState(chain.Ethereum, "0xmissing", wallet.StateConfirmed))
}

func TestTransactionsOrdered(t *testing.T) {
	store := NewStore()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendTransaction(wallet.TxRecord{
			Hash:   fmt.Sprintf("0x%d", i),
			Chain:  chain.Tron,
			Status: wallet.StatePending,
		}))
	}

	txs, err := store.Transactions(chain.Tron)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	require.Equal(t, "0x0", txs[0].Hash)
	require.Equal(t, "0x2", txs[2].Hash)
}

func TestConcurrentWrites(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.AppendTransaction(wallet.TxRecord{
				Hash:   fmt.Sprintf("0x%d", i),
				Chain:  chain.Neo,
				Status: wallet.StatePending,
			})
		}(i)
	}
	wg.Wait()

	txs, err := store.Transactions(chain.Neo)
	require.NoError(t, err)
	require.Len(t, txs, 20)
}

func TestReset(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.AddAccount(chain.Ethereum, Account{Address: "0xaaa"}))
	require.NoError(t, store.AppendTransaction(wallet.TxRecord{Hash: "0x1", Chain: chain.Ethereum, Status: wallet.StatePending}))

	store.Reset()

	accounts, err := store.Accounts(chain.Ethereum)
	require.NoError(t, err)
	require.Empty(t, accounts)
	_, err = store.Transaction(chain.Ethereum, "0x1")
	require.Error(t, err)
}
