package walletstate

import (
	"fmt"
	"sync"
	"time"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
)

// Account is one derived address on a chain.
type Account struct {
	Name           string
	DerivationPath string
	Address        string
	PublicKey      string
	Balance        string
	UpdatedAt      time.Time
}

// chainState holds everything known about one chain, guarded by its own
// lock so a slow chain cannot stall the others.
type chainState struct {
	mu       sync.Mutex
	accounts []Account
	active   int
	txs      []wallet.TxRecord
	txIndex  map[string]int
}

// Store is the in-memory wallet state: accounts, balances and the
// transaction history with its confirmation lifecycle. Confirmation states
// only move forward; a terminal state never changes again.
type Store struct {
	chains map[chain.ID]*chainState
}

func NewStore() *Store {
	chains := make(map[chain.ID]*chainState, len(chain.All()))
	for _, id := range chain.All() {
		chains[id] = &chainState{txIndex: make(map[string]int)}
	}
	return &Store{chains: chains}
}

func (s *Store) state(id chain.ID) (*chainState, error) {
	cs, ok := s.chains[id]
	if !ok {
		return nil, fmt.Errorf("unknown chain: %s", id)
	}
	return cs, nil
}

// SaveAccounts replaces the account list for a chain. The active index is
// clamped into the new list.
func (s *Store) SaveAccounts(id chain.ID, accounts []Account) error {
	cs, err := s.state(id)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.accounts = make([]Account, len(accounts))
	copy(cs.accounts, accounts)
	if cs.active >= len(cs.accounts) {
		cs.active = 0
	}
	return nil
}

// AddAccount appends one account, rejecting duplicate addresses.
func (s *Store) AddAccount(id chain.ID, account Account) error {
	cs, err := s.state(id)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, existing := range cs.accounts {
		if existing.Address == account.Address {
			return fmt.Errorf("account %s already exists on %s", account.Address, id)
		}
	}
	cs.accounts = append(cs.accounts, account)
	return nil
}

func (s *Store) Accounts(id chain.ID) ([]Account, error) {
	cs, err := s.state(id)
	if err != nil {
		return nil, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make([]Account, len(cs.accounts))
	copy(out, cs.accounts)
	return out, nil
}

// SetActiveAccount selects which account send operations draw from.
func (s *Store) SetActiveAccount(id chain.ID, index int) error {
	cs, err := s.state(id)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if index < 0 || index >= len(cs.accounts) {
		return fmt.Errorf("account index %d out of range on %s", index, id)
	}
	cs.active = index
	return nil
}

// ActiveAccount returns the currently selected account.
func (s *Store) ActiveAccount(id chain.ID) (Account, error) {
	cs, err := s.state(id)
	if err != nil {
		return Account{}, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if len(cs.accounts) == 0 {
		return Account{}, fmt.Errorf("no accounts on %s", id)
	}
	return cs.accounts[cs.active], nil
}

// RenameAccount updates the display name of the account at index.
func (s *Store) RenameAccount(id chain.ID, index int, name string) error {
	cs, err := s.state(id)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if index < 0 || index >= len(cs.accounts) {
		return fmt.Errorf("account index %d out of range on %s", index, id)
	}
	cs.accounts[index].Name = name
	return nil
}

// UpdateBalance records a freshly fetched balance for an address.
func (s *Store) UpdateBalance(id chain.ID, address, balance string) error {
	cs, err := s.state(id)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for i := range cs.accounts {
		if cs.accounts[i].Address == address {
			cs.accounts[i].Balance = balance
			cs.accounts[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("no account %s on %s", address, id)
}

// AppendTransaction records a newly submitted transaction. Hashes are
// unique per chain.
func (s *Store) AppendTransaction(rec wallet.TxRecord) error {
	cs, err := s.state(rec.Chain)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := cs.txIndex[rec.Hash]; ok {
		return fmt.Errorf("transaction %s already recorded on %s", rec.Hash, rec.Chain)
	}
	cs.txIndex[rec.Hash] = len(cs.txs)
	cs.txs = append(cs.txs, rec)
	return nil
}

// SetConfirmationState advances a transaction's lifecycle. Setting the
// current state again is a no-op; moving out of a terminal state is an
// error.
func (s *Store) SetConfirmationState(id chain.ID, hash string, state wallet.ConfirmationState) error {
	cs, err := s.state(id)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	idx, ok := cs.txIndex[hash]
	if !ok {
		return fmt.Errorf("unknown transaction %s on %s", hash, id)
	}
	current := cs.txs[idx].Status
	if current == state {
		return nil
	}
	if current.Terminal() {
		return fmt.Errorf("transaction %s is already %s", hash, current)
	}
	cs.txs[idx].Status = state
	return nil
}

// Transaction looks up one record by hash.
func (s *Store) Transaction(id chain.ID, hash string) (wallet.TxRecord, error) {
	cs, err := s.state(id)
	if err != nil {
		return wallet.TxRecord{}, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	idx, ok := cs.txIndex[hash]
	if !ok {
		return wallet.TxRecord{}, fmt.Errorf("unknown transaction %s on %s", hash, id)
	}
	return cs.txs[idx], nil
}

// Transactions returns the chain's history, oldest first.
func (s *Store) Transactions(id chain.ID) ([]wallet.TxRecord, error) {
	cs, err := s.state(id)
	if err != nil {
		return nil, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make([]wallet.TxRecord, len(cs.txs))
	copy(out, cs.txs)
	return out, nil
}

// Reset drops all state, for wallet wipe.
func (s *Store) Reset() {
	for _, cs := range s.chains {
		cs.mu.Lock()
		cs.accounts = nil
		cs.active = 0
		cs.txs = nil
		cs.txIndex = make(map[string]int)
		cs.mu.Unlock()
	}
}
