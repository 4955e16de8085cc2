package wallet

import (
	"context"
	"math/big"
	"time"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
)

// ConfirmationState tracks the lifecycle of a broadcast transaction.
// Pending is the only non-terminal state; once Confirmed or Failed is
// recorded the state never changes again.
type ConfirmationState string

const (
	StatePending   ConfirmationState = "pending"
	StateConfirmed ConfirmationState = "confirmed"
	StateFailed    ConfirmationState = "failed"
)

// Terminal reports whether the state allows no further transitions.
func (s ConfirmationState) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// SendIntent is a user's request to transfer Amount (display-unit decimal
// string) to ToAddress on Chain. It is owned by a single send flow and
// consumed once by the orchestrator.
type SendIntent struct {
	Chain       chain.ID
	FromAddress string
	ToAddress   string
	Amount      string
}

// FeeEstimate is the predicted network cost of a transaction. NativeFee is
// in the chain's smallest unit, DisplayFee in display units. Estimates are
// advisory: they are re-polled while a confirmation view is open and stale
// ones are discarded, not merged.
type FeeEstimate struct {
	NativeFee   *big.Int
	DisplayFee  string
	EstimatedAt time.Time
}

// TxRecord is created the instant a submission returns a hash and outlives
// the flow that created it.
type TxRecord struct {
	Hash        string
	Chain       chain.ID
	Status      ConfirmationState
	SubmittedAt time.Time
}

// MaxAmount is the result of a max-sendable computation. Warning is set
// when the balance cannot cover the network fee and the amount was clamped.
type MaxAmount struct {
	Amount  string
	Warning string
}

// SigningKey is a chain-specific signing key derived from a seed phrase.
// Raw holds the private key material in the chain's native encoding;
// Address is the account it controls.
type SigningKey struct {
	Chain   chain.ID
	Raw     []byte
	Address string
}

// Adapter is the per-chain capability contract: address validation, fee and
// cost estimation, balance lookup, key derivation, submission and a
// single-shot finality check. One implementation exists per chain.ID and is
// selected through the Registry, never via chain conditionals in callers.
type Adapter interface {
	Chain() chain.ID

	// ValidateAddress checks the chain-specific address grammar. A
	// syntactically invalid string yields (false, nil), never an error.
	ValidateAddress(ctx context.Context, address string) (bool, error)

	// EstimateFee predicts the network fee for sending amount from->to.
	// amount <= 0 is allowed and still yields a fee >= 0.
	EstimateFee(ctx context.Context, from, to, amount string) (FeeEstimate, error)

	// Balance returns the spendable balance in display units.
	Balance(ctx context.Context, address string) (string, error)

	// DeriveKey deterministically derives the chain signing key. The same
	// (seedPhrase, derivationPath) pair always yields the same key.
	DeriveKey(seedPhrase, derivationPath string) (SigningKey, error)

	// Submit signs and broadcasts a transfer, returning a Pending record.
	// Broadcast rejection surfaces as a SubmissionError.
	Submit(ctx context.Context, key SigningKey, to, amount string) (TxRecord, error)

	// Confirm is a single-shot finality check. false does not distinguish
	// on-chain failure from "not yet final"; the caller retries or times out.
	Confirm(ctx context.Context, txID string) (bool, error)

	// MaxSendable computes the maximum transferable amount for the chain's
	// fee model, given the current display-unit balance.
	MaxSendable(ctx context.Context, from, to, balance string) (MaxAmount, error)
}
