package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/keyring"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
)

// LamportsPerSol is the native unit divisor (1 SOL = 1e9 lamports).
const LamportsPerSol = 1_000_000_000

// Fallback when the RPC node does not price the message: one signature at
// the long-standing default lamports-per-signature rate.
const defaultFeeLamports = 5000

// Client is the subset of the Solana RPC surface the adapter needs.
// *rpc.Client satisfies it.
type Client interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetFeeForMessage(ctx context.Context, message string, commitment rpc.CommitmentType) (*rpc.GetFeeForMessageResult, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Adapter implements the wallet.Adapter capability set for Solana.
type Adapter struct {
	rpc     Client
	deriver *keyring.Deriver
}

func New(rpc Client, deriver *keyring.Deriver) *Adapter {
	return &Adapter{rpc: rpc, deriver: deriver}
}

// Dial connects to a Solana RPC endpoint.
func Dial(rpcURL string, deriver *keyring.Deriver) *Adapter {
	return New(rpc.New(rpcURL), deriver)
}

func (a *Adapter) Chain() chain.ID {
	return chain.Solana
}

// ValidateAddress accepts strings that base58-decode to a 32-byte public
// key. Logically pure; the rpc handle is not touched.
func (a *Adapter) ValidateAddress(_ context.Context, address string) (bool, error) {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil, nil
}

// EstimateFee prices a transfer message against the current blockhash. The
// fee does not depend on the lamport amount, so zero amounts price the same
// message shape.
func (a *Adapter) EstimateFee(ctx context.Context, from, to, amount string) (wallet.FeeEstimate, error) {
	fromKey, err := solana.PublicKeyFromBase58(from)
	if err != nil {
		return wallet.FeeEstimate{}, fmt.Errorf("invalid sender address: %w", err)
	}
	toKey, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return wallet.FeeEstimate{}, fmt.Errorf("invalid recipient address: %w", err)
	}

	lamports, err := lamportsFromDisplay(amount)
	if err != nil {
		lamports = 0
	}

	block, err := a.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return wallet.FeeEstimate{}, &wallet.NetworkError{
			Chain: chain.Solana.String(),
			Op:    "fetch blockhash",
			Err:   err,
		}
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, fromKey, toKey).Build()},
		block.Value.Blockhash,
		solana.TransactionPayer(fromKey),
	)
	if err != nil {
		return wallet.FeeEstimate{}, fmt.Errorf("failed to build transfer message: %w", err)
	}

	msgBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return wallet.FeeEstimate{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	feeLamports := uint64(defaultFeeLamports)
	feeResult, err := a.rpc.GetFeeForMessage(ctx, base64.StdEncoding.EncodeToString(msgBytes), rpc.CommitmentFinalized)
	if err != nil {
		return wallet.FeeEstimate{}, &wallet.NetworkError{
			Chain: chain.Solana.String(),
			Op:    "estimate fee",
			Err:   err,
		}
	}
	if feeResult != nil && feeResult.Value != nil && *feeResult.Value > 0 {
		feeLamports = *feeResult.Value
	}

	fee := new(big.Int).SetUint64(feeLamports)
	return wallet.FeeEstimate{
		NativeFee:   fee,
		DisplayFee:  chain.FromBaseUnits(fee, chain.NativeDecimals[chain.Solana]),
		EstimatedAt: time.Now(),
	}, nil
}

func (a *Adapter) Balance(ctx context.Context, address string) (string, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return "", fmt.Errorf("invalid address: %w", err)
	}

	result, err := a.rpc.GetBalance(ctx, key, rpc.CommitmentFinalized)
	if err != nil {
		return "", &wallet.NetworkError{
			Chain: chain.Solana.String(),
			Op:    "fetch balance",
			Err:   err,
		}
	}
	return chain.FromBaseUnits(new(big.Int).SetUint64(result.Value), chain.NativeDecimals[chain.Solana]), nil
}

func (a *Adapter) DeriveKey(seedPhrase, derivationPath string) (wallet.SigningKey, error) {
	seed, err := a.deriver.PrivateKey(seedPhrase, derivationPath)
	if err != nil {
		return wallet.SigningKey{}, fmt.Errorf("failed to derive key: %w", err)
	}

	priv := solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
	return wallet.SigningKey{
		Chain:   chain.Solana,
		Raw:     priv,
		Address: priv.PublicKey().String(),
	}, nil
}

func (a *Adapter) Submit(ctx context.Context, key wallet.SigningKey, to, amount string) (wallet.TxRecord, error) {
	priv := solana.PrivateKey(key.Raw)
	from := priv.PublicKey()

	toKey, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return wallet.TxRecord{}, fmt.Errorf("invalid recipient address: %w", err)
	}

	lamports, err := lamportsFromDisplay(amount)
	if err != nil {
		return wallet.TxRecord{}, fmt.Errorf("invalid amount: %w", err)
	}

	block, err := a.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return wallet.TxRecord{}, &wallet.NetworkError{
			Chain: chain.Solana.String(),
			Op:    "fetch blockhash",
			Err:   err,
		}
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, from, toKey).Build()},
		block.Value.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return wallet.TxRecord{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	_, err = tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(from) {
			return &priv
		}
		return nil
	})
	if err != nil {
		return wallet.TxRecord{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := a.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return wallet.TxRecord{}, &wallet.SubmissionError{Chain: chain.Solana.String(), Err: err}
	}

	return wallet.TxRecord{
		Hash:        sig.String(),
		Chain:       chain.Solana,
		Status:      wallet.StatePending,
		SubmittedAt: time.Now(),
	}, nil
}

// Confirm reports whether the signature reached finalized commitment.
func (a *Adapter) Confirm(ctx context.Context, txID string) (bool, error) {
	sig, err := solana.SignatureFromBase58(txID)
	if err != nil {
		return false, fmt.Errorf("invalid signature: %w", err)
	}

	statuses, err := a.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return false, &wallet.NetworkError{
			Chain: chain.Solana.String(),
			Op:    "fetch signature status",
			Err:   err,
		}
	}
	if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return false, nil
	}

	status := statuses.Value[0]
	if status.Err != nil {
		return false, nil
	}
	return status.ConfirmationStatus == rpc.ConfirmationStatusFinalized, nil
}

// MaxSendable is (balance*1e9 - feeLamports)/1e9, clamped to zero with a
// non-fatal warning when the fee eats the whole balance.
func (a *Adapter) MaxSendable(ctx context.Context, from, to, balance string) (wallet.MaxAmount, error) {
	balanceLamports, err := lamportsFromDisplay(balance)
	if err != nil {
		return wallet.MaxAmount{}, fmt.Errorf("invalid balance: %w", err)
	}

	fee, err := a.EstimateFee(ctx, from, to, balance)
	if err != nil {
		return wallet.MaxAmount{}, err
	}

	max := new(big.Int).Sub(new(big.Int).SetUint64(balanceLamports), fee.NativeFee)
	if max.Sign() <= 0 {
		return wallet.MaxAmount{
			Amount:  "0",
			Warning: "insufficient funds for transaction fee",
		}, nil
	}
	return wallet.MaxAmount{Amount: chain.FromBaseUnits(max, chain.NativeDecimals[chain.Solana])}, nil
}

func lamportsFromDisplay(amount string) (uint64, error) {
	base, err := chain.ToBaseUnits(amount, chain.NativeDecimals[chain.Solana])
	if err != nil {
		return 0, err
	}
	if base.Sign() < 0 || !base.IsUint64() {
		return 0, fmt.Errorf("amount out of range: %s", amount)
	}
	return base.Uint64(), nil
}
