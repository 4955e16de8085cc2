package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	ecommon "github.com/ethereum/go-ethereum/common"
	etypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/keyring"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
)

// Native ETH transfers always consume exactly this much gas.
const transferGasLimit = 21000

// Client is the subset of the Ethereum RPC surface the adapter needs.
// *ethclient.Client satisfies it.
type Client interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account ecommon.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account ecommon.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *etypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash ecommon.Hash) (*etypes.Receipt, error)
}

// Adapter implements the wallet.Adapter capability set for Ethereum.
type Adapter struct {
	rpc     Client
	chainID *big.Int
	deriver *keyring.Deriver
}

func New(rpc Client, chainID *big.Int, deriver *keyring.Deriver) *Adapter {
	return &Adapter{
		rpc:     rpc,
		chainID: chainID,
		deriver: deriver,
	}
}

// Dial connects to an Ethereum RPC endpoint and resolves its chain ID.
func Dial(ctx context.Context, rpcURL string, deriver *keyring.Deriver) (*Adapter, error) {
	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	return New(rpc, chainID, deriver), nil
}

func (a *Adapter) Chain() chain.ID {
	return chain.Ethereum
}

// ValidateAddress checks the 0x-prefixed 40-hex-digit grammar. Mixed-case
// input must additionally carry a correct EIP-55 checksum; all-lower or
// all-upper input skips the checksum judgment. Pure, no I/O.
func (a *Adapter) ValidateAddress(_ context.Context, address string) (bool, error) {
	// IsHexAddress tolerates a missing 0x prefix; the grammar does not.
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return false, nil
	}
	if !ecommon.IsHexAddress(address) {
		return false, nil
	}

	hexPart := strings.TrimPrefix(address, "0x")
	hexPart = strings.TrimPrefix(hexPart, "0X")
	hasLower := strings.ContainsAny(hexPart, "abcdef")
	hasUpper := strings.ContainsAny(hexPart, "ABCDEF")
	if hasLower && hasUpper {
		return ecommon.HexToAddress(address).Hex() == "0x"+hexPart, nil
	}
	return true, nil
}

// EstimateFee returns gas price x gas limit. The amount does not change the
// gas cost of a plain value transfer, so a zero or negative amount still
// yields a valid fee.
func (a *Adapter) EstimateFee(ctx context.Context, _, _, _ string) (wallet.FeeEstimate, error) {
	gasPrice, err := a.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return wallet.FeeEstimate{}, &wallet.NetworkError{
			Chain: chain.Ethereum.String(),
			Op:    "estimate gas price",
			Err:   err,
		}
	}

	fee := new(big.Int).Mul(gasPrice, big.NewInt(transferGasLimit))
	return wallet.FeeEstimate{
		NativeFee:   fee,
		DisplayFee:  chain.FromBaseUnits(fee, chain.NativeDecimals[chain.Ethereum]),
		EstimatedAt: time.Now(),
	}, nil
}

func (a *Adapter) Balance(ctx context.Context, address string) (string, error) {
	wei, err := a.rpc.BalanceAt(ctx, ecommon.HexToAddress(address), nil)
	if err != nil {
		return "", &wallet.NetworkError{
			Chain: chain.Ethereum.String(),
			Op:    "fetch balance",
			Err:   err,
		}
	}
	return chain.FromBaseUnits(wei, chain.NativeDecimals[chain.Ethereum]), nil
}

func (a *Adapter) DeriveKey(seedPhrase, derivationPath string) (wallet.SigningKey, error) {
	priv, err := a.deriver.PrivateKey(seedPhrase, derivationPath)
	if err != nil {
		return wallet.SigningKey{}, fmt.Errorf("failed to derive key: %w", err)
	}

	ecdsaKey, err := crypto.ToECDSA(priv)
	if err != nil {
		return wallet.SigningKey{}, fmt.Errorf("derived key is not a valid secp256k1 key: %w", err)
	}

	return wallet.SigningKey{
		Chain:   chain.Ethereum,
		Raw:     priv,
		Address: crypto.PubkeyToAddress(ecdsaKey.PublicKey).Hex(),
	}, nil
}

// Submit signs an EIP-155 native transfer and broadcasts it. On success the
// returned record is Pending; a rejected broadcast yields a SubmissionError
// and no record.
func (a *Adapter) Submit(ctx context.Context, key wallet.SigningKey, to, amount string) (wallet.TxRecord, error) {
	ecdsaKey, err := crypto.ToECDSA(key.Raw)
	if err != nil {
		return wallet.TxRecord{}, fmt.Errorf("invalid signing key: %w", err)
	}

	wei, err := chain.ToBaseUnits(amount, chain.NativeDecimals[chain.Ethereum])
	if err != nil {
		return wallet.TxRecord{}, fmt.Errorf("invalid amount: %w", err)
	}

	from := crypto.PubkeyToAddress(ecdsaKey.PublicKey)
	nonce, err := a.rpc.PendingNonceAt(ctx, from)
	if err != nil {
		return wallet.TxRecord{}, &wallet.NetworkError{
			Chain: chain.Ethereum.String(),
			Op:    "fetch nonce",
			Err:   err,
		}
	}

	gasPrice, err := a.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return wallet.TxRecord{}, &wallet.NetworkError{
			Chain: chain.Ethereum.String(),
			Op:    "estimate gas price",
			Err:   err,
		}
	}

	toAddr := ecommon.HexToAddress(to)
	tx := etypes.NewTx(&etypes.LegacyTx{
		Nonce:    nonce,
		To:       &toAddr,
		Value:    wei,
		Gas:      transferGasLimit,
		GasPrice: gasPrice,
	})

	signedTx, err := etypes.SignTx(tx, etypes.LatestSignerForChainID(a.chainID), ecdsaKey)
	if err != nil {
		return wallet.TxRecord{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := a.rpc.SendTransaction(ctx, signedTx); err != nil {
		return wallet.TxRecord{}, &wallet.SubmissionError{Chain: chain.Ethereum.String(), Err: err}
	}

	return wallet.TxRecord{
		Hash:        signedTx.Hash().Hex(),
		Chain:       chain.Ethereum,
		Status:      wallet.StatePending,
		SubmittedAt: time.Now(),
	}, nil
}

// Confirm reports finality from the transaction receipt. A missing receipt
// is "not yet final", not an error.
func (a *Adapter) Confirm(ctx context.Context, txID string) (bool, error) {
	receipt, err := a.rpc.TransactionReceipt(ctx, ecommon.HexToHash(txID))
	if err != nil {
		if errors.Is(err, goethereum.NotFound) {
			return false, nil
		}
		return false, &wallet.NetworkError{
			Chain: chain.Ethereum.String(),
			Op:    "fetch receipt",
			Err:   err,
		}
	}
	return receipt.Status == etypes.ReceiptStatusSuccessful, nil
}

// MaxSendable returns balance minus the current gas fee, clamped to zero.
func (a *Adapter) MaxSendable(ctx context.Context, from, to, balance string) (wallet.MaxAmount, error) {
	decimals := chain.NativeDecimals[chain.Ethereum]
	balanceWei, err := chain.ToBaseUnits(balance, decimals)
	if err != nil {
		return wallet.MaxAmount{}, fmt.Errorf("invalid balance: %w", err)
	}

	fee, err := a.EstimateFee(ctx, from, to, balance)
	if err != nil {
		return wallet.MaxAmount{}, err
	}

	max := new(big.Int).Sub(balanceWei, fee.NativeFee)
	if max.Sign() <= 0 {
		return wallet.MaxAmount{
			Amount:  "0",
			Warning: "insufficient funds for gas costs",
		}, nil
	}
	return wallet.MaxAmount{Amount: chain.FromBaseUnits(max, decimals)}, nil
}
