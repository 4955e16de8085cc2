package neo

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/shopspring/decimal"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/keyring"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
)

const (
	// fixed8Decimals is the GAS token precision.
	fixed8Decimals = 8

	// defaultTransferFee covers system plus network fee for a standard
	// single-sig GAS transfer when the node cannot be asked to price one.
	defaultTransferFee = 1_300_000

	// validUntilBlockIncrement bounds how long a built transaction stays
	// broadcastable.
	validUntilBlockIncrement = 5760
)

// Adapter implements the wallet.Adapter capability set for Neo N3. Transfers
// move the native GAS token via NEP-17 contract invocation.
type Adapter struct {
	rpc     RPC
	deriver *keyring.Deriver

	mu    sync.Mutex
	magic uint32
}

func New(rpc RPC, deriver *keyring.Deriver) *Adapter {
	return &Adapter{rpc: rpc, deriver: deriver}
}

func (a *Adapter) Chain() chain.ID {
	return chain.Neo
}

// ValidateAddress checks base58check grammar with the N3 version byte.
// Pure, no I/O.
func (a *Adapter) ValidateAddress(_ context.Context, addr string) (bool, error) {
	decoded, version, err := base58.CheckDecode(addr)
	if err != nil {
		return false, nil
	}
	return version == addressVersion && len(decoded) == 20, nil
}

// EstimateFee prices a GAS transfer as system fee (VM execution, from a test
// invocation) plus network fee (size and witness verification, priced by the
// node). Falls back to a flat fee when the probe cannot be built.
func (a *Adapter) EstimateFee(ctx context.Context, from, to, amount string) (wallet.FeeEstimate, error) {
	feeDatoshi := int64(defaultTransferFee)

	if tx, _, err := a.buildTransfer(ctx, from, to, amount); err == nil {
		feeDatoshi = tx.SystemFee + tx.NetworkFee
	} else if _, ok := err.(*wallet.NetworkError); ok {
		return wallet.FeeEstimate{}, err
	}

	fee := big.NewInt(feeDatoshi)
	return wallet.FeeEstimate{
		NativeFee:   fee,
		DisplayFee:  fromFixed8(feeDatoshi),
		EstimatedAt: time.Now(),
	}, nil
}

func (a *Adapter) Balance(ctx context.Context, addr string) (string, error) {
	balances, err := a.rpc.GetNEP17Balances(ctx, addr)
	if err != nil {
		return "", &wallet.NetworkError{
			Chain: chain.Neo.String(),
			Op:    "fetch balances",
			Err:   err,
		}
	}
	for _, b := range balances.Balance {
		if b.AssetHash == "0x"+gasTokenHash {
			units, err := strconv.ParseInt(b.Amount, 10, 64)
			if err != nil {
				return "", fmt.Errorf("unparseable balance %q: %w", b.Amount, err)
			}
			return fromFixed8(units), nil
		}
	}
	return "0", nil
}

// DeriveKey reduces the derived 32 bytes into a P-256 scalar; Neo signs on
// secp256r1, not the secp256k1 curve the other chains use.
func (a *Adapter) DeriveKey(seedPhrase, derivationPath string) (wallet.SigningKey, error) {
	raw, err := a.deriver.PrivateKey(seedPhrase, derivationPath)
	if err != nil {
		return wallet.SigningKey{}, fmt.Errorf("failed to derive key: %w", err)
	}

	key, err := p256Key(raw)
	if err != nil {
		return wallet.SigningKey{}, err
	}

	return wallet.SigningKey{
		Chain:   chain.Neo,
		Raw:     raw,
		Address: addressFromPubKey(&key.PublicKey),
	}, nil
}

// Submit builds, prices, signs and broadcasts a GAS transfer.
func (a *Adapter) Submit(ctx context.Context, key wallet.SigningKey, to, amount string) (wallet.TxRecord, error) {
	ecdsaKey, err := p256Key(key.Raw)
	if err != nil {
		return wallet.TxRecord{}, fmt.Errorf("invalid signing key: %w", err)
	}

	tx, magic, err := a.buildTransfer(ctx, key.Address, to, amount)
	if err != nil {
		return wallet.TxRecord{}, err
	}

	if err := tx.Sign(ecdsaKey, magic); err != nil {
		return wallet.TxRecord{}, err
	}

	result, err := a.rpc.SendRawTransaction(ctx, base64.StdEncoding.EncodeToString(tx.Signed()))
	if err != nil {
		return wallet.TxRecord{}, &wallet.SubmissionError{
			Chain: chain.Neo.String(),
			Err:   err,
		}
	}

	hash := result.Hash
	if hash == "" {
		hash = tx.Hash()
	}
	return wallet.TxRecord{
		Hash:        hash,
		Chain:       chain.Neo,
		Status:      wallet.StatePending,
		SubmittedAt: time.Now(),
	}, nil
}

// Confirm reports whether the transaction landed in a block. The node only
// sets blocktime once the containing block is persisted.
func (a *Adapter) Confirm(ctx context.Context, txID string) (bool, error) {
	details, err := a.rpc.GetRawTransaction(ctx, txID)
	if err != nil {
		if _, ok := err.(*rpcError); ok {
			// Unknown to the node, still propagating.
			return false, nil
		}
		return false, &wallet.NetworkError{
			Chain: chain.Neo.String(),
			Op:    "fetch transaction",
			Err:   err,
		}
	}
	return details.BlockTime > 0, nil
}

// MaxSendable is balance minus the estimated fee, clamped at zero.
func (a *Adapter) MaxSendable(ctx context.Context, from, to, balance string) (wallet.MaxAmount, error) {
	balanceUnits, err := toFixed8(balance)
	if err != nil {
		return wallet.MaxAmount{}, fmt.Errorf("invalid balance: %w", err)
	}

	fee, err := a.EstimateFee(ctx, from, to, balance)
	if err != nil {
		return wallet.MaxAmount{}, err
	}

	max := balanceUnits - fee.NativeFee.Int64()
	if max < 0 {
		return wallet.MaxAmount{
			Amount:  "0",
			Warning: "insufficient funds for network fee",
		}, nil
	}
	return wallet.MaxAmount{Amount: fromFixed8(max)}, nil
}

// buildTransfer assembles a priced, unsigned transaction carrying a dummy
// witness sized like the real one.
func (a *Adapter) buildTransfer(ctx context.Context, from, to, amount string) (*Transaction, uint32, error) {
	fromHash, err := addressToScriptHash(from)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid sender address: %w", err)
	}
	toHash, err := addressToScriptHash(to)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid destination address: %w", err)
	}
	units, err := toFixed8(amount)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid amount: %w", err)
	}

	script, err := transferScript(fromHash, toHash, big.NewInt(units))
	if err != nil {
		return nil, 0, err
	}

	magic, err := a.networkMagic(ctx)
	if err != nil {
		return nil, 0, err
	}

	height, err := a.rpc.GetBlockCount(ctx)
	if err != nil {
		return nil, 0, &wallet.NetworkError{
			Chain: chain.Neo.String(),
			Op:    "fetch block height",
			Err:   err,
		}
	}

	invocation, err := a.rpc.InvokeScript(ctx, base64.StdEncoding.EncodeToString(script), []RPCSigner{
		{Account: "0x" + reverseHex(fromHash), Scopes: "CalledByEntry"},
	})
	if err != nil {
		return nil, 0, &wallet.NetworkError{
			Chain: chain.Neo.String(),
			Op:    "price system fee",
			Err:   err,
		}
	}
	systemFee, err := strconv.ParseInt(invocation.GasConsumed, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("unparseable gas consumed %q: %w", invocation.GasConsumed, err)
	}

	tx := &Transaction{
		Nonce:           randomNonce(),
		SystemFee:       systemFee,
		ValidUntilBlock: height + validUntilBlockIncrement,
		Sender:          fromHash,
		Script:          script,
	}

	// Size-correct placeholder witness so the node can price verification.
	tx.dummyWitness(make([]byte, 33))

	networkFee, err := a.rpc.CalculateNetworkFee(ctx, base64.StdEncoding.EncodeToString(tx.Signed()))
	if err != nil {
		return nil, 0, &wallet.NetworkError{
			Chain: chain.Neo.String(),
			Op:    "price network fee",
			Err:   err,
		}
	}
	tx.NetworkFee = networkFee
	return tx, magic, nil
}

func (a *Adapter) networkMagic(ctx context.Context) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.magic != 0 {
		return a.magic, nil
	}
	version, err := a.rpc.GetVersion(ctx)
	if err != nil {
		return 0, &wallet.NetworkError{
			Chain: chain.Neo.String(),
			Op:    "fetch network magic",
			Err:   err,
		}
	}
	a.magic = version.Protocol.Network
	return a.magic, nil
}

func addressToScriptHash(addr string) ([20]byte, error) {
	var out [20]byte
	decoded, version, err := base58.CheckDecode(addr)
	if err != nil {
		return out, fmt.Errorf("not base58check: %w", err)
	}
	if version != addressVersion || len(decoded) != 20 {
		return out, fmt.Errorf("not an N3 address: %s", addr)
	}
	copy(out[:], decoded)
	return out, nil
}

func addressFromPubKey(pub *ecdsa.PublicKey) string {
	hash := scriptHash(verificationScript(compressPubKey(pub)))
	return base58.CheckEncode(hash[:], addressVersion)
}

// p256Key interprets 32 derived bytes as a secp256r1 scalar.
func p256Key(raw []byte) (*ecdsa.PrivateKey, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("signing key must be 32 bytes, got %d", len(raw))
	}
	curve := elliptic.P256()
	d := new(big.Int).SetBytes(raw)
	d.Mod(d, new(big.Int).Sub(curve.Params().N, big.NewInt(1)))
	d.Add(d, big.NewInt(1))

	key := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve},
		D:         d,
	}
	key.PublicKey.X, key.PublicKey.Y = curve.ScalarBaseMult(d.Bytes())
	return key, nil
}

func toFixed8(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, err
	}
	units := d.Shift(fixed8Decimals).Truncate(0)
	if units.BigInt().BitLen() > 62 {
		return 0, fmt.Errorf("amount out of range: %s", amount)
	}
	return units.IntPart(), nil
}

func fromFixed8(units int64) string {
	return decimal.New(units, -fixed8Decimals).String()
}

func reverseHex(hash [20]byte) string {
	reversed := make([]byte, 20)
	for i := range hash {
		reversed[19-i] = hash[i]
	}
	return fmt.Sprintf("%x", reversed)
}

func randomNonce() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint32(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint32(b[:])
}
