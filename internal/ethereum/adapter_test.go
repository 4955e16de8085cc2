package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"

	goethereum "github.com/ethereum/go-ethereum"
	ecommon "github.com/ethereum/go-ethereum/common"
	etypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/Tanishq1604/HD-wallet/internal/keyring"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// mockClient implements Client for testing.
type mockClient struct {
	gasPrice    *big.Int
	gasPriceErr error
	balance     *big.Int
	balanceErr  error
	nonce       uint64
	sendErr     error
	sentTx      *etypes.Transaction
	receipt     *etypes.Receipt
	receiptErr  error
}

func (m *mockClient) SuggestGasPrice(context.Context) (*big.Int, error) {
	return m.gasPrice, m.gasPriceErr
}

func (m *mockClient) BalanceAt(context.Context, ecommon.Address, *big.Int) (*big.Int, error) {
	return m.balance, m.balanceErr
}

func (m *mockClient) PendingNonceAt(context.Context, ecommon.Address) (uint64, error) {
	return m.nonce, nil
}

func (m *mockClient) SendTransaction(_ context.Context, tx *etypes.Transaction) error {
	m.sentTx = tx
	return m.sendErr
}

func (m *mockClient) TransactionReceipt(context.Context, ecommon.Hash) (*etypes.Receipt, error) {
	return m.receipt, m.receiptErr
}

func newTestAdapter(rpc Client) *Adapter {
	return New(rpc, big.NewInt(11155111), keyring.NewDeriver())
}

func TestValidateAddress(t *testing.T) {
	ctx := context.Background()
	adapter := newTestAdapter(&mockClient{})

	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{name: "checksummed", address: "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1", want: true},
		{name: "all lowercase", address: "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1", want: true},
		{name: "broken checksum", address: "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9c1", want: false},
		{name: "too short", address: "0x90F8bf6A479f", want: false},
		{name: "no prefix", address: "90f8bf6a479f320ead074411a4b0e7944ea8c9c1", want: false},
		{name: "not hex", address: "0xZZZ8bf6a479f320ead074411a4b0e7944ea8c9c1", want: false},
		{name: "empty", address: "", want: false},
		{name: "solana shaped", address: "4Nd1mY5jDZWYqnXKtdzzBzSJ9X4YsZxmVMvozdhDwZ4W", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := adapter.ValidateAddress(ctx, tt.address)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEstimateFee(t *testing.T) {
	ctx := context.Background()

	t.Run("gas price times transfer gas", func(t *testing.T) {
		adapter := newTestAdapter(&mockClient{gasPrice: big.NewInt(2_000_000_000)}) // 2 gwei

		fee, err := adapter.EstimateFee(ctx, "", "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1", "1.5")
		require.NoError(t, err)
		require.Equal(t, big.NewInt(42_000_000_000_000), fee.NativeFee)
		require.Equal(t, "0.000042", fee.DisplayFee)
		require.False(t, fee.EstimatedAt.IsZero())
	})

	t.Run("zero amount still yields non-negative fee", func(t *testing.T) {
		adapter := newTestAdapter(&mockClient{gasPrice: big.NewInt(1)})

		fee, err := adapter.EstimateFee(ctx, "", "", "0")
		require.NoError(t, err)
		require.True(t, fee.NativeFee.Sign() >= 0)
	})

	t.Run("rpc failure surfaces as network error", func(t *testing.T) {
		adapter := newTestAdapter(&mockClient{gasPriceErr: errors.New("rpc unreachable")})

		_, err := adapter.EstimateFee(ctx, "", "", "1")
		var netErr *wallet.NetworkError
		require.ErrorAs(t, err, &netErr)
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("broadcasts signed transfer", func(t *testing.T) {
		rpc := &mockClient{gasPrice: big.NewInt(1_000_000_000), nonce: 7}
		adapter := newTestAdapter(rpc)

		key, err := adapter.DeriveKey(testMnemonic, "m/44'/60'/0'/0/0")
		require.NoError(t, err)
		require.NotEmpty(t, key.Address)

		rec, err := adapter.Submit(ctx, key, "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1", "1.5")
		require.NoError(t, err)
		require.Equal(t, wallet.StatePending, rec.Status)
		require.Equal(t, rec.Hash, rpc.sentTx.Hash().Hex())
		require.Equal(t, uint64(7), rpc.sentTx.Nonce())
		require.Equal(t, "1500000000000000000", rpc.sentTx.Value().String())
	})

	t.Run("broadcast rejection is a submission error", func(t *testing.T) {
		rpc := &mockClient{gasPrice: big.NewInt(1), sendErr: errors.New("nonce too low")}
		adapter := newTestAdapter(rpc)

		key, err := adapter.DeriveKey(testMnemonic, "m/44'/60'/0'/0/0")
		require.NoError(t, err)

		_, err = adapter.Submit(ctx, key, "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1", "1")
		var subErr *wallet.SubmissionError
		require.ErrorAs(t, err, &subErr)
	})
}

func TestDeriveKeyDeterministic(t *testing.T) {
	adapter := newTestAdapter(&mockClient{})

	key1, err := adapter.DeriveKey(testMnemonic, "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	key2, err := adapter.DeriveKey(testMnemonic, "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	require.Equal(t, key1.Address, key2.Address)
	require.Equal(t, key1.Raw, key2.Raw)
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("successful receipt", func(t *testing.T) {
		adapter := newTestAdapter(&mockClient{receipt: &etypes.Receipt{Status: etypes.ReceiptStatusSuccessful}})
		final, err := adapter.Confirm(ctx, "0xabc")
		require.NoError(t, err)
		require.True(t, final)
	})

	t.Run("reverted receipt", func(t *testing.T) {
		adapter := newTestAdapter(&mockClient{receipt: &etypes.Receipt{Status: etypes.ReceiptStatusFailed}})
		final, err := adapter.Confirm(ctx, "0xabc")
		require.NoError(t, err)
		require.False(t, final)
	})

	t.Run("not yet mined", func(t *testing.T) {
		adapter := newTestAdapter(&mockClient{receiptErr: goethereum.NotFound})
		final, err := adapter.Confirm(ctx, "0xabc")
		require.NoError(t, err)
		require.False(t, final)
	})
}

func TestMaxSendable(t *testing.T) {
	ctx := context.Background()

	t.Run("balance minus fee", func(t *testing.T) {
		adapter := newTestAdapter(&mockClient{gasPrice: big.NewInt(1_000_000_000)})

		max, err := adapter.MaxSendable(ctx, "", "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1", "2")
		require.NoError(t, err)
		require.Equal(t, "1.999979", max.Amount)
		require.Empty(t, max.Warning)
	})

	t.Run("fee exceeds balance clamps to zero", func(t *testing.T) {
		adapter := newTestAdapter(&mockClient{gasPrice: big.NewInt(1_000_000_000)})

		max, err := adapter.MaxSendable(ctx, "", "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1", "0.00000001")
		require.NoError(t, err)
		require.Equal(t, "0", max.Amount)
		require.NotEmpty(t, max.Warning)
	})
}
