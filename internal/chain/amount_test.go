package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
		wantErr  bool
	}{
		{name: "whole ether", amount: "1", decimals: 18, want: "1000000000000000000"},
		{name: "fractional ether", amount: "1.5", decimals: 18, want: "1500000000000000000"},
		{name: "sol lamports", amount: "0.000000001", decimals: 9, want: "1"},
		{name: "trx sun", amount: "2.5", decimals: 6, want: "2500000"},
		{name: "neo fixed8", amount: "0.00000001", decimals: 8, want: "1"},
		{name: "truncates excess precision", amount: "0.1234567899", decimals: 8, want: "12345678"},
		{name: "leading dot", amount: ".5", decimals: 6, want: "500000"},
		{name: "trailing dot", amount: "5.", decimals: 6, want: "5000000"},
		{name: "zero", amount: "0", decimals: 18, want: "0"},
		{name: "negative", amount: "-1.5", decimals: 6, want: "-1500000"},
		{name: "empty", amount: "", decimals: 18, wantErr: true},
		{name: "two dots", amount: "1.2.3", decimals: 18, wantErr: true},
		{name: "not a number", amount: "abc", decimals: 18, wantErr: true},
		{name: "lone dot", amount: ".", decimals: 18, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals int
		want     string
	}{
		{name: "wei to ether", amount: big.NewInt(1500000000000000000), decimals: 18, want: "1.5"},
		{name: "single lamport", amount: big.NewInt(1), decimals: 9, want: "0.000000001"},
		{name: "sun to trx", amount: big.NewInt(2500000), decimals: 6, want: "2.5"},
		{name: "trailing zeros trimmed", amount: big.NewInt(1000000), decimals: 6, want: "1"},
		{name: "zero", amount: big.NewInt(0), decimals: 8, want: "0"},
		{name: "negative", amount: big.NewInt(-1500000), decimals: 6, want: "-1.5"},
		{name: "nil", amount: nil, decimals: 6, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FromBaseUnits(tt.amount, tt.decimals))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, amount := range []string{"1.5", "0.000001", "123456.789", "0.1"} {
		base, err := ToBaseUnits(amount, 9)
		require.NoError(t, err)
		require.Equal(t, amount, FromBaseUnits(base, 9))
	}
}

func TestIsPositive(t *testing.T) {
	require.True(t, IsPositive("0.5", 9))
	require.False(t, IsPositive("0", 9))
	require.False(t, IsPositive("-1", 9))
	require.False(t, IsPositive("", 9))
	require.False(t, IsPositive("abc", 9))
	// Below chain precision truncates to zero.
	require.False(t, IsPositive("0.0000001", 6))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{in: "ethereum", want: Ethereum},
		{in: "SOLANA", want: Solana},
		{in: " tron ", want: Tron},
		{in: "neo", want: Neo},
		{in: "bitcoin", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecimals(t *testing.T) {
	for id, want := range map[ID]int{Ethereum: 18, Solana: 9, Tron: 6, Neo: 8} {
		got, err := id.Decimals()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ID("dogecoin").Decimals()
	require.Error(t, err)
}
