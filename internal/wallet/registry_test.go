package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
)

// stubAdapter answers ValidateAddress from a fixed set and panics on
// anything the registry tests never touch.
type stubAdapter struct {
	Adapter
	id    chain.ID
	addrs map[string]bool
}

func (s *stubAdapter) Chain() chain.ID { return s.id }

func (s *stubAdapter) ValidateAddress(_ context.Context, address string) (bool, error) {
	return s.addrs[address], nil
}

func TestRegistryGet(t *testing.T) {
	eth := &stubAdapter{id: chain.Ethereum}
	registry := NewRegistry(eth)

	got, err := registry.Get(chain.Ethereum)
	require.NoError(t, err)
	require.Equal(t, chain.Ethereum, got.Chain())

	_, err = registry.Get(chain.Solana)
	require.Error(t, err)
}

func TestRegistryChainsCanonicalOrder(t *testing.T) {
	registry := NewRegistry(
		&stubAdapter{id: chain.Neo},
		&stubAdapter{id: chain.Ethereum},
		&stubAdapter{id: chain.Tron},
	)
	require.Equal(t, []chain.ID{chain.Ethereum, chain.Tron, chain.Neo}, registry.Chains())
}

func TestIdentifyChain(t *testing.T) {
	registry := NewRegistry(
		&stubAdapter{id: chain.Ethereum, addrs: map[string]bool{"0xabc": true}},
		&stubAdapter{id: chain.Tron, addrs: map[string]bool{"Tabc": true, "both": true}},
		&stubAdapter{id: chain.Solana, addrs: map[string]bool{"So1abc": true, "both": true}},
	)
	ctx := context.Background()

	id, ok := registry.IdentifyChain(ctx, "Tabc")
	require.True(t, ok)
	require.Equal(t, chain.Tron, id)

	// Ambiguous addresses resolve in dispatch order.
	id, ok = registry.IdentifyChain(ctx, "both")
	require.True(t, ok)
	require.Equal(t, chain.Solana, id)

	_, ok = registry.IdentifyChain(ctx, "garbage")
	require.False(t, ok)
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("connection refused")
	var err error = &NetworkError{Chain: "ethereum", Op: "estimate fee", Err: cause}
	require.ErrorIs(t, err, cause)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Contains(t, netErr.Error(), "ethereum")

	err = &SubmissionError{Chain: "tron", Err: cause}
	require.ErrorIs(t, err, cause)
}

func TestConfirmationStateTerminal(t *testing.T) {
	require.False(t, StatePending.Terminal())
	require.True(t, StateConfirmed.Terminal())
	require.True(t, StateFailed.Terminal())
}
