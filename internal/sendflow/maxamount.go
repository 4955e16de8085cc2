package sendflow

import (
	"context"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
)

const msgMaxNeedsAddress = "A valid address is required to calculate max amount"

// MaxAmountCalculator answers "how much can this account send" for the
// drain-the-account button. The destination must be known first: fees on
// some chains depend on who receives.
type MaxAmountCalculator struct {
	registry *wallet.Registry
}

func NewMaxAmountCalculator(registry *wallet.Registry) *MaxAmountCalculator {
	return &MaxAmountCalculator{registry: registry}
}

// Calculate returns the spendable maximum, or a field error when the
// destination does not parse for the chain.
func (m *MaxAmountCalculator) Calculate(ctx context.Context, chainID chain.ID, from, to, balance string) (wallet.MaxAmount, map[string]string, error) {
	adapter, err := m.registry.Get(chainID)
	if err != nil {
		return wallet.MaxAmount{}, nil, err
	}

	valid, err := adapter.ValidateAddress(ctx, to)
	if err != nil {
		return wallet.MaxAmount{}, nil, err
	}
	if !valid {
		return wallet.MaxAmount{}, map[string]string{"toAddress": msgMaxNeedsAddress}, nil
	}

	max, err := adapter.MaxSendable(ctx, from, to, balance)
	if err != nil {
		return wallet.MaxAmount{}, nil, err
	}
	return max, nil, nil
}
