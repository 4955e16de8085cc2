package wallet

import (
	"context"
	"fmt"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
)

// Registry is the single dispatch point from chain.ID to its Adapter.
type Registry struct {
	adapters map[chain.ID]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[chain.ID]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Chain()] = a
	}
	return &Registry{adapters: m}
}

// Get returns the adapter for a chain.
func (r *Registry) Get(id chain.ID) (Adapter, error) {
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for chain: %s", id)
	}
	return a, nil
}

// Chains returns the registered chains in canonical dispatch order.
func (r *Registry) Chains() []chain.ID {
	out := make([]chain.ID, 0, len(r.adapters))
	for _, id := range chain.All() {
		if _, ok := r.adapters[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// IdentifyChain classifies an address by asking each chain's adapter in
// canonical order. Each chain owns its grammar exclusively, so the first
// accepting adapter claims the address. ok is false when no chain accepts.
func (r *Registry) IdentifyChain(ctx context.Context, address string) (chain.ID, bool) {
	for _, id := range r.Chains() {
		a := r.adapters[id]
		valid, err := a.ValidateAddress(ctx, address)
		if err != nil {
			continue
		}
		if valid {
			return id, true
		}
	}
	return "", false
}
