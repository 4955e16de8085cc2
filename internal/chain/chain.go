package chain

import (
	"fmt"
	"strings"
)

// ID identifies one of the supported blockchains. It selects which adapter,
// address grammar, decimal precision and fee model apply to a send flow.
type ID string

const (
	Ethereum ID = "ethereum"
	Solana   ID = "solana"
	Tron     ID = "tron"
	Neo      ID = "neo"
)

// NativeDecimals maps chain to native token decimals.
var NativeDecimals = map[ID]int{
	Ethereum: 18,
	Solana:   9,
	Tron:     6,
	Neo:      8,
}

// Tickers maps chain to the display ticker of its native token.
var Tickers = map[ID]string{
	Ethereum: "ETH",
	Solana:   "SOL",
	Tron:     "TRX",
	Neo:      "GAS",
}

// All returns the supported chains in dispatch order. The order matters for
// address identification: the first chain whose grammar accepts an address
// claims it.
func All() []ID {
	return []ID{Ethereum, Solana, Tron, Neo}
}

func (id ID) String() string {
	return string(id)
}

// Ticker returns the native token ticker for the chain.
func (id ID) Ticker() string {
	return Tickers[id]
}

// Decimals returns the native token decimals for the chain.
func (id ID) Decimals() (int, error) {
	decimals, ok := NativeDecimals[id]
	if !ok {
		return 0, fmt.Errorf("unknown chain: %s", id)
	}
	return decimals, nil
}

// Parse converts a string into a chain ID.
func Parse(s string) (ID, error) {
	switch ID(strings.ToLower(strings.TrimSpace(s))) {
	case Ethereum:
		return Ethereum, nil
	case Solana:
		return Solana, nil
	case Tron:
		return Tron, nil
	case Neo:
		return Neo, nil
	default:
		return "", fmt.Errorf("unknown chain: %q", s)
	}
}
