package chain

import (
	"fmt"
	"math/big"
	"strings"
)

// ToBaseUnits converts a display-unit decimal string into the chain's
// smallest unit, e.g. "1.5" ETH -> 1500000000000000000 wei. The conversion
// is exact string arithmetic; extra fractional digits beyond the chain's
// precision are truncated, never rounded.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	neg := strings.HasPrefix(amount, "-")
	if neg {
		amount = amount[1:]
	}

	whole, frac, found := strings.Cut(amount, ".")
	if found && strings.Contains(frac, ".") {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}

	switch {
	case len(frac) < decimals:
		frac += strings.Repeat("0", decimals-len(frac))
	case len(frac) > decimals:
		frac = frac[:decimals]
	}

	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		digits = "0"
	}

	out, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	if neg {
		out.Neg(out)
	}
	return out, nil
}

// FromBaseUnits converts smallest-unit value to a display-unit decimal
// string, e.g. 1500000000 lamports with 9 decimals -> "1.5".
func FromBaseUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}

	digits := amount.String()
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}

	cut := len(digits) - decimals
	whole := digits[:cut]
	frac := strings.TrimRight(digits[cut:], "0")

	out := whole
	if frac != "" {
		out = whole + "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// IsPositive reports whether a display-unit decimal string parses and is
// strictly greater than zero. Malformed input is treated as non-positive;
// required-field and grammar errors are surfaced by the validator instead.
func IsPositive(amount string, decimals int) bool {
	base, err := ToBaseUnits(amount, decimals)
	if err != nil {
		return false
	}
	return base.Sign() > 0
}
