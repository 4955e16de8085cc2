package sendflow

import (
	"context"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/metrics"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
)

// Field-level messages surfaced to the user.
const (
	msgAddressRequired = "Address is required"
	msgAddressInvalid  = "Invalid address"
	msgAmountRequired  = "Amount is required"
	msgAmountPositive  = "Amount must be greater than zero"
	msgInsufficient    = "Insufficient funds"
)

// insufficiencyMessages name the cost component that tipped the balance, in
// each chain's vocabulary.
var insufficiencyMessages = map[chain.ID]string{
	chain.Ethereum: "Insufficient funds for amount plus gas costs",
	chain.Tron:     "Insufficient funds for amount plus transaction fees",
	chain.Solana:   "Insufficient funds for amount plus transaction fees",
	chain.Neo:      "Insufficient funds for amount plus network fee",
}

// Validator checks a send intent before anything touches a signing key.
// The result is a field→message map; an empty map means the intent is
// sendable.
type Validator struct {
	registry *wallet.Registry
	log      *logrus.Entry
}

func NewValidator(registry *wallet.Registry) *Validator {
	return &Validator{
		registry: registry,
		log:      logrus.WithField("component", "sendflow"),
	}
}

// Validate runs the checks in presentation order: required fields, address
// grammar (which overwrites a required-field message for the address),
// positive amount, plain balance, then the fee-aware balance. A fee
// estimation failure is returned as an error, never as a false
// insufficiency verdict.
func (v *Validator) Validate(ctx context.Context, intent wallet.SendIntent, balance string) (map[string]string, error) {
	adapter, err := v.registry.Get(intent.Chain)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if intent.ToAddress == "" {
		fields["toAddress"] = msgAddressRequired
	}
	if intent.Amount == "" {
		fields["amount"] = msgAmountRequired
	}

	valid, err := adapter.ValidateAddress(ctx, intent.ToAddress)
	if err != nil {
		return nil, err
	}
	if !valid {
		fields["toAddress"] = msgAddressInvalid
	}

	if intent.Amount == "" {
		return fields, nil
	}

	// Unknown chains never reach this point: registry.Get already vetted it.
	decimals, err := intent.Chain.Decimals()
	if err != nil {
		return nil, err
	}
	amountUnits, err := chain.ToBaseUnits(intent.Amount, decimals)
	if err != nil || amountUnits.Sign() <= 0 {
		fields["amount"] = msgAmountPositive
		return fields, nil
	}

	balanceUnits, err := chain.ToBaseUnits(balance, decimals)
	if err != nil {
		balanceUnits = big.NewInt(0)
	}
	if amountUnits.Cmp(balanceUnits) > 0 {
		fields["amount"] = msgInsufficient
		return fields, nil
	}

	// Balance covers the principal; now account for the fee.
	fee, err := adapter.EstimateFee(ctx, intent.FromAddress, intent.ToAddress, intent.Amount)
	if err != nil {
		metrics.FeeEstimateFailures.WithLabelValues(intent.Chain.String()).Inc()
		v.log.WithError(err).WithField("chain", intent.Chain).Warn("fee estimation failed during validation")
		return nil, err
	}

	total := new(big.Int).Add(amountUnits, fee.NativeFee)
	if total.Cmp(balanceUnits) > 0 {
		fields["amount"] = insufficiencyMessages[intent.Chain]
	}
	return fields, nil
}
