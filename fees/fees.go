// Package fees computes the optional platform fee layered onto swap amounts.
// The fee is additive: it never changes the quoted output, only the total the
// user pays.
package fees

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/colechu/swapdesk/tokens"
)

// ChainFees is the fee policy for one chain.
type ChainFees struct {
	Enabled   bool
	Bps       int64 // basis points of the input amount
	Recipient string
}

// Breakdown is the fee attached to a quote.
type Breakdown struct {
	Fee       string `json:"fee"`   // fee amount, input-token display units
	Total     string `json:"total"` // input amount + fee
	Bps       int64  `json:"bps"`
	Recipient string `json:"recipient"`
}

// Calculator reports and computes platform fees per chain.
type Calculator struct {
	chains map[int64]ChainFees
}

func NewCalculator(chains map[int64]ChainFees) *Calculator {
	return &Calculator{chains: chains}
}

// DefaultCalculator returns the stock fee policy: fees collected on Sonic
// only, 30 bps.
func DefaultCalculator() *Calculator {
	return NewCalculator(map[int64]ChainFees{
		tokens.ChainSonic: {
			Enabled:   true,
			Bps:       30,
			Recipient: "0x8b6E2Fa2cD2dAF1a45e8e4F48a3eB13aB5dF9b4C",
		},
	})
}

// Enabled reports whether a platform fee applies on the given chain.
func (c *Calculator) Enabled(chainID int64) bool {
	return c.chains[chainID].Enabled
}

// ForAmount computes the fee breakdown for an input amount in display units.
// Returns nil when fees are disabled for the chain.
func (c *Calculator) ForAmount(chainID int64, amount string) (*Breakdown, error) {
	cf, ok := c.chains[chainID]
	if !ok || !cf.Enabled {
		return nil, nil
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}

	fee := d.Mul(decimal.New(cf.Bps, -4))
	return &Breakdown{
		Fee:       fee.String(),
		Total:     d.Add(fee).String(),
		Bps:       cf.Bps,
		Recipient: cf.Recipient,
	}, nil
}
