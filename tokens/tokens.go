// Package tokens holds the static per-chain token catalog. Entries are
// reference data compiled into the binary, not fetched from a server; the
// PriceUSD column exists so quotes can be synthesized when the aggregator
// is unreachable.
package tokens

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// NativeAddress is the placeholder address aggregators use for a chain's
// native gas token.
const NativeAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// Supported chain IDs.
const (
	ChainEthereum int64 = 1
	ChainSonic    int64 = 146
)

var ErrTokenNotFound = errors.New("token not found in catalog")

// Token is a catalog entry for one asset on one chain.
type Token struct {
	Symbol   string
	Name     string
	Address  string
	Decimals int32
	ChainID  int64
	Native   bool
	// PriceUSD is a fixed reference price used only for offline quote
	// synthesis. It is not refreshed at runtime.
	PriceUSD decimal.Decimal
}

func (t Token) IsNative() bool {
	return t.Native
}

var catalog = map[int64][]Token{
	ChainEthereum: {
		{Symbol: "ETH", Name: "Ethereum", Address: NativeAddress, Decimals: 18, ChainID: ChainEthereum, Native: true, PriceUSD: decimal.RequireFromString("3245.67")},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18, ChainID: ChainEthereum, PriceUSD: decimal.RequireFromString("3245.67")},
		{Symbol: "USDC", Name: "USD Coin", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, ChainID: ChainEthereum, PriceUSD: decimal.RequireFromString("1.00")},
		{Symbol: "USDT", Name: "Tether USD", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6, ChainID: ChainEthereum, PriceUSD: decimal.RequireFromString("1.00")},
		{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18, ChainID: ChainEthereum, PriceUSD: decimal.RequireFromString("1.00")},
	},
	ChainSonic: {
		{Symbol: "SONIC", Name: "Sonic", Address: NativeAddress, Decimals: 18, ChainID: ChainSonic, Native: true, PriceUSD: decimal.RequireFromString("1.24")},
		{Symbol: "WS", Name: "Wrapped Sonic", Address: "0x039e2fB66102314Ce7b64Ce5Ce3E5183bc94aD38", Decimals: 18, ChainID: ChainSonic, PriceUSD: decimal.RequireFromString("1.24")},
		{Symbol: "USDC", Name: "USD Coin", Address: "0x29219dd400f2Bf60E5a23d13Be72B486D4038894", Decimals: 6, ChainID: ChainSonic, PriceUSD: decimal.RequireFromString("1.00")},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: "0x50c42dEAcD8Fc9773493ED674b675bE577f2634b", Decimals: 18, ChainID: ChainSonic, PriceUSD: decimal.RequireFromString("3245.67")},
	},
}

// ByChain returns the catalog entries for a chain. The returned slice must
// not be modified.
func ByChain(chainID int64) []Token {
	return catalog[chainID]
}

// Lookup resolves a token on a chain by symbol or address (both
// case-insensitive). Returns ErrTokenNotFound for anything outside the
// catalog; callers must treat that as unrecoverable rather than guessing.
func Lookup(chainID int64, symbolOrAddress string) (Token, error) {
	key := strings.ToLower(strings.TrimSpace(symbolOrAddress))
	if key == "" {
		return Token{}, fmt.Errorf("%w: empty identifier on chain %d", ErrTokenNotFound, chainID)
	}
	for _, t := range catalog[chainID] {
		if strings.ToLower(t.Symbol) == key || strings.ToLower(t.Address) == key {
			return t, nil
		}
	}
	return Token{}, fmt.Errorf("%w: %q on chain %d", ErrTokenNotFound, symbolOrAddress, chainID)
}

// ToSmallestUnit converts a human-readable decimal amount to the token's
// integer smallest unit. Amounts are truncated, never rounded up, so the
// chain is never asked for more than the user entered.
func (t Token) ToSmallestUnit(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q is negative", amount)
	}
	return d.Shift(t.Decimals).Truncate(0).BigInt(), nil
}

// FromSmallestUnit formats an integer smallest-unit value as a decimal
// string in display units.
func (t Token) FromSmallestUnit(raw *big.Int) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -t.Decimals).String()
}
