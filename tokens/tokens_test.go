package tokens

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupBySymbol(t *testing.T) {
	tok, err := Lookup(ChainSonic, "usdc")
	require.NoError(t, err)
	require.Equal(t, "USDC", tok.Symbol)
	require.Equal(t, int32(6), tok.Decimals)
	require.Equal(t, ChainSonic, tok.ChainID)
}

func TestLookupByAddress(t *testing.T) {
	tok, err := Lookup(ChainEthereum, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	require.NoError(t, err)
	require.Equal(t, "USDC", tok.Symbol)
}

func TestLookupNativePlaceholder(t *testing.T) {
	eth, err := Lookup(ChainEthereum, NativeAddress)
	require.NoError(t, err)
	require.True(t, eth.IsNative())
	require.Equal(t, "ETH", eth.Symbol)

	sonic, err := Lookup(ChainSonic, NativeAddress)
	require.NoError(t, err)
	require.True(t, sonic.IsNative())
	require.Equal(t, "SONIC", sonic.Symbol)
}

func TestLookupNotFound(t *testing.T) {
	_, err := Lookup(ChainSonic, "DOGE")
	require.ErrorIs(t, err, ErrTokenNotFound)

	_, err = Lookup(999, "USDC")
	require.ErrorIs(t, err, ErrTokenNotFound)

	_, err = Lookup(ChainSonic, "  ")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestByChain(t *testing.T) {
	require.NotEmpty(t, ByChain(ChainEthereum))
	require.NotEmpty(t, ByChain(ChainSonic))
	require.Empty(t, ByChain(999))
}

func TestToSmallestUnit(t *testing.T) {
	usdc, err := Lookup(ChainSonic, "USDC")
	require.NoError(t, err)

	raw, err := usdc.ToSmallestUnit("12.3628")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(12362800), raw)

	// Sub-unit precision truncates rather than rounding up.
	raw, err = usdc.ToSmallestUnit("0.0000019")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1), raw)

	_, err = usdc.ToSmallestUnit("-1")
	require.Error(t, err)

	_, err = usdc.ToSmallestUnit("abc")
	require.Error(t, err)
}

func TestFromSmallestUnit(t *testing.T) {
	eth, err := Lookup(ChainEthereum, "ETH")
	require.NoError(t, err)

	require.Equal(t, "1.5", eth.FromSmallestUnit(big.NewInt(1500000000000000000)))
	require.Equal(t, "0", eth.FromSmallestUnit(nil))
	require.Equal(t, "0", eth.FromSmallestUnit(big.NewInt(0)))
}

func TestRoundTripConversion(t *testing.T) {
	usdc, err := Lookup(ChainEthereum, "USDC")
	require.NoError(t, err)

	raw, err := usdc.ToSmallestUnit("1234.56")
	require.NoError(t, err)
	require.Equal(t, "1234.56", usdc.FromSmallestUnit(raw))
}
