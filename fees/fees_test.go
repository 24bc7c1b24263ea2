package fees

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colechu/swapdesk/tokens"
)

func TestForAmountEnabledChain(t *testing.T) {
	calc := DefaultCalculator()

	fee, err := calc.ForAmount(tokens.ChainSonic, "10")
	require.NoError(t, err)
	require.NotNil(t, fee)
	require.Equal(t, "0.03", fee.Fee)
	require.Equal(t, "10.03", fee.Total)
	require.Equal(t, int64(30), fee.Bps)
	require.NotEmpty(t, fee.Recipient)
}

func TestForAmountDisabledChain(t *testing.T) {
	calc := DefaultCalculator()

	fee, err := calc.ForAmount(tokens.ChainEthereum, "10")
	require.NoError(t, err)
	require.Nil(t, fee)
}

func TestForAmountInvalidAmount(t *testing.T) {
	calc := DefaultCalculator()

	_, err := calc.ForAmount(tokens.ChainSonic, "abc")
	require.Error(t, err)
}

func TestEnabled(t *testing.T) {
	calc := DefaultCalculator()
	require.True(t, calc.Enabled(tokens.ChainSonic))
	require.False(t, calc.Enabled(tokens.ChainEthereum))
	require.False(t, calc.Enabled(999))
}

func TestCustomPolicy(t *testing.T) {
	calc := NewCalculator(map[int64]ChainFees{
		1: {Enabled: true, Bps: 100, Recipient: "0xabc"},
	})

	fee, err := calc.ForAmount(1, "250")
	require.NoError(t, err)
	require.Equal(t, "2.5", fee.Fee)
	require.Equal(t, "252.5", fee.Total)
}
