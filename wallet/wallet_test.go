package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testMnemonic = "test test test test test test test test test test test junk"

func TestFromMnemonicKnownAddresses(t *testing.T) {
	// Addresses for this mnemonic at m/44'/60'/0'/0/{0,1} are fixed by BIP-44.
	w0, err := FromMnemonic(testMnemonic, 0)
	require.NoError(t, err)
	require.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", w0.Address().Hex())

	w1, err := FromMnemonic(testMnemonic, 1)
	require.NoError(t, err)
	require.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", w1.Address().Hex())
}

func TestFromMnemonicDeterministic(t *testing.T) {
	a, err := FromMnemonic(testMnemonic, 5)
	require.NoError(t, err)
	b, err := FromMnemonic(testMnemonic, 5)
	require.NoError(t, err)

	require.Equal(t, a.Address(), b.Address())
	require.Equal(t, a.PrivateKey().D, b.PrivateKey().D)
}

func TestFromMnemonicInvalid(t *testing.T) {
	_, err := FromMnemonic("definitely not a valid mnemonic phrase", 0)
	require.Error(t, err)

	_, err = FromMnemonic("", 0)
	require.Error(t, err)
}
