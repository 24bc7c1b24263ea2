// Package wallet derives the server-side signing wallet from a BIP-39
// mnemonic. It stands in for the browser-injected wallet a client app would
// use: it holds the key, everything else talks to the chain through RPC.
package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// Wallet is a derived signing key with its address.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// FromMnemonic derives a wallet at m/44'/60'/0'/0/{index}.
func FromMnemonic(mnemonic string, index uint32) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	key, err := deriveKey(mnemonic, index)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (w *Wallet) Address() common.Address {
	return w.address
}

func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.key
}

func deriveKey(mnemonic string, index uint32) (*ecdsa.PrivateKey, error) {
	seed := bip39.NewSeed(mnemonic, "")

	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}

	// m/44'/60'/0'/0/{index}
	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + 60,
		bip32.FirstHardenedChild + 0,
		0,
		index,
	}

	child := masterKey
	for _, step := range path {
		child, err = child.NewChildKey(step)
		if err != nil {
			return nil, fmt.Errorf("deriving child %d: %w", step, err)
		}
	}

	privateKey, err := crypto.ToECDSA(child.Key)
	if err != nil {
		return nil, fmt.Errorf("converting to ECDSA: %w", err)
	}

	return privateKey, nil
}
