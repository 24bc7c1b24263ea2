// Package balances reads native and ERC-20 balances plus allowances from the
// configured chains. Token addresses from the static catalog are not trusted
// blindly: each is probed for contract bytecode and a callable balanceOf
// before it is queried, and anything that fails the probe reports a zero
// balance instead of aborting the batch.
package balances

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/colechu/swapdesk/tokens"
)

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`))
	if err != nil {
		panic(err)
	}
}

// ChainReader is the subset of ethclient.Client the reader needs.
type ChainReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader fetches balances and allowances from the configured chains.
type Reader struct {
	chains map[int64]ChainReader
	probed *cache[bool] // token contract validation results
}

func NewReader(chains map[int64]ChainReader) *Reader {
	return &Reader{
		chains: chains,
		probed: newCache[bool](10 * time.Minute),
	}
}

// Balances returns display-unit balance strings keyed by token address. The
// token list is walked sequentially; a token that is not a valid ERC-20
// contract records "0" and the batch continues.
func (r *Reader) Balances(ctx context.Context, chainID int64, wallet common.Address, toks []tokens.Token) (map[string]string, error) {
	reader, ok := r.chains[chainID]
	if !ok {
		return nil, fmt.Errorf("no chain reader for chain %d", chainID)
	}

	out := make(map[string]string, len(toks))
	for _, t := range toks {
		if t.IsNative() {
			bal, err := reader.BalanceAt(ctx, wallet, nil)
			if err != nil {
				return nil, fmt.Errorf("reading native balance on chain %d: %w", chainID, err)
			}
			out[t.Address] = t.FromSmallestUnit(bal)
			continue
		}

		out[t.Address] = r.erc20Balance(ctx, reader, chainID, t, wallet)
	}

	return out, nil
}

func (r *Reader) erc20Balance(ctx context.Context, reader ChainReader, chainID int64, t tokens.Token, wallet common.Address) string {
	if !r.validERC20(ctx, reader, chainID, t.Address) {
		return "0"
	}

	tokenAddr := common.HexToAddress(t.Address)
	data, err := erc20ABI.Pack("balanceOf", wallet)
	if err != nil {
		return "0"
	}

	output, err := reader.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data}, nil)
	if err != nil || len(output) < 32 {
		log.Printf("balances: balanceOf %s on chain %d failed, recording zero: %v", t.Symbol, chainID, err)
		return "0"
	}

	return t.FromSmallestUnit(new(big.Int).SetBytes(output))
}

// validERC20 checks that the address holds contract bytecode and answers
// balanceOf, probed with the zero address. Results are cached so repeated
// balance batches don't re-probe every catalog entry.
func (r *Reader) validERC20(ctx context.Context, reader ChainReader, chainID int64, address string) bool {
	key := fmt.Sprintf("%d|%s", chainID, strings.ToLower(address))
	valid, err := r.probed.getOrFetch(key, func() (bool, error) {
		tokenAddr := common.HexToAddress(address)

		code, err := reader.CodeAt(ctx, tokenAddr, nil)
		if err != nil || len(code) == 0 {
			return false, nil
		}

		data, err := erc20ABI.Pack("balanceOf", common.Address{})
		if err != nil {
			return false, nil
		}
		if _, err := reader.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data}, nil); err != nil {
			return false, nil
		}

		return true, nil
	})
	if err != nil {
		return false
	}
	return valid
}

// Allowance returns the amount the owner has authorized the spender to
// transfer from the given token.
func (r *Reader) Allowance(ctx context.Context, chainID int64, token, owner, spender common.Address) (*big.Int, error) {
	reader, ok := r.chains[chainID]
	if !ok {
		return nil, fmt.Errorf("no chain reader for chain %d", chainID)
	}

	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, err
	}

	output, err := reader.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("reading allowance: %w", err)
	}
	if len(output) < 32 {
		return big.NewInt(0), nil
	}

	return new(big.Int).SetBytes(output), nil
}
