package okx

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/colechu/swapdesk/tokens"
)

// DefaultBaseURL is the OKX Web3 API host.
const DefaultBaseURL = "https://web3.okx.com"

// aggregatorPath is the REST path prefix for the DEX aggregator endpoints.
// Signatures cover this full path, not just the endpoint suffix.
const aggregatorPath = "/api/v5/dex/aggregator"

// DefaultSlippage is the slippage percentage sent when a request leaves it
// unset.
const DefaultSlippage = "0.5"

// RouterAddresses maps chain ID to the OKX DEX approval router. ERC-20 sell
// tokens must be approved to this contract before the swap transaction.
var RouterAddresses = map[int64]common.Address{
	tokens.ChainEthereum: common.HexToAddress("0x40aA958dd87FC8305b97f2BA922CDdCa374bcD7f"),
	tokens.ChainSonic:    common.HexToAddress("0x70cBb871E8f30Fc8Ce23609E9E0Ea87B6b222F58"),
}

const erc20ApproveABI = `[{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`

const approveGasLimit = 100000

// simulatedConfirmDelay stands in for block time on the simulated execution
// path.
const simulatedConfirmDelay = 1500 * time.Millisecond

var big0 = big.NewInt(0)
