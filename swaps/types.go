package swaps

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/colechu/swapdesk/fees"
	"github.com/colechu/swapdesk/tokens"
)

// Source tags where a quote or receipt came from. Callers can distinguish a
// real execution from a synthesized one without inspecting logs.
type Source string

const (
	SourceLive      Source = "live"
	SourceSimulated Source = "simulated"
)

// QuoteRequest describes one requested swap.
type QuoteRequest struct {
	FromToken tokens.Token
	ToToken   tokens.Token
	ChainID   int64 // source chain
	ToChainID int64 // equals ChainID for same-chain swaps
	Amount    string
	AmountRaw *big.Int // Amount in FromToken smallest units
	Wallet    common.Address
	Slippage  string // percentage string, e.g. "0.5"
}

// CrossChain reports whether the request bridges between chains.
func (r QuoteRequest) CrossChain() bool {
	return r.ToChainID != 0 && r.ToChainID != r.ChainID
}

// Quote is a priced swap from one provider. Recomputed on every request,
// never cached.
type Quote struct {
	Provider  string
	FromToken tokens.Token
	ToToken   tokens.Token
	ChainID   int64
	ToChainID int64

	FromAmount    string
	FromAmountRaw *big.Int
	ToAmount      string
	ToAmountRaw   *big.Int

	PriceImpact     string
	GasEstimate     string
	MinimumReceived string
	ExchangeRate    string
	Route           []string
	Slippage        string
	Wallet          common.Address

	PaymentFee *fees.Breakdown

	Source          Source
	SimulatedReason string
}

// Simulated reports whether the quote was synthesized rather than priced by
// the live aggregator.
func (q *Quote) Simulated() bool {
	return q.Source == SourceSimulated
}

// Receipt is the outcome of an executed (or simulated) swap.
type Receipt struct {
	TxHash          string
	BlockNumber     uint64
	GasUsed         uint64
	Status          string // "confirmed" or "failed"
	Simulated       bool
	SimulatedReason string
}

// Swap statuses stored and reported by the tracker.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Provider is the interface swap providers implement. Quote-only providers
// return ErrExecuteUnsupported from Execute.
type Provider interface {
	// Name returns the provider identifier (e.g. "okx").
	Name() string

	// Quote prices the requested swap. Implementations must resolve a usable
	// quote whenever token resolution succeeds, falling back to a simulated
	// quote rather than failing on upstream errors.
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)

	// Execute submits the swap for the given quote using the provided key and
	// waits for the receipt.
	Execute(ctx context.Context, quote *Quote, privateKey *ecdsa.PrivateKey) (*Receipt, error)

	// CheckStatus checks a swap by its source chain tx hash. externalID is a
	// provider-specific identifier. Returns pending, completed, or failed.
	CheckStatus(ctx context.Context, txHash string, externalID string) (string, error)
}
