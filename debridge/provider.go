package debridge

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/colechu/swapdesk/swaps"
)

// Provider adapts deBridge DLN order quotes to the swaps.Provider interface.
// It serves cross-chain pairs only and does not execute; the quote tells the
// user what a bridge route would yield.
type Provider struct {
	client *Client
}

func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string {
	return "debridge"
}

func (p *Provider) Quote(ctx context.Context, req swaps.QuoteRequest) (*swaps.Quote, error) {
	if !req.CrossChain() {
		return nil, fmt.Errorf("debridge: same-chain pair on chain %d, nothing to bridge", req.ChainID)
	}

	quote, err := p.client.GetOrderQuote(ctx, req.ChainID, req.ToChainID,
		req.FromToken.Address, req.ToToken.Address, req.AmountRaw.String(), req.Wallet.Hex())
	if err != nil {
		return nil, err
	}

	toRaw, ok := new(big.Int).SetString(quote.Estimation.DstChainTokenOut.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("destination amount %q: %w", quote.Estimation.DstChainTokenOut.Amount, swaps.ErrMalformedResponse)
	}

	minReceived := req.ToToken.FromSmallestUnit(toRaw)
	if raw, ok := new(big.Int).SetString(quote.Estimation.DstChainTokenOutMin.Amount, 10); ok {
		minReceived = req.ToToken.FromSmallestUnit(raw)
	}

	return &swaps.Quote{
		Provider:        p.Name(),
		FromToken:       req.FromToken,
		ToToken:         req.ToToken,
		ChainID:         req.ChainID,
		ToChainID:       req.ToChainID,
		FromAmount:      req.Amount,
		FromAmountRaw:   req.AmountRaw,
		ToAmount:        req.ToToken.FromSmallestUnit(toRaw),
		ToAmountRaw:     toRaw,
		PriceImpact:     "0",
		GasEstimate:     "",
		MinimumReceived: minReceived,
		Route:           []string{"debridge-dln"},
		Slippage:        req.Slippage,
		Wallet:          req.Wallet,
		Source:          swaps.SourceLive,
	}, nil
}

func (p *Provider) Execute(ctx context.Context, quote *swaps.Quote, privateKey *ecdsa.PrivateKey) (*swaps.Receipt, error) {
	return nil, fmt.Errorf("debridge: %w", swaps.ErrExecuteUnsupported)
}

func (p *Provider) CheckStatus(ctx context.Context, txHash, externalID string) (string, error) {
	return "", fmt.Errorf("debridge: %w", swaps.ErrExecuteUnsupported)
}
