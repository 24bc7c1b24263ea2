package openocean

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/colechu/swapdesk/swaps"
)

// Provider adapts the OpenOcean client to the swaps.Provider interface.
// It only prices swaps; execution stays with the primary aggregator.
type Provider struct {
	client *Client
}

func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string {
	return "openocean"
}

func (p *Provider) Quote(ctx context.Context, req swaps.QuoteRequest) (*swaps.Quote, error) {
	if req.CrossChain() {
		return nil, fmt.Errorf("openocean: cross-chain swap %d -> %d not supported", req.ChainID, req.ToChainID)
	}

	data, err := p.client.GetQuote(ctx, req.ChainID, req.FromToken.Address, req.ToToken.Address, req.Amount, req.Slippage)
	if err != nil {
		return nil, err
	}

	toRaw, ok := new(big.Int).SetString(data.OutAmount, 10)
	if !ok {
		return nil, fmt.Errorf("outAmount %q: %w", data.OutAmount, swaps.ErrMalformedResponse)
	}

	toAmount := req.ToToken.FromSmallestUnit(toRaw)

	priceImpact := data.PriceImpact
	if priceImpact == "" {
		priceImpact = "0"
	}

	return &swaps.Quote{
		Provider:        p.Name(),
		FromToken:       req.FromToken,
		ToToken:         req.ToToken,
		ChainID:         req.ChainID,
		ToChainID:       req.ChainID,
		FromAmount:      req.Amount,
		FromAmountRaw:   req.AmountRaw,
		ToAmount:        toAmount,
		ToAmountRaw:     toRaw,
		PriceImpact:     priceImpact,
		GasEstimate:     data.EstimatedGas,
		MinimumReceived: decimal.RequireFromString(toAmount).Mul(decimal.RequireFromString("0.995")).Round(6).String(),
		ExchangeRate:    "",
		Route:           []string{"openocean"},
		Slippage:        req.Slippage,
		Wallet:          req.Wallet,
		Source:          swaps.SourceLive,
	}, nil
}

func (p *Provider) Execute(ctx context.Context, quote *swaps.Quote, privateKey *ecdsa.PrivateKey) (*swaps.Receipt, error) {
	return nil, fmt.Errorf("openocean: %w", swaps.ErrExecuteUnsupported)
}

func (p *Provider) CheckStatus(ctx context.Context, txHash, externalID string) (string, error) {
	return "", fmt.Errorf("openocean: %w", swaps.ErrExecuteUnsupported)
}
