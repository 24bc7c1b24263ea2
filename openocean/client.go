// Package openocean provides a quote-only provider backed by the OpenOcean
// v3 public API. It needs no credentials and serves as a price comparison
// source next to the primary aggregator.
package openocean

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://open-api.openocean.finance/v3"

// chainCodes maps chain ID to the OpenOcean chain key.
var chainCodes = map[int64]string{
	1:   "eth",
	146: "sonic",
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: defaultBaseURL, httpClient: httpClient}
}

// QuoteData is the data payload of GET /{chain}/quote.
type QuoteData struct {
	InAmount     string `json:"inAmount"`
	OutAmount    string `json:"outAmount"` // smallest units
	EstimatedGas string `json:"estimatedGas"`
	PriceImpact  string `json:"price_impact"`
}

type quoteResponse struct {
	Code int       `json:"code"`
	Data QuoteData `json:"data"`
}

// GetQuote requests a quote. amount is in the input token's display units,
// which is what the v3 quote endpoint expects.
func (c *Client) GetQuote(ctx context.Context, chainID int64, inToken, outToken, amount, slippage string) (*QuoteData, error) {
	chain, ok := chainCodes[chainID]
	if !ok {
		return nil, fmt.Errorf("chain %d not supported by OpenOcean", chainID)
	}

	params := url.Values{}
	params.Set("inTokenAddress", inToken)
	params.Set("outTokenAddress", outToken)
	params.Set("amount", amount)
	params.Set("slippage", slippage)
	params.Set("gasPrice", "5")

	reqURL := fmt.Sprintf("%s/%s/quote?%s", c.baseURL, chain, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote API returned %d: %s", resp.StatusCode, body)
	}

	var qr quoteResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, fmt.Errorf("parsing quote: %w", err)
	}
	if qr.Code != 200 {
		return nil, fmt.Errorf("openocean API error code %d", qr.Code)
	}
	if qr.Data.OutAmount == "" || qr.Data.OutAmount == "0" {
		return nil, fmt.Errorf("openocean returned empty outAmount")
	}

	return &qr.Data, nil
}
