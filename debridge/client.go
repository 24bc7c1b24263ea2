// Package debridge provides cross-chain quotes from the deBridge DLN API.
package debridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://dln.debridge.finance/v1.0/dln"

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

type tokenAmount struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Amount  string `json:"amount"`
}

// Estimation is the pricing section of an order create-tx response.
type Estimation struct {
	SrcChainTokenIn     tokenAmount `json:"srcChainTokenIn"`
	DstChainTokenOut    tokenAmount `json:"dstChainTokenOut"`
	DstChainTokenOutMin tokenAmount `json:"dstChainTokenOutMin"`
}

// OrderQuote is the response of GET /order/create-tx.
type OrderQuote struct {
	Estimation Estimation `json:"estimation"`
	Order      struct {
		ApproximateFulfillmentDelay int `json:"approximateFulfillmentDelay"`
	} `json:"order"`
}

// GetOrderQuote prices a cross-chain order. amount is in the source token's
// smallest units. recipient receives the destination tokens.
func (c *Client) GetOrderQuote(ctx context.Context, srcChainID, dstChainID int64, srcToken, dstToken, amount, recipient string) (*OrderQuote, error) {
	params := url.Values{}
	params.Set("srcChainId", strconv.FormatInt(srcChainID, 10))
	params.Set("srcChainTokenIn", srcToken)
	params.Set("srcChainTokenInAmount", amount)
	params.Set("dstChainId", strconv.FormatInt(dstChainID, 10))
	params.Set("dstChainTokenOut", dstToken)
	params.Set("dstChainTokenOutAmount", "auto")
	params.Set("dstChainTokenOutRecipient", recipient)
	params.Set("prependOperatingExpense", "true")

	reqURL := fmt.Sprintf("%s/order/create-tx?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting order quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("create-tx API returned %d: %s", resp.StatusCode, body)
	}

	var quote OrderQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("parsing order quote: %w", err)
	}
	if quote.Estimation.DstChainTokenOut.Amount == "" {
		return nil, fmt.Errorf("order quote missing destination amount")
	}

	return &quote, nil
}
