package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/colechu/swapdesk/swaps"
)

// Client is the REST client for the OKX DEX aggregator API.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	mu         sync.Mutex
	lastReq    time.Time
}

// NewClient creates a Client. baseURL and httpClient may be empty/nil for the
// production defaults.
func NewClient(creds Credentials, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		creds:      creds,
		httpClient: httpClient,
	}
}

// rateLimit enforces 1 request per second
func (c *Client) rateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	since := time.Since(c.lastReq)
	if since < time.Second {
		time.Sleep(time.Second - since)
	}
	c.lastReq = time.Now()
}

// envelope is the OKX response wrapper. Code "0" denotes success.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// DexRouter is one hop of the aggregator's chosen route.
type DexRouter struct {
	Router        string `json:"router"`
	RouterPercent string `json:"routerPercent"`
}

// QuoteData is the payload of GET /quote.
type QuoteData struct {
	FromTokenAmount       string      `json:"fromTokenAmount"`
	ToTokenAmount         string      `json:"toTokenAmount"`
	PriceImpactPercentage string      `json:"priceImpactPercentage"`
	EstimateGasFee        string      `json:"estimateGasFee"`
	MinReceiveAmount      string      `json:"minReceiveAmount"`
	DexRouterList         []DexRouter `json:"dexRouterList"`
}

// SwapTx is the transaction payload returned by GET /swap.
type SwapTx struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Gas      string `json:"gas"`
	GasPrice string `json:"gasPrice"`
}

// SwapData is the payload of GET /swap.
type SwapData struct {
	RouterResult QuoteData `json:"routerResult"`
	Tx           SwapTx    `json:"tx"`
}

// GetQuote requests a live quote for swapping amount (smallest units) of the
// from token into the to token.
func (c *Client) GetQuote(ctx context.Context, chainID int64, fromAddr, toAddr string, amount *big.Int, slippage string) (*QuoteData, error) {
	params := url.Values{}
	params.Set("chainId", strconv.FormatInt(chainID, 10))
	params.Set("fromTokenAddress", fromAddr)
	params.Set("toTokenAddress", toAddr)
	params.Set("amount", amount.String())
	params.Set("slippage", slippage)

	var quote QuoteData
	if err := c.get(ctx, "/quote", params, &quote); err != nil {
		return nil, err
	}

	if !isPositiveInteger(quote.ToTokenAmount) {
		return nil, fmt.Errorf("quote toTokenAmount %q: %w", quote.ToTokenAmount, swaps.ErrMalformedResponse)
	}

	return &quote, nil
}

// GetSwapTransaction requests the executable swap transaction payload. This
// is a distinct aggregator call from GetQuote, made once per execution.
func (c *Client) GetSwapTransaction(ctx context.Context, chainID int64, fromAddr, toAddr string, amount *big.Int, slippage string, wallet common.Address) (*SwapData, error) {
	params := url.Values{}
	params.Set("chainId", strconv.FormatInt(chainID, 10))
	params.Set("fromTokenAddress", fromAddr)
	params.Set("toTokenAddress", toAddr)
	params.Set("amount", amount.String())
	params.Set("slippage", slippage)
	params.Set("userWalletAddress", wallet.Hex())

	var swap SwapData
	if err := c.get(ctx, "/swap", params, &swap); err != nil {
		return nil, err
	}

	if swap.Tx.To == "" || swap.Tx.Data == "" {
		return nil, fmt.Errorf("swap transaction missing to/data: %w", swaps.ErrMalformedResponse)
	}
	if !isPositiveInteger(swap.RouterResult.ToTokenAmount) {
		return nil, fmt.Errorf("swap toTokenAmount %q: %w", swap.RouterResult.ToTokenAmount, swaps.ErrMalformedResponse)
	}

	return &swap, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	c.rateLimit()

	path := aggregatorPath + endpoint
	headers, err := c.creds.Headers(http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header = headers

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s returned %d: %s: %w", endpoint, resp.StatusCode, body, swaps.ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, body)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("parsing envelope: %w: %v", swaps.ErrMalformedResponse, err)
	}

	if env.Code != "0" {
		if isAuthErrorCode(env.Code) {
			return fmt.Errorf("okx API error %s: %s: %w", env.Code, env.Msg, swaps.ErrUnauthorized)
		}
		return fmt.Errorf("okx API error %s: %s", env.Code, env.Msg)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(env.Data, &entries); err != nil || len(entries) == 0 {
		return fmt.Errorf("empty or invalid data array: %w", swaps.ErrMalformedResponse)
	}
	if err := json.Unmarshal(entries[0], out); err != nil {
		return fmt.Errorf("parsing %s data: %w: %v", endpoint, swaps.ErrMalformedResponse, err)
	}

	return nil
}

// isAuthErrorCode matches the OKX 501xx credential error family (invalid
// key, signature, timestamp, or passphrase).
func isAuthErrorCode(code string) bool {
	return strings.HasPrefix(code, "501")
}

func isPositiveInteger(s string) bool {
	n, ok := new(big.Int).SetString(s, 10)
	return ok && n.Sign() > 0
}
