package openocean

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/colechu/swapdesk/swaps"
	"github.com/colechu/swapdesk/tokens"
)

func testProvider(handler http.HandlerFunc) (*Provider, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	return NewProvider(client), srv
}

func sonicRequest(t *testing.T) swaps.QuoteRequest {
	t.Helper()
	sonic, err := tokens.Lookup(tokens.ChainSonic, "SONIC")
	require.NoError(t, err)
	usdc, err := tokens.Lookup(tokens.ChainSonic, "USDC")
	require.NoError(t, err)
	raw, err := sonic.ToSmallestUnit("10")
	require.NoError(t, err)

	return swaps.QuoteRequest{
		FromToken: sonic,
		ToToken:   usdc,
		ChainID:   tokens.ChainSonic,
		ToChainID: tokens.ChainSonic,
		Amount:    "10",
		AmountRaw: raw,
		Wallet:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Slippage:  "0.5",
	}
}

func TestQuote(t *testing.T) {
	var gotPath string
	p, srv := testProvider(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, "10", r.URL.Query().Get("amount"))
		w.Write([]byte(`{"code":200,"data":{
			"inAmount":"10000000000000000000",
			"outAmount":"12400000",
			"estimatedGas":"180000",
			"price_impact":"0.08%"
		}}`))
	})
	defer srv.Close()

	quote, err := p.Quote(context.Background(), sonicRequest(t))
	require.NoError(t, err)

	require.Equal(t, "/sonic/quote", gotPath)
	require.Equal(t, "openocean", quote.Provider)
	require.Equal(t, swaps.SourceLive, quote.Source)
	require.Equal(t, "12.4", quote.ToAmount)
	require.Equal(t, "12.338", quote.MinimumReceived)
	require.Equal(t, []string{"openocean"}, quote.Route)
}

func TestQuoteAPIError(t *testing.T) {
	p, srv := testProvider(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":500,"data":{}}`))
	})
	defer srv.Close()

	_, err := p.Quote(context.Background(), sonicRequest(t))
	require.Error(t, err)
}

func TestQuoteEmptyOutAmount(t *testing.T) {
	p, srv := testProvider(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"data":{"outAmount":"0"}}`))
	})
	defer srv.Close()

	_, err := p.Quote(context.Background(), sonicRequest(t))
	require.Error(t, err)
}

func TestQuoteCrossChainRejected(t *testing.T) {
	p := NewProvider(NewClient(nil))

	req := sonicRequest(t)
	req.ToChainID = tokens.ChainEthereum

	_, err := p.Quote(context.Background(), req)
	require.Error(t, err)
}

func TestQuoteUnsupportedChain(t *testing.T) {
	p := NewProvider(NewClient(nil))

	req := sonicRequest(t)
	req.ChainID = 999
	req.ToChainID = 999

	_, err := p.Quote(context.Background(), req)
	require.Error(t, err)
}

func TestExecuteUnsupported(t *testing.T) {
	p := NewProvider(NewClient(nil))

	_, err := p.Execute(context.Background(), &swaps.Quote{}, nil)
	require.ErrorIs(t, err, swaps.ErrExecuteUnsupported)

	_, err = p.CheckStatus(context.Background(), "0xabc", "")
	require.ErrorIs(t, err, swaps.ErrExecuteUnsupported)
}
