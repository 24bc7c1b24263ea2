package okx

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/colechu/swapdesk/swaps"
)

func testCredentials() Credentials {
	creds := NewCredentials("test-key", "test-secret", "test-pass", "test-project")
	creds.now = func() time.Time {
		return time.Date(2024, 1, 15, 10, 30, 45, 123_000_000, time.UTC)
	}
	return creds
}

func TestSignGetWithParams(t *testing.T) {
	creds := testCredentials()

	params := url.Values{}
	params.Set("chainId", "146")
	params.Set("amount", "1000")

	sig, ts, err := creds.Sign(http.MethodGet, "/api/v5/dex/aggregator/quote", params, nil)
	require.NoError(t, err)
	require.Equal(t, "2024-01-15T10:30:45.123Z", ts)
	require.Equal(t, "U2DIjNWLNvpRNwiz18yyrGt0Tq48Hs0Sb163fBfofs8=", sig)
}

func TestSignPostWithBody(t *testing.T) {
	creds := testCredentials()

	sig, _, err := creds.Sign(http.MethodPost, "/api/v5/dex/aggregator/quote", nil, []byte(`{"a":1}`))
	require.NoError(t, err)
	require.Equal(t, "XIYlOHiOCY1q+zwIqrYYz8uJ7kSEORtNrCqBZ02bbts=", sig)
}

func TestSignGetWithoutParams(t *testing.T) {
	creds := testCredentials()

	sig, _, err := creds.Sign(http.MethodGet, "/api/v5/dex/aggregator/quote", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "u3SkJsszPrH8DIBZ/ipVYWHT1WIVR6Ajo90l85NPyYI=", sig)
}

func TestSignInputChangesSignature(t *testing.T) {
	creds := testCredentials()

	params := url.Values{}
	params.Set("chainId", "146")

	sig1, _, err := creds.Sign(http.MethodGet, "/api/v5/dex/aggregator/quote", params, nil)
	require.NoError(t, err)

	params.Set("chainId", "1")
	sig2, _, err := creds.Sign(http.MethodGet, "/api/v5/dex/aggregator/quote", params, nil)
	require.NoError(t, err)

	require.NotEqual(t, sig1, sig2)
}

func TestSignUnconfigured(t *testing.T) {
	creds := NewCredentials("", "", "", "")

	_, _, err := creds.Sign(http.MethodGet, "/api/v5/dex/aggregator/quote", nil, nil)
	require.ErrorIs(t, err, swaps.ErrNotConfigured)
}

func TestConfigured(t *testing.T) {
	require.True(t, testCredentials().Configured())
	require.False(t, NewCredentials("key", "", "pass", "").Configured())
	require.False(t, NewCredentials("", "secret", "pass", "").Configured())
	// Project ID is optional
	require.True(t, NewCredentials("key", "secret", "pass", "").Configured())
}

func TestHeadersConfigured(t *testing.T) {
	creds := testCredentials()

	headers, err := creds.Headers(http.MethodGet, "/api/v5/dex/aggregator/quote", nil, nil)
	require.NoError(t, err)

	require.Equal(t, "application/json", headers.Get("Content-Type"))
	require.Equal(t, "test-key", headers.Get("OK-ACCESS-KEY"))
	require.Equal(t, "test-pass", headers.Get("OK-ACCESS-PASSPHRASE"))
	require.Equal(t, "test-project", headers.Get("OK-ACCESS-PROJECT"))
	require.Equal(t, "2024-01-15T10:30:45.123Z", headers.Get("OK-ACCESS-TIMESTAMP"))
	require.NotEmpty(t, headers.Get("OK-ACCESS-SIGN"))
}

func TestHeadersUnconfigured(t *testing.T) {
	creds := NewCredentials("", "", "", "")

	headers, err := creds.Headers(http.MethodGet, "/api/v5/dex/aggregator/quote", nil, nil)
	require.NoError(t, err)

	require.Equal(t, "application/json", headers.Get("Content-Type"))
	require.Empty(t, headers.Get("OK-ACCESS-KEY"))
	require.Empty(t, headers.Get("OK-ACCESS-SIGN"))
	require.Empty(t, headers.Get("OK-ACCESS-TIMESTAMP"))
	require.Empty(t, headers.Get("OK-ACCESS-PASSPHRASE"))
}
