package apilog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/colechu/swapdesk/db"
)

func TestRoundTripLogsRequest(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The upstream still receives the real credential headers.
		require.Equal(t, "secret-key", r.Header.Get("OK-ACCESS-KEY"))
		w.Write([]byte(`{"code":"0"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient("okx", store)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/quote", nil)
	require.NoError(t, err)
	req.Header.Set("OK-ACCESS-KEY", "secret-key")
	req.Header.Set("OK-ACCESS-SIGN", "secret-sig")
	req.Header.Set("OK-ACCESS-PASSPHRASE", "secret-pass")
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	// The insert is asynchronous.
	require.Eventually(t, func() bool {
		n, err := store.CountAPIRequests(context.Background(), "okx", false)
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedactStripsCredentialHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("OK-ACCESS-KEY", "secret-key")
	h.Set("OK-ACCESS-SIGN", "secret-sig")
	h.Set("OK-ACCESS-PASSPHRASE", "secret-pass")
	h.Set("Content-Type", "application/json")

	out := redact(h)

	require.Equal(t, "[redacted]", out.Get("OK-ACCESS-KEY"))
	require.Equal(t, "[redacted]", out.Get("OK-ACCESS-SIGN"))
	require.Equal(t, "[redacted]", out.Get("OK-ACCESS-PASSPHRASE"))
	require.Equal(t, "application/json", out.Get("Content-Type"))

	// The original header set is untouched; the outbound request still signs.
	require.Equal(t, "secret-key", h.Get("OK-ACCESS-KEY"))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short"))

	long := make([]byte, maxBodySize+10)
	for i := range long {
		long[i] = 'a'
	}
	got := truncate(string(long))
	require.Len(t, got, maxBodySize+len("...[truncated]"))
}
