package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadValid(t *testing.T) {
	path := writeConfig(t, `{
		"mnemonic": "test test test test test test test test test test test junk",
		"database_path": "swapdesk.db",
		"rpc_endpoints": {"1": "https://eth.example", "146": "https://sonic.example"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "0.5", cfg.Slippage)

	endpoints := cfg.Endpoints()
	require.Equal(t, "https://eth.example", endpoints[1])
	require.Equal(t, "https://sonic.example", endpoints[146])
}

func TestLoadMissingMnemonic(t *testing.T) {
	path := writeConfig(t, `{"database_path": "x.db", "rpc_endpoints": {"1": "https://eth.example"}}`)
	_, err := Load(path)
	require.ErrorContains(t, err, "mnemonic")
}

func TestLoadNoEndpoints(t *testing.T) {
	path := writeConfig(t, `{"mnemonic": "m", "database_path": "x.db"}`)
	_, err := Load(path)
	require.ErrorContains(t, err, "rpc endpoint")
}

func TestLoadBadEndpointKey(t *testing.T) {
	path := writeConfig(t, `{"mnemonic": "m", "database_path": "x.db", "rpc_endpoints": {"sonic": "https://sonic.example"}}`)
	_, err := Load(path)
	require.ErrorContains(t, err, "chain ID")
}

func TestLoadTelegramRequiresAdmin(t *testing.T) {
	path := writeConfig(t, `{
		"mnemonic": "m",
		"database_path": "x.db",
		"rpc_endpoints": {"1": "https://eth.example"},
		"telegram_token": "123:abc"
	}`)
	_, err := Load(path)
	require.ErrorContains(t, err, "admin_user_id")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestIsAuthorized(t *testing.T) {
	cfg := &Config{AdminUserID: 42}
	require.True(t, cfg.IsAuthorized(42))
	require.False(t, cfg.IsAuthorized(7))
	require.False(t, cfg.IsAuthorized(0))
}
