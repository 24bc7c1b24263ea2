package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// BIP39 mnemonic for wallet derivation
	Mnemonic string `json:"mnemonic"`

	// Path to SQLite database
	DatabasePath string `json:"database_path"`

	// RPC endpoints for supported chains, keyed by chain ID
	RPCEndpoints map[string]string `json:"rpc_endpoints"`

	// HTTP server port (default 8080)
	Port int `json:"port"`

	// Optional Telegram bot token from @BotFather; empty disables the bot
	TelegramToken string `json:"telegram_token"`

	// Telegram user ID allowed to trigger swaps from the bot
	AdminUserID int64 `json:"admin_user_id"`

	// Default slippage percentage for quotes (default "0.5")
	Slippage string `json:"slippage"`

	// Override for the OKX aggregator base URL; empty uses the default
	OKXBaseURL string `json:"okx_base_url"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Mnemonic == "" {
		return fmt.Errorf("mnemonic is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if len(c.RPCEndpoints) == 0 {
		return fmt.Errorf("at least one rpc endpoint is required")
	}
	for id := range c.RPCEndpoints {
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			return fmt.Errorf("rpc_endpoints key %q is not a chain ID", id)
		}
	}
	if c.TelegramToken != "" && c.AdminUserID == 0 {
		return fmt.Errorf("admin_user_id is required when telegram_token is set")
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Slippage == "" {
		c.Slippage = "0.5"
	}
	return nil
}

// Endpoints returns the RPC endpoint map keyed by numeric chain ID.
func (c *Config) Endpoints() map[int64]string {
	out := make(map[int64]string, len(c.RPCEndpoints))
	for id, url := range c.RPCEndpoints {
		chainID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue // validated at load time
		}
		out[chainID] = url
	}
	return out
}

func (c *Config) IsAuthorized(userID int64) bool {
	return userID == c.AdminUserID
}
