// Package db persists swap attempts and the aggregator API request log in
// SQLite.
package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store wraps the SQLite connection with typed queries.
type Store struct {
	conn *sql.DB
}

func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// Swap is one recorded swap attempt.
type Swap struct {
	ID         int64
	ShortID    string
	Wallet     string
	ChainID    int64
	Provider   string
	FromSymbol string
	ToSymbol   string
	FromAmount string
	ToAmount   string
	TxHash     string
	Status     string
	Simulated  bool
	Reason     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type InsertSwapParams struct {
	Wallet     string
	ChainID    int64
	Provider   string
	FromSymbol string
	ToSymbol   string
	FromAmount string
	ToAmount   string
}

// InsertSwap records a new pending swap attempt and assigns it a short ID.
func (s *Store) InsertSwap(ctx context.Context, arg InsertSwapParams) (Swap, error) {
	shortID := generateShortID()
	result, err := s.conn.ExecContext(ctx, `
		INSERT INTO swaps (short_id, wallet, chain_id, provider, from_symbol, to_symbol, from_amount, to_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		shortID, arg.Wallet, arg.ChainID, arg.Provider, arg.FromSymbol, arg.ToSymbol, arg.FromAmount, arg.ToAmount,
	)
	if err != nil {
		return Swap{}, fmt.Errorf("inserting swap: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Swap{}, fmt.Errorf("reading swap id: %w", err)
	}

	return Swap{
		ID:         id,
		ShortID:    shortID,
		Wallet:     arg.Wallet,
		ChainID:    arg.ChainID,
		Provider:   arg.Provider,
		FromSymbol: arg.FromSymbol,
		ToSymbol:   arg.ToSymbol,
		FromAmount: arg.FromAmount,
		ToAmount:   arg.ToAmount,
		Status:     "pending",
	}, nil
}

type UpdateSwapResultParams struct {
	ID        int64
	Status    string
	TxHash    string
	Simulated bool
	Reason    string
}

// UpdateSwapResult records the outcome of a swap attempt.
func (s *Store) UpdateSwapResult(ctx context.Context, arg UpdateSwapResultParams) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE swaps
		SET status = ?, tx_hash = ?, simulated = ?, reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		arg.Status, arg.TxHash, arg.Simulated, arg.Reason, arg.ID,
	)
	if err != nil {
		return fmt.Errorf("updating swap %d: %w", arg.ID, err)
	}
	return nil
}

// UpdateSwapStatus updates only the status column.
func (s *Store) UpdateSwapStatus(ctx context.Context, id int64, status string) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE swaps SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("updating swap %d status: %w", id, err)
	}
	return nil
}

// ListPendingSwaps returns non-simulated swaps still awaiting confirmation.
func (s *Store) ListPendingSwaps(ctx context.Context) ([]Swap, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, short_id, wallet, chain_id, provider, from_symbol, to_symbol,
		       from_amount, to_amount, tx_hash, status, simulated, reason, created_at, updated_at
		FROM swaps
		WHERE status = 'pending' AND simulated = 0 AND tx_hash != ''
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing pending swaps: %w", err)
	}
	defer rows.Close()
	return scanSwaps(rows)
}

// ListRecentSwaps returns the most recent swaps for a wallet. An empty wallet
// matches all wallets.
func (s *Store) ListRecentSwaps(ctx context.Context, wallet string, limit int) ([]Swap, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, short_id, wallet, chain_id, provider, from_symbol, to_symbol,
		       from_amount, to_amount, tx_hash, status, simulated, reason, created_at, updated_at
		FROM swaps`
	args := []any{}
	if wallet != "" {
		query += ` WHERE wallet = ?`
		args = append(args, wallet)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recent swaps: %w", err)
	}
	defer rows.Close()
	return scanSwaps(rows)
}

func scanSwaps(rows *sql.Rows) ([]Swap, error) {
	var out []Swap
	for rows.Next() {
		var sw Swap
		err := rows.Scan(&sw.ID, &sw.ShortID, &sw.Wallet, &sw.ChainID, &sw.Provider,
			&sw.FromSymbol, &sw.ToSymbol, &sw.FromAmount, &sw.ToAmount,
			&sw.TxHash, &sw.Status, &sw.Simulated, &sw.Reason, &sw.CreatedAt, &sw.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning swap: %w", err)
		}
		out = append(out, sw)
	}
	return out, rows.Err()
}

type InsertAPIRequestParams struct {
	Provider        string
	Method          string
	Url             string
	RequestHeaders  sql.NullString
	RequestBody     sql.NullString
	ResponseStatus  sql.NullInt64
	ResponseHeaders sql.NullString
	ResponseBody    sql.NullString
	Error           sql.NullString
	DurationMs      sql.NullInt64
}

// InsertAPIRequest records one outbound API call.
func (s *Store) InsertAPIRequest(ctx context.Context, arg InsertAPIRequestParams) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO api_requests (provider, method, url, request_headers, request_body,
		                          response_status, response_headers, response_body, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Provider, arg.Method, arg.Url, arg.RequestHeaders, arg.RequestBody,
		arg.ResponseStatus, arg.ResponseHeaders, arg.ResponseBody, arg.Error, arg.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("inserting api request: %w", err)
	}
	return nil
}

// CountAPIRequests returns the number of logged calls for a provider,
// optionally filtered to errors only.
func (s *Store) CountAPIRequests(ctx context.Context, provider string, errorsOnly bool) (int64, error) {
	query := `SELECT COUNT(*) FROM api_requests WHERE provider = ?`
	if errorsOnly {
		query += ` AND (error IS NOT NULL OR response_status >= 400)`
	}
	var n int64
	if err := s.conn.QueryRowContext(ctx, query, provider).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting api requests: %w", err)
	}
	return n, nil
}

func generateShortID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}
