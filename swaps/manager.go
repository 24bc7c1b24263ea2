package swaps

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/colechu/swapdesk/db"
)

// Manager orchestrates swap providers: it selects the best quote, guards
// against duplicate concurrent attempts, and records attempts in the store.
type Manager struct {
	providers []Provider
	store     *db.Store // nil disables persistence

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewManager creates a Manager with the given providers. store may be nil.
func NewManager(store *db.Store, providers ...Provider) *Manager {
	return &Manager{
		providers: providers,
		store:     store,
		inflight:  make(map[string]struct{}),
	}
}

// BestQuote queries all providers and returns the quote with the highest
// expected output. A live quote always outranks a simulated one regardless of
// amounts; simulated quotes are returned only when no provider priced the
// pair for real.
func (m *Manager) BestQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	var bestLive, bestSimulated *Quote

	for _, p := range m.providers {
		q, err := p.Quote(ctx, req)
		if err != nil {
			log.Printf("provider %s quote error: %v", p.Name(), err)
			continue
		}

		if q.Simulated() {
			if bestSimulated == nil || q.ToAmountRaw.Cmp(bestSimulated.ToAmountRaw) > 0 {
				bestSimulated = q
			}
			continue
		}
		if bestLive == nil || q.ToAmountRaw.Cmp(bestLive.ToAmountRaw) > 0 {
			bestLive = q
		}
	}

	if bestLive != nil {
		return bestLive, nil
	}
	if bestSimulated != nil {
		return bestSimulated, nil
	}
	return nil, fmt.Errorf("no quotes available for %s -> %s", req.FromToken.Symbol, req.ToToken.Symbol)
}

// ExecuteSwap executes the given quote via its provider. Only one swap per
// (wallet, token pair) may be in flight at a time; a second attempt fails
// with ErrInFlight instead of racing the first.
func (m *Manager) ExecuteSwap(ctx context.Context, quote *Quote, privateKey *ecdsa.PrivateKey) (*Receipt, error) {
	wallet := crypto.PubkeyToAddress(privateKey.PublicKey)

	key := inflightKey(wallet, quote.FromToken.Address, quote.ToToken.Address)
	if !m.acquire(key) {
		return nil, fmt.Errorf("%s/%s for %s: %w", quote.FromToken.Symbol, quote.ToToken.Symbol, wallet.Hex(), ErrInFlight)
	}
	defer m.release(key)

	provider := m.provider(quote.Provider)
	if provider == nil {
		return nil, fmt.Errorf("provider %q not found", quote.Provider)
	}

	swapID := m.recordAttempt(ctx, quote, wallet)

	receipt, err := provider.Execute(ctx, quote, privateKey)
	if err != nil {
		m.recordResult(ctx, swapID, StatusFailed, "", false, err.Error())
		return nil, err
	}

	switch {
	case receipt.Simulated:
		// Simulated receipts never confirm on chain; close them out here.
		m.recordResult(ctx, swapID, StatusCompleted, receipt.TxHash, true, receipt.SimulatedReason)
	case receipt.Status == "failed":
		m.recordResult(ctx, swapID, StatusFailed, receipt.TxHash, false, "transaction reverted")
	default:
		m.recordResult(ctx, swapID, StatusPending, receipt.TxHash, false, "")
	}

	return receipt, nil
}

// CheckStatus checks the status of a swap via the named provider.
func (m *Manager) CheckStatus(ctx context.Context, provider, txHash, externalID string) (string, error) {
	p := m.provider(provider)
	if p == nil {
		return "", fmt.Errorf("provider %q not found", provider)
	}
	return p.CheckStatus(ctx, txHash, externalID)
}

func (m *Manager) provider(name string) Provider {
	for _, p := range m.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

func (m *Manager) acquire(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[key]; busy {
		return false
	}
	m.inflight[key] = struct{}{}
	return true
}

func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, key)
}

func inflightKey(wallet common.Address, fromAddr, toAddr string) string {
	return strings.ToLower(wallet.Hex() + "|" + fromAddr + "|" + toAddr)
}

func (m *Manager) recordAttempt(ctx context.Context, quote *Quote, wallet common.Address) int64 {
	if m.store == nil {
		return 0
	}
	row, err := m.store.InsertSwap(ctx, db.InsertSwapParams{
		Wallet:     wallet.Hex(),
		ChainID:    quote.ChainID,
		Provider:   quote.Provider,
		FromSymbol: quote.FromToken.Symbol,
		ToSymbol:   quote.ToToken.Symbol,
		FromAmount: quote.FromAmount,
		ToAmount:   quote.ToAmount,
	})
	if err != nil {
		log.Printf("manager: error recording swap attempt: %v", err)
		return 0
	}
	return row.ID
}

func (m *Manager) recordResult(ctx context.Context, swapID int64, status, txHash string, simulated bool, reason string) {
	if m.store == nil || swapID == 0 {
		return
	}
	err := m.store.UpdateSwapResult(ctx, db.UpdateSwapResultParams{
		ID:        swapID,
		Status:    status,
		TxHash:    txHash,
		Simulated: simulated,
		Reason:    reason,
	})
	if err != nil {
		log.Printf("manager: error updating swap %d: %v", swapID, err)
	}
}
