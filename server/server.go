// Package server exposes the swap desk over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/colechu/swapdesk/balances"
	"github.com/colechu/swapdesk/config"
	"github.com/colechu/swapdesk/db"
	"github.com/colechu/swapdesk/swaps"
	"github.com/colechu/swapdesk/tokens"
	"github.com/colechu/swapdesk/wallet"
)

type Server struct {
	cfg     *config.Config
	store   *db.Store
	wallet  *wallet.Wallet
	reader  *balances.Reader
	swapMgr *swaps.Manager
}

func New(cfg *config.Config, store *db.Store, w *wallet.Wallet, reader *balances.Reader, swapMgr *swaps.Manager) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		wallet:  w,
		reader:  reader,
		swapMgr: swapMgr,
	}
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/tokens", s.handleTokens)
	mux.HandleFunc("/api/balances", s.handleBalances)
	mux.HandleFunc("/api/quote", s.handleQuote)
	mux.HandleFunc("/api/swap", s.handleSwap)
	mux.HandleFunc("/api/swaps", s.handleSwaps)
	mux.HandleFunc("/api/wallet", s.handleWallet)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	log.Printf("HTTP server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// --- API handlers ---

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	chainID, err := chainParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	toks := tokens.ByChain(chainID)
	if len(toks) == 0 {
		http.Error(w, fmt.Sprintf("unsupported chain %d", chainID), http.StatusNotFound)
		return
	}
	writeJSON(w, toks)
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"address": s.wallet.Address().Hex()})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	chainID, err := chainParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	toks := tokens.ByChain(chainID)
	if len(toks) == 0 {
		http.Error(w, fmt.Sprintf("unsupported chain %d", chainID), http.StatusNotFound)
		return
	}

	bals, err := s.reader.Balances(r.Context(), chainID, s.wallet.Address(), toks)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type entry struct {
		Symbol  string `json:"symbol"`
		Address string `json:"address"`
		Balance string `json:"balance"`
	}
	result := make([]entry, 0, len(toks))
	for _, tok := range toks {
		result = append(result, entry{Symbol: tok.Symbol, Address: tok.Address, Balance: bals[tok.Address]})
	}
	writeJSON(w, result)
}

type swapRequest struct {
	ChainID   int64  `json:"chain_id"`
	ToChainID int64  `json:"to_chain_id"` // optional; defaults to chain_id
	FromToken string `json:"from_token"`  // symbol or address
	ToToken   string `json:"to_token"`
	Amount    string `json:"amount"` // display units
	Slippage  string `json:"slippage"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := s.parseSwapRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	quote, err := s.swapMgr.BestQuote(r.Context(), *req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, quote)
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := s.parseSwapRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	quote, err := s.swapMgr.BestQuote(r.Context(), *req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	receipt, err := s.swapMgr.ExecuteSwap(r.Context(), quote, s.wallet.PrivateKey())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, swaps.ErrInFlight) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, map[string]interface{}{
		"quote":   quote,
		"receipt": receipt,
	})
}

func (s *Server) handleSwaps(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	recent, err := s.store.ListRecentSwaps(r.Context(), s.wallet.Address().Hex(), int(limit))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, recent)
}

func (s *Server) parseSwapRequest(r *http.Request) (*swaps.QuoteRequest, error) {
	var body swapRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	if body.ToChainID == 0 {
		body.ToChainID = body.ChainID
	}

	from, err := tokens.Lookup(body.ChainID, body.FromToken)
	if err != nil {
		return nil, fmt.Errorf("from_token: %w", err)
	}
	to, err := tokens.Lookup(body.ToChainID, body.ToToken)
	if err != nil {
		return nil, fmt.Errorf("to_token: %w", err)
	}

	raw, err := from.ToSmallestUnit(body.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}

	slippage := body.Slippage
	if slippage == "" {
		slippage = s.cfg.Slippage
	}

	return &swaps.QuoteRequest{
		FromToken: from,
		ToToken:   to,
		ChainID:   body.ChainID,
		ToChainID: body.ToChainID,
		Amount:    body.Amount,
		AmountRaw: raw,
		Wallet:    s.wallet.Address(),
		Slippage:  slippage,
	}, nil
}

func chainParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("chain")
	if raw == "" {
		return 0, fmt.Errorf("chain query parameter is required")
	}
	chainID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chain %q", raw)
	}
	return chainID, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
