package okx

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/colechu/swapdesk/balances"
	"github.com/colechu/swapdesk/fees"
	"github.com/colechu/swapdesk/swaps"
	"github.com/colechu/swapdesk/tokens"
)

var (
	mockAggregatorFee = decimal.RequireFromString("0.997") // models the 0.3% aggregator fee
	mockSlippage      = decimal.RequireFromString("0.995")
)

var approveABI abi.ABI

func init() {
	var err error
	approveABI, err = abi.JSON(strings.NewReader(erc20ApproveABI))
	if err != nil {
		panic(err)
	}
}

// EVMBackend is the subset of ethclient.Client the provider needs to execute
// swaps.
type EVMBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// Provider implements swaps.Provider against the OKX DEX aggregator. Without
// credentials every operation degrades to deterministic simulation so the
// rest of the system stays exercisable.
type Provider struct {
	creds    Credentials
	client   *Client
	feeCalc  *fees.Calculator
	backends map[int64]EVMBackend // keyed by chain ID
	reader   *balances.Reader
}

func NewProvider(creds Credentials, client *Client, feeCalc *fees.Calculator, backends map[int64]EVMBackend, reader *balances.Reader) *Provider {
	return &Provider{
		creds:    creds,
		client:   client,
		feeCalc:  feeCalc,
		backends: backends,
		reader:   reader,
	}
}

func (p *Provider) Name() string {
	return "okx"
}

// Quote prices a same-chain swap. Once token resolution has succeeded this
// never fails on upstream errors: an unconfigured or unreachable aggregator
// yields a simulated quote computed from catalog reference prices.
func (p *Provider) Quote(ctx context.Context, req swaps.QuoteRequest) (*swaps.Quote, error) {
	if req.CrossChain() {
		return nil, fmt.Errorf("okx: cross-chain swap %d -> %d not supported", req.ChainID, req.ToChainID)
	}

	if !p.creds.Configured() {
		return p.mockQuote(req, "credentials not configured")
	}

	data, err := p.client.GetQuote(ctx, req.ChainID, req.FromToken.Address, req.ToToken.Address, req.AmountRaw, slippageOrDefault(req.Slippage))
	if err != nil {
		log.Printf("okx: live quote %s -> %s failed, falling back to simulated: %v", req.FromToken.Symbol, req.ToToken.Symbol, err)
		return p.mockQuote(req, err.Error())
	}

	return p.liveQuote(req, data)
}

func (p *Provider) liveQuote(req swaps.QuoteRequest, data *QuoteData) (*swaps.Quote, error) {
	toRaw, ok := new(big.Int).SetString(data.ToTokenAmount, 10)
	if !ok {
		return nil, fmt.Errorf("toTokenAmount %q: %w", data.ToTokenAmount, swaps.ErrMalformedResponse)
	}

	toAmount := req.ToToken.FromSmallestUnit(toRaw)

	var minReceived string
	if raw, ok := new(big.Int).SetString(data.MinReceiveAmount, 10); ok {
		minReceived = req.ToToken.FromSmallestUnit(raw)
	} else {
		minReceived = decimal.RequireFromString(toAmount).Mul(mockSlippage).Round(6).String()
	}

	priceImpact := data.PriceImpactPercentage
	if priceImpact == "" {
		priceImpact = "0"
	}

	var route []string
	for _, hop := range data.DexRouterList {
		route = append(route, hop.Router)
	}

	quote := &swaps.Quote{
		Provider:        p.Name(),
		FromToken:       req.FromToken,
		ToToken:         req.ToToken,
		ChainID:         req.ChainID,
		ToChainID:       req.ChainID,
		FromAmount:      req.Amount,
		FromAmountRaw:   req.AmountRaw,
		ToAmount:        toAmount,
		ToAmountRaw:     toRaw,
		PriceImpact:     priceImpact,
		GasEstimate:     data.EstimateGasFee,
		MinimumReceived: minReceived,
		ExchangeRate:    exchangeRate(req.Amount, toAmount),
		Route:           route,
		Slippage:        slippageOrDefault(req.Slippage),
		Wallet:          req.Wallet,
		Source:          swaps.SourceLive,
	}

	if err := p.attachFee(quote, req); err != nil {
		return nil, err
	}
	return quote, nil
}

// mockQuote synthesizes a quote from the catalog's fixed reference prices.
// It issues no network calls.
func (p *Provider) mockQuote(req swaps.QuoteRequest, reason string) (*swaps.Quote, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", req.Amount, err)
	}

	places := int32(6)
	if req.ToToken.Decimals < places {
		places = req.ToToken.Decimals
	}

	out := amount.
		Mul(req.FromToken.PriceUSD).
		Div(req.ToToken.PriceUSD).
		Mul(mockAggregatorFee).
		Round(places)
	minReceived := out.Mul(mockSlippage).Round(places)

	toRaw, err := req.ToToken.ToSmallestUnit(out.String())
	if err != nil {
		return nil, err
	}

	quote := &swaps.Quote{
		Provider:        p.Name(),
		FromToken:       req.FromToken,
		ToToken:         req.ToToken,
		ChainID:         req.ChainID,
		ToChainID:       req.ChainID,
		FromAmount:      req.Amount,
		FromAmountRaw:   req.AmountRaw,
		ToAmount:        out.String(),
		ToAmountRaw:     toRaw,
		PriceImpact:     "0.1",
		GasEstimate:     "150000",
		MinimumReceived: minReceived.String(),
		ExchangeRate:    exchangeRate(req.Amount, out.String()),
		Route:           []string{"simulated"},
		Slippage:        slippageOrDefault(req.Slippage),
		Wallet:          req.Wallet,
		Source:          swaps.SourceSimulated,
		SimulatedReason: reason,
	}

	if err := p.attachFee(quote, req); err != nil {
		return nil, err
	}
	return quote, nil
}

func (p *Provider) attachFee(quote *swaps.Quote, req swaps.QuoteRequest) error {
	fee, err := p.feeCalc.ForAmount(req.ChainID, req.Amount)
	if err != nil {
		return fmt.Errorf("computing platform fee: %w", err)
	}
	quote.PaymentFee = fee
	return nil
}

// Execute runs the swap state machine: network check, conditional approval,
// swap payload retrieval, submission, confirmation. Simulated quotes and
// auth failures take the simulated-receipt path instead of surfacing errors.
func (p *Provider) Execute(ctx context.Context, quote *swaps.Quote, privateKey *ecdsa.PrivateKey) (*swaps.Receipt, error) {
	if quote.Simulated() || !p.creds.Configured() {
		reason := quote.SimulatedReason
		if reason == "" {
			reason = "credentials not configured"
		}
		return p.simulateReceipt(ctx, reason)
	}

	backend, err := p.backend(ctx, quote.ChainID)
	if err != nil {
		return nil, err
	}

	from := crypto.PubkeyToAddress(privateKey.PublicKey)

	// Approval must be confirmed before the swap is submitted, or the swap
	// transaction reverts on chain.
	if !quote.FromToken.IsNative() {
		if _, err := p.ApproveIfNeeded(ctx, quote.ChainID, quote.FromToken, quote.FromAmountRaw, privateKey); err != nil {
			return nil, fmt.Errorf("approving %s: %w", quote.FromToken.Symbol, err)
		}
	}

	swapData, err := p.client.GetSwapTransaction(ctx, quote.ChainID, quote.FromToken.Address, quote.ToToken.Address, quote.FromAmountRaw, quote.Slippage, from)
	if err != nil {
		if errors.Is(err, swaps.ErrUnauthorized) || errors.Is(err, swaps.ErrNotConfigured) {
			log.Printf("okx: swap payload request failed with auth error, simulating: %v", err)
			return p.simulateReceipt(ctx, err.Error())
		}
		return nil, fmt.Errorf("fetching swap transaction: %w", err)
	}

	return p.submitSwap(ctx, backend, quote.ChainID, swapData, privateKey, from)
}

func (p *Provider) submitSwap(ctx context.Context, backend EVMBackend, chainID int64, swapData *SwapData, privateKey *ecdsa.PrivateKey, from common.Address) (*swaps.Receipt, error) {
	to := common.HexToAddress(swapData.Tx.To)

	data, err := hexutil.Decode(swapData.Tx.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding tx data: %w: %v", swaps.ErrMalformedResponse, err)
	}

	value := big0
	if swapData.Tx.Value != "" {
		v, ok := new(big.Int).SetString(swapData.Tx.Value, 10)
		if !ok {
			return nil, fmt.Errorf("tx value %q: %w", swapData.Tx.Value, swaps.ErrMalformedResponse)
		}
		value = v
	}

	gas := uint64(500000)
	if swapData.Tx.Gas != "" {
		g, ok := new(big.Int).SetString(swapData.Tx.Gas, 10)
		if !ok {
			return nil, fmt.Errorf("tx gas %q: %w", swapData.Tx.Gas, swaps.ErrMalformedResponse)
		}
		gas = g.Uint64()
	}

	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, value, gas, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(chainID)), privateKey)
	if err != nil {
		return nil, fmt.Errorf("signing swap tx: %w", err)
	}

	if err := backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("sending swap tx: %w", err)
	}

	log.Printf("Swap tx sent: %s", signedTx.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, backend, signedTx)
	if err != nil {
		return nil, fmt.Errorf("waiting for swap: %w", err)
	}

	status := "confirmed"
	if receipt.Status != types.ReceiptStatusSuccessful {
		status = "failed"
	}

	return &swaps.Receipt{
		TxHash:      signedTx.Hash().Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		Status:      status,
	}, nil
}

// ApproveIfNeeded grants the aggregator router an allowance when the current
// one is below amount, waiting for the approval to confirm. Returns nil with
// no transaction when the existing allowance already suffices.
func (p *Provider) ApproveIfNeeded(ctx context.Context, chainID int64, token tokens.Token, amount *big.Int, privateKey *ecdsa.PrivateKey) (*common.Hash, error) {
	router, ok := RouterAddresses[chainID]
	if !ok {
		return nil, fmt.Errorf("no router address for chain %d", chainID)
	}

	backend, err := p.backend(ctx, chainID)
	if err != nil {
		return nil, err
	}

	owner := crypto.PubkeyToAddress(privateKey.PublicKey)
	tokenAddr := common.HexToAddress(token.Address)

	allowance, err := p.reader.Allowance(ctx, chainID, tokenAddr, owner, router)
	if err != nil {
		return nil, fmt.Errorf("reading allowance: %w", err)
	}
	if allowance.Cmp(amount) >= 0 {
		return nil, nil
	}

	data, err := approveABI.Pack("approve", router, amount)
	if err != nil {
		return nil, err
	}

	nonce, err := backend.PendingNonceAt(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, tokenAddr, big0, approveGasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(chainID)), privateKey)
	if err != nil {
		return nil, fmt.Errorf("signing approve tx: %w", err)
	}

	if err := backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("sending approve tx: %w", err)
	}

	log.Printf("Approve tx sent: %s", signedTx.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, backend, signedTx)
	if err != nil {
		return nil, fmt.Errorf("waiting for approve: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("approve tx %s reverted", signedTx.Hash().Hex())
	}

	hash := signedTx.Hash()
	return &hash, nil
}

// backend returns a connected backend for the chain, verifying the endpoint
// actually serves it. When the configured endpoint reports a different chain
// the other endpoints are probed before giving up, which is as close to a
// "switch network" remediation as a server-side wallet gets.
func (p *Provider) backend(ctx context.Context, chainID int64) (EVMBackend, error) {
	want := big.NewInt(chainID)

	if b, ok := p.backends[chainID]; ok {
		got, err := b.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("checking chain id: %w", err)
		}
		if got.Cmp(want) == 0 {
			return b, nil
		}
		log.Printf("okx: endpoint configured for chain %d reports chain %s, probing other endpoints", chainID, got)
	}

	for id, b := range p.backends {
		if id == chainID {
			continue
		}
		got, err := b.ChainID(ctx)
		if err == nil && got.Cmp(want) == 0 {
			return b, nil
		}
	}

	return nil, fmt.Errorf("chain %d: %w", chainID, swaps.ErrNetworkMismatch)
}

// simulateReceipt synthesizes a confirmed receipt after a fixed delay. The
// receipt is tagged so nothing downstream can mistake it for a real swap.
func (p *Provider) simulateReceipt(ctx context.Context, reason string) (*swaps.Receipt, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(simulatedConfirmDelay):
	}

	var hash [32]byte
	rand.Read(hash[:])

	var blockBytes [4]byte
	rand.Read(blockBytes[:])
	block := 40_000_000 + uint64(binary.BigEndian.Uint32(blockBytes[:]))%1_000_000

	return &swaps.Receipt{
		TxHash:          "0x" + hex.EncodeToString(hash[:]),
		BlockNumber:     block,
		GasUsed:         150000,
		Status:          "confirmed",
		Simulated:       true,
		SimulatedReason: reason,
	}, nil
}

// CheckStatus resolves a swap's on-chain status by receipt lookup across the
// configured chains. Simulated swaps are always completed.
func (p *Provider) CheckStatus(ctx context.Context, txHash string, externalID string) (string, error) {
	if externalID == "simulated" {
		return swaps.StatusCompleted, nil
	}

	hash := common.HexToHash(txHash)
	for _, b := range p.backends {
		receipt, err := b.TransactionReceipt(ctx, hash)
		if err != nil {
			continue
		}
		if receipt.Status == types.ReceiptStatusSuccessful {
			return swaps.StatusCompleted, nil
		}
		return swaps.StatusFailed, nil
	}

	return swaps.StatusPending, nil
}

func slippageOrDefault(s string) string {
	if s == "" {
		return DefaultSlippage
	}
	return s
}

func exchangeRate(fromAmount, toAmount string) string {
	from, err1 := decimal.NewFromString(fromAmount)
	to, err2 := decimal.NewFromString(toAmount)
	if err1 != nil || err2 != nil || from.IsZero() {
		return ""
	}
	return to.DivRound(from, 12).String()
}
