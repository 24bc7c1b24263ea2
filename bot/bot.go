package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/colechu/swapdesk/balances"
	"github.com/colechu/swapdesk/config"
	"github.com/colechu/swapdesk/db"
	"github.com/colechu/swapdesk/swaps"
	"github.com/colechu/swapdesk/tokens"
	"github.com/colechu/swapdesk/wallet"
)

type Bot struct {
	api     *tgbotapi.BotAPI
	config  *config.Config
	store   *db.Store
	wallet  *wallet.Wallet
	reader  *balances.Reader
	swapMgr *swaps.Manager
}

func New(cfg *config.Config, store *db.Store, w *wallet.Wallet, reader *balances.Reader, swapMgr *swaps.Manager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	b := &Bot{
		api:     api,
		config:  cfg,
		store:   store,
		wallet:  w,
		reader:  reader,
		swapMgr: swapMgr,
	}

	log.Printf("Authorized on account %s", api.Self.UserName)
	return b, nil
}

// API exposes the underlying bot API so the tracker can send notifications.
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		if !b.config.IsAuthorized(update.Message.From.ID) {
			b.reply(update.Message, "You are not authorized to use this bot.")
			continue
		}

		b.handleMessage(ctx, update.Message)
	}

	return nil
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "address":
		b.handleAddress(msg)
	case "balance":
		b.handleBalance(ctx, msg)
	case "quote":
		b.handleQuote(ctx, msg)
	case "swap":
		b.handleSwap(ctx, msg)
	case "history":
		b.handleHistory(ctx, msg)
	default:
		b.reply(msg, "Unknown command. Use /start to get started.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	b.reply(msg, "Welcome to SwapDesk!\n"+
		"/address - show the wallet address\n"+
		"/balance <chain> - token balances\n"+
		"/quote <chain> <from> <to> <amount> - get the best quote\n"+
		"/swap <chain> <from> <to> <amount> - execute a swap\n"+
		"/history - recent swaps")
}

func (b *Bot) handleAddress(msg *tgbotapi.Message) {
	b.reply(msg, fmt.Sprintf("Wallet address: `%s`", b.wallet.Address().Hex()))
}

func (b *Bot) handleBalance(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		b.reply(msg, "Usage: /balance <chainID>")
		return
	}

	chainID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(msg, fmt.Sprintf("Invalid chain ID %q", args[0]))
		return
	}

	toks := tokens.ByChain(chainID)
	if len(toks) == 0 {
		b.reply(msg, fmt.Sprintf("Unsupported chain %d", chainID))
		return
	}

	bals, err := b.reader.Balances(ctx, chainID, b.wallet.Address(), toks)
	if err != nil {
		b.reply(msg, fmt.Sprintf("Error reading balances: %v", err))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*Balances on chain %d*\n", chainID)
	for _, tok := range toks {
		fmt.Fprintf(&sb, "%s: `%s`\n", tok.Symbol, bals[tok.Address])
	}
	b.reply(msg, sb.String())
}

func (b *Bot) handleQuote(ctx context.Context, msg *tgbotapi.Message) {
	req, err := b.parseSwapArgs(msg.CommandArguments())
	if err != nil {
		b.reply(msg, err.Error())
		return
	}

	quote, err := b.swapMgr.BestQuote(ctx, *req)
	if err != nil {
		b.reply(msg, fmt.Sprintf("Error getting quote: %v", err))
		return
	}

	b.reply(msg, formatQuote(quote))
}

func (b *Bot) handleSwap(ctx context.Context, msg *tgbotapi.Message) {
	req, err := b.parseSwapArgs(msg.CommandArguments())
	if err != nil {
		b.reply(msg, err.Error())
		return
	}

	quote, err := b.swapMgr.BestQuote(ctx, *req)
	if err != nil {
		b.reply(msg, fmt.Sprintf("Error getting quote: %v", err))
		return
	}

	receipt, err := b.swapMgr.ExecuteSwap(ctx, quote, b.wallet.PrivateKey())
	if err != nil {
		b.reply(msg, fmt.Sprintf("Swap failed: %v", err))
		return
	}

	text := fmt.Sprintf("Swap submitted via %s.\nTx: `%s`\nStatus: %s",
		quote.Provider, receipt.TxHash, receipt.Status)
	if receipt.Simulated {
		text += "\n_This swap was simulated; no funds moved._"
	}
	b.reply(msg, text)
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) {
	recent, err := b.store.ListRecentSwaps(ctx, b.wallet.Address().Hex(), 10)
	if err != nil {
		b.reply(msg, fmt.Sprintf("Error listing swaps: %v", err))
		return
	}

	if len(recent) == 0 {
		b.reply(msg, "No swaps yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("*Recent swaps*\n")
	for _, s := range recent {
		tag := ""
		if s.Simulated {
			tag = " (simulated)"
		}
		fmt.Fprintf(&sb, "`%s` %s %s -> %s %s [%s]%s\n",
			s.ShortID, s.FromAmount, s.FromSymbol, s.ToAmount, s.ToSymbol, s.Status, tag)
	}
	b.reply(msg, sb.String())
}

// parseSwapArgs parses "<chainID> <from> <to> <amount>" into a quote request
// for the bot's wallet.
func (b *Bot) parseSwapArgs(args string) (*swaps.QuoteRequest, error) {
	fields := strings.Fields(args)
	if len(fields) != 4 {
		return nil, fmt.Errorf("Usage: <chainID> <fromToken> <toToken> <amount>")
	}

	chainID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("Invalid chain ID %q", fields[0])
	}

	from, err := tokens.Lookup(chainID, fields[1])
	if err != nil {
		return nil, fmt.Errorf("Unknown token %q on chain %d", fields[1], chainID)
	}
	to, err := tokens.Lookup(chainID, fields[2])
	if err != nil {
		return nil, fmt.Errorf("Unknown token %q on chain %d", fields[2], chainID)
	}

	raw, err := from.ToSmallestUnit(fields[3])
	if err != nil {
		return nil, fmt.Errorf("Invalid amount %q: %v", fields[3], err)
	}

	return &swaps.QuoteRequest{
		FromToken: from,
		ToToken:   to,
		ChainID:   chainID,
		ToChainID: chainID,
		Amount:    fields[3],
		AmountRaw: raw,
		Wallet:    b.wallet.Address(),
		Slippage:  b.config.Slippage,
	}, nil
}

func formatQuote(q *swaps.Quote) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Quote via %s*\n", q.Provider)
	fmt.Fprintf(&sb, "%s %s -> %s %s\n", q.FromAmount, q.FromToken.Symbol, q.ToAmount, q.ToToken.Symbol)
	fmt.Fprintf(&sb, "Rate: %s\n", q.ExchangeRate)
	fmt.Fprintf(&sb, "Min received: %s\n", q.MinimumReceived)
	fmt.Fprintf(&sb, "Price impact: %s%%\n", q.PriceImpact)
	if q.PaymentFee != nil {
		fmt.Fprintf(&sb, "Platform fee: %s %s (%d bps)\n", q.PaymentFee.Fee, q.FromToken.Symbol, q.PaymentFee.Bps)
	}
	if q.Simulated() {
		sb.WriteString("_Simulated quote; live pricing unavailable._\n")
	}
	return sb.String()
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID
	reply.ParseMode = "Markdown"
	if _, err := b.api.Send(reply); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
