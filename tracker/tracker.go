// Package tracker polls pending on-chain swaps until they confirm or fail.
// Simulated swaps never reach the tracker; they are recorded as completed at
// execution time.
package tracker

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/colechu/swapdesk/db"
	"github.com/colechu/swapdesk/swaps"
)

type Tracker struct {
	store   *db.Store
	swapMgr *swaps.Manager

	// Optional: when set, users are notified on status changes.
	botAPI     *tgbotapi.BotAPI
	notifyChat int64
}

func New(store *db.Store, swapMgr *swaps.Manager, botAPI *tgbotapi.BotAPI, notifyChat int64) *Tracker {
	return &Tracker{
		store:      store,
		swapMgr:    swapMgr,
		botAPI:     botAPI,
		notifyChat: notifyChat,
	}
}

func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	// Run once immediately on start
	t.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Tracker stopped")
			return
		case <-ticker.C:
			t.poll(ctx)
		}
	}
}

func (t *Tracker) poll(ctx context.Context) {
	pending, err := t.store.ListPendingSwaps(ctx)
	if err != nil {
		log.Printf("Tracker: error listing pending swaps: %v", err)
		return
	}

	if len(pending) == 0 {
		return
	}

	log.Printf("Tracker: checking %d pending swap(s)", len(pending))

	for _, swap := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log.Printf("Tracker: checking %s (tx %s)", swap.ShortID, swap.TxHash)

		status, err := t.swapMgr.CheckStatus(ctx, swap.Provider, swap.TxHash, "")
		if err != nil {
			log.Printf("Tracker: error checking %s: %v", swap.ShortID, err)
			continue
		}

		log.Printf("Tracker: %s status = %s", swap.ShortID, status)

		switch status {
		case swaps.StatusCompleted, swaps.StatusFailed:
			if err := t.store.UpdateSwapStatus(ctx, swap.ID, status); err != nil {
				log.Printf("Tracker: error updating %s: %v", swap.ShortID, err)
				continue
			}
			log.Printf("Tracker: swap %s %s", swap.ShortID, status)
			t.notify(swap, status)
		}
	}
}

func (t *Tracker) notify(swap db.Swap, status string) {
	if t.botAPI == nil || t.notifyChat == 0 {
		return
	}

	var text string
	switch status {
	case swaps.StatusCompleted:
		text = fmt.Sprintf("*Swap %s Complete*\n%s %s -> %s confirmed.\nTx: `%s`",
			swap.ShortID, swap.FromAmount, swap.FromSymbol, swap.ToSymbol, swap.TxHash)
	case swaps.StatusFailed:
		text = fmt.Sprintf("*Swap %s Failed*\n%s %s -> %s reverted on chain.\nTx: `%s`",
			swap.ShortID, swap.FromAmount, swap.FromSymbol, swap.ToSymbol, swap.TxHash)
	default:
		return
	}

	msg := tgbotapi.NewMessage(t.notifyChat, text)
	msg.ParseMode = "Markdown"
	msg.DisableWebPagePreview = true
	if _, err := t.botAPI.Send(msg); err != nil {
		log.Printf("Tracker: error notifying chat %d: %v", t.notifyChat, err)
	}
}
