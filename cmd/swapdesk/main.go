package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"

	"github.com/colechu/swapdesk/apilog"
	"github.com/colechu/swapdesk/balances"
	"github.com/colechu/swapdesk/bot"
	"github.com/colechu/swapdesk/config"
	"github.com/colechu/swapdesk/db"
	"github.com/colechu/swapdesk/debridge"
	"github.com/colechu/swapdesk/fees"
	"github.com/colechu/swapdesk/okx"
	"github.com/colechu/swapdesk/openocean"
	"github.com/colechu/swapdesk/server"
	"github.com/colechu/swapdesk/swaps"
	"github.com/colechu/swapdesk/tracker"
	"github.com/colechu/swapdesk/wallet"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	// API credentials come from the environment, not the config file.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using existing environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Connect RPC clients
	backends := make(map[int64]okx.EVMBackend)
	readers := make(map[int64]balances.ChainReader)
	for chainID, url := range cfg.Endpoints() {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Fatalf("Failed to connect to chain %d RPC at %s: %v", chainID, url, err)
		}
		backends[chainID] = client
		readers[chainID] = client
		log.Printf("Connected to chain %d RPC", chainID)
	}

	reader := balances.NewReader(readers)

	w, err := wallet.FromMnemonic(cfg.Mnemonic, 0)
	if err != nil {
		log.Fatalf("Failed to derive wallet: %v", err)
	}
	log.Printf("Wallet address: %s", w.Address().Hex())

	creds := okx.CredentialsFromEnv()
	if !creds.Configured() {
		log.Println("OKX credentials not configured; quotes and swaps will be simulated")
	}

	// Initialize providers
	okxClient := okx.NewClient(creds, cfg.OKXBaseURL, apilog.NewHTTPClient("okx", database))
	ooClient := openocean.NewClient(apilog.NewHTTPClient("openocean", database))
	dlnClient := debridge.NewClient(apilog.NewHTTPClient("debridge", database))

	providers := []swaps.Provider{
		okx.NewProvider(creds, okxClient, fees.DefaultCalculator(), backends, reader),
		openocean.NewProvider(ooClient),
		debridge.NewProvider(dlnClient),
	}

	swapMgr := swaps.NewManager(database, providers...)

	// Optional Telegram bot
	var b *bot.Bot
	if cfg.TelegramToken != "" {
		b, err = bot.New(cfg, database, w, reader, swapMgr)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
	}

	// Start HTTP server
	srv := server.New(cfg, database, w, reader, swapMgr)
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Start swap completion tracker
	ctx, cancel := context.WithCancel(context.Background())
	var trk *tracker.Tracker
	if b != nil {
		trk = tracker.New(database, swapMgr, b.API(), cfg.AdminUserID)
	} else {
		trk = tracker.New(database, swapMgr, nil, 0)
	}
	go trk.Run(ctx)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down...")
		cancel()
		if b != nil {
			b.Stop()
		}
		os.Exit(0)
	}()

	log.Println("Starting SwapDesk...")
	if b != nil {
		if err := b.Run(ctx); err != nil {
			log.Fatalf("Bot error: %v", err)
		}
	} else {
		<-ctx.Done()
	}
}
