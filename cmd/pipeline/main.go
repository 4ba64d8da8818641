package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"solana-orchestrator/api"
	"solana-orchestrator/config"
	"solana-orchestrator/custody"
	"solana-orchestrator/engine"
	"solana-orchestrator/storage"
	"solana-orchestrator/trading"
)

// main wires every SPEC_FULL.md component into the running copy-trade
// pipeline, following main.go's flag-parsing/banner-printing shape but
// standing up a long-lived service instead of a one-shot analysis run.
func main() {
	configPath := flag.String("config", "config/config.json", "Config path")
	dbPath := flag.String("db", "orchestrator.db", "SQLite audit DB path")
	flag.Parse()

	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen, color.Bold)

	cyan.Println("\n" + strings.Repeat("=", 80))
	cyan.Println("🚀 SOLANA COPY-TRADE PIPELINE")
	cyan.Println(strings.Repeat("=", 80) + "\n")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	rdb, err := engine.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	registry := engine.NewFollowerRegistry(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := registry.Sync(ctx); err != nil {
		log.Printf("registry sync: %v", err)
	}
	cancel()

	if maybeRunDevSeed(registry) {
		green.Println("✅ devseed complete")
		return
	}

	gateway := trading.NewRPCGateway(cfg.Environment.NodeHTTP)
	classifier := engine.NewClassifier(gateway)
	quotes := trading.NewQuoteClient(cfg.Environment.MetisHTTP)
	jito := trading.NewJitoClient(cfg.Environment.JitoBlockEngineURL, uint64(cfg.TradingSettings.JitoTipLamports))

	signer, err := custody.NewClient(
		cfg.Environment.CustodyAPIPublicKey,
		cfg.Environment.CustodyAPIPrivKey,
		cfg.Environment.CustodyOrgID,
	)
	if err != nil {
		log.Fatalf("custody client: %v", err)
	}
	if cfg.Environment.CustodyBaseURL != "" {
		signer.SetBaseURL(cfg.Environment.CustodyBaseURL)
	}

	bus := engine.NewEventBus()
	defer bus.Close()

	db, err := storage.New(*dbPath)
	if err != nil {
		log.Fatalf("sqlite open: %v", err)
	}
	defer db.Close()

	subs := trading.NewSubscriptionManager(cfg.Environment.NodeWSS)

	fanout := engine.NewFanOutEngine(cfg, registry, classifier, gateway, quotes, jito, signer, bus, db, subs)

	server := api.NewControlServer(registry, subs, gateway, quotes, jito, bus)

	leaders, err := registry.AllLeaders(context.Background())
	if err != nil {
		log.Printf("initial leader list: %v", err)
	}
	subCtx, subCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := subs.Reconnect(subCtx); err != nil {
		log.Printf("initial websocket connect: %v", err)
	}
	if err := subs.SubscribeAll(subCtx, leaders); err != nil {
		log.Printf("initial subscribe: %v", err)
	}
	subCancel()

	fanout.Start(cfg.FanOutEngine.WorkerCount)

	addr := ":" + strconv.Itoa(cfg.Pipeline.ControlAPIPort)
	httpServer := &http.Server{Addr: addr, Handler: server.Routes()}
	go func() {
		yellow.Printf("🌐 control API listening on %s\n", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("control API: %v", err)
		}
	}()

	green.Println("✅ pipeline running — subscriptions live, workers started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	yellow.Println("\n🛑 shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	subs.Close()
	fanout.Shutdown()
}
