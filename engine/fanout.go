package engine

import (
	"context"
	"log"
	"sync"

	"github.com/gagliardetto/solana-go"

	"solana-orchestrator/config"
	"solana-orchestrator/custody"
	"solana-orchestrator/internal/bundle"
	"solana-orchestrator/storage"
	"solana-orchestrator/trading"
)

// FanOutEngine is Component F: for every ClassifiedSwap it mirrors the
// leader's trade into each active follower's own wallet via the custody
// signer, submitting both a direct send and a priority bundle and tracking
// whichever confirms first. Adapted from the teacher's FanOutEngine
// lifecycle (worker pool draining a shared channel, a stop channel, a
// WaitGroup) and engine/executor.go's buy/sell dispatch, rebuilt around
// delegated signing instead of a locally-held private key.
type FanOutEngine struct {
	cfg *config.Config

	registry   *FollowerRegistry
	classifier *Classifier
	gateway    *trading.RPCGateway
	quotes     *trading.QuoteClient
	jito       *trading.JitoClient
	signer     *custody.Client
	bus        *EventBus
	db         *storage.DB
	subs       *trading.SubscriptionManager

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewFanOutEngine(
	cfg *config.Config,
	registry *FollowerRegistry,
	classifier *Classifier,
	gateway *trading.RPCGateway,
	quotes *trading.QuoteClient,
	jito *trading.JitoClient,
	signer *custody.Client,
	bus *EventBus,
	db *storage.DB,
	subs *trading.SubscriptionManager,
) *FanOutEngine {
	return &FanOutEngine{
		cfg:        cfg,
		registry:   registry,
		classifier: classifier,
		gateway:    gateway,
		quotes:     quotes,
		jito:       jito,
		signer:     signer,
		bus:        bus,
		db:         db,
		subs:       subs,
		stopChan:   make(chan struct{}),
	}
}

// Start launches one consumer per notification-processing worker, matching
// the teacher's worker-pool shape but draining LogNotification frames into
// the classify-then-fan-out pipeline instead of raw program logs.
func (e *FanOutEngine) Start(workerCount int) {
	if workerCount <= 0 {
		workerCount = 10
	}
	log.Println("Starting Fan-Out Engine...")
	for i := 0; i < workerCount; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
}

func (e *FanOutEngine) Shutdown() {
	close(e.stopChan)
	e.wg.Wait()
	log.Println("Fan-Out Engine stopped")
}

func (e *FanOutEngine) worker(id int) {
	defer e.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-e.stopChan:
			return
		case notification, ok := <-e.subs.Notifications():
			if !ok {
				return
			}
			if notification.Err != nil {
				continue // transaction failed on-chain, nothing to copy
			}
			e.handleNotification(ctx, notification.Signature)
		}
	}
}

// handleNotification classifies one signature and fans it out. Distinct
// signatures run concurrently (each is its own worker pickup); followers of
// the same classified swap are processed in sequence, per spec.md §4.F.
func (e *FanOutEngine) handleNotification(ctx context.Context, signature string) {
	swap, err := e.classifier.Classify(ctx, signature)
	if err != nil {
		return // classification gap or not-yet-available: drop, no retry
	}
	if swap.TokenMint == "" {
		return // no token mint could be extracted: nothing to copy
	}

	followers, err := e.registry.FollowersOf(ctx, swap.Leader)
	if err != nil {
		log.Printf("fanout: followers_of(%s): %v", swap.Leader, err)
		return
	}

	for _, f := range followers {
		if !f.Active {
			continue
		}
		e.copyForFollower(ctx, f, swap)
	}
}

func (e *FanOutEngine) copyForFollower(ctx context.Context, f Follower, swap ClassifiedSwap) {
	followerPubkey, err := solana.PublicKeyFromBase58(f.OwningAccount)
	if err != nil {
		log.Printf("fanout: invalid follower account %s: %v", f.OwningAccount, err)
		return
	}

	var quote *trading.Quote
	var tipSOL float64

	switch swap.Side {
	case SideBuy:
		quote, err = e.quotes.GetBuyQuote(ctx, swap.TokenMint, f.BuyAmountNative, e.cfg.TradingSettings.DefaultSlippageBps)
		tipSOL = e.cfg.TradingSettings.BuyTipSOL
	case SideSell:
		balances, balErr := e.gateway.GetTokenAccountsByOwner(ctx, followerPubkey)
		if balErr != nil {
			log.Printf("fanout: token balances for %s: %v", f.OwningAccount, balErr)
			return
		}
		var amount uint64
		for _, tb := range balances {
			if tb.Mint == swap.TokenMint {
				amount = tb.Amount
				break
			}
		}
		if amount == 0 {
			e.bus.Publish(OutboundEvent{EventType: "copy_trade_skipped", Data: map[string]string{
				"reason":    "no balance",
				"follower":  f.OwningAccount,
				"leader":    swap.Leader,
				"signature": swap.Signature,
			}})
			return
		}
		quote, err = e.quotes.GetSellQuote(ctx, swap.TokenMint, amount, e.cfg.TradingSettings.DefaultSlippageBps)
		tipSOL = e.cfg.TradingSettings.SellTipSOL
	default:
		return
	}
	if err != nil {
		log.Printf("fanout: quote for follower %s: %v", f.OwningAccount, err)
		return
	}

	priorityFeeLamports := int64(e.cfg.TradingSettings.JitoTipLamports)
	swapResp, err := e.quotes.GetSwapTransaction(ctx, quote, f.OwningAccount, priorityFeeLamports)
	if err != nil {
		log.Printf("fanout: swap tx for follower %s: %v", f.OwningAccount, err)
		return
	}

	swapTx, err := solana.TransactionFromBase64(swapResp.SwapTransaction)
	if err != nil {
		log.Printf("fanout: decode swap tx: %v", err)
		return
	}

	tipLamports := uint64(tipSOL * 1e9)
	tipInstruction, err := e.jito.CreateTipInstructionWithAmount(followerPubkey, tipLamports)
	if err != nil {
		log.Printf("fanout: tip instruction: %v", err)
		return
	}
	blockhash, err := e.gateway.GetLatestBlockhash(ctx)
	if err != nil {
		log.Printf("fanout: latest blockhash: %v", err)
		return
	}
	tipTx, err := solana.NewTransaction([]solana.Instruction{tipInstruction}, blockhash, solana.TransactionPayer(followerPubkey))
	if err != nil {
		log.Printf("fanout: build tip tx: %v", err)
		return
	}

	if err := e.signer.SignTransaction(ctx, tipTx, f.WalletID, followerPubkey); err != nil {
		log.Printf("fanout: sign tip tx for %s: %v", f.OwningAccount, err)
		return
	}
	if err := e.signer.SignTransaction(ctx, swapTx, f.WalletID, followerPubkey); err != nil {
		log.Printf("fanout: sign swap tx for %s: %v", f.OwningAccount, err)
		return
	}

	swapSig, err := e.gateway.SendTransaction(ctx, swapTx)
	if err != nil {
		log.Printf("fanout: direct send for %s: %v", f.OwningAccount, err)
		// still attempt the bundle path — belt and suspenders.
	}

	bundleResult, err := e.jito.SubmitBundle(ctx, []solana.Transaction{*tipTx, *swapTx})
	if err != nil {
		log.Printf("fanout: submit bundle for %s: %v", f.OwningAccount, err)
		return
	}

	ticket := bundle.Track(ctx, e.jito, e.gateway, bundle.Ticket{
		BundleID:      bundleResult.BundleID,
		SwapSignature: swapSig.String(),
	})

	e.recordOutcome(f, swap, ticket, swapResp)
}

func (e *FanOutEngine) recordOutcome(f Follower, swap ClassifiedSwap, ticket bundle.Ticket, swapResp *trading.SwapTransaction) {
	status := string(ticket.State)

	if ticket.State == bundle.Confirmed || ticket.State == bundle.Finalized {
		e.bus.Publish(OutboundEvent{EventType: "copy_trade", Data: swapResp})
	}

	if e.db == nil {
		return
	}
	tradeType := "buy"
	if swap.Side == SideSell {
		tradeType = "sell"
	}
	if err := e.db.SaveTrade(f.FollowerID, f.OwningAccount, ticket.SwapSignature, tradeType, swap.TokenMint, 0, 0, 0, 0, status); err != nil {
		log.Printf("fanout: audit save for %s: %v", f.OwningAccount, err)
	}
}
