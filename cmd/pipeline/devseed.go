package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"solana-orchestrator/crypto"
	"solana-orchestrator/engine"
)

// runDevSeed manufactures N throwaway follower wallets for local testing and
// registers them against a leader in the follower registry. It never touches
// a production signing path — custody.Client is the only thing that ever
// signs a real transaction — this is purely bip39/ed25519 keypair generation
// for exercising the fan-out path end-to-end without a real custody org.
//
// Invoked as: cmd/pipeline -devseed -leader <pubkey> -count 5
func runDevSeed(registry *engine.FollowerRegistry, leader string, count int) error {
	ctx := context.Background()

	for i := 0; i < count; i++ {
		wallet, err := crypto.GenerateWallet()
		if err != nil {
			return fmt.Errorf("generate dev wallet %d: %w", i, err)
		}

		f := engine.Follower{
			FollowerID:      int64(1000 + i),
			OwningAccount:   wallet.PublicKey,
			WalletID:        fmt.Sprintf("devseed-%d", i),
			Leader:          leader,
			BuyAmountNative: 10_000_000, // 0.01 SOL
			Active:          true,
		}
		if err := registry.Upsert(ctx, f); err != nil {
			return fmt.Errorf("upsert dev follower %d: %w", i, err)
		}
		log.Printf("devseed: follower %d -> %s (mnemonic: %s)", f.FollowerID, wallet.PublicKey, wallet.Mnemonic)
	}
	return nil
}

var (
	devSeedFlag       = flag.Bool("devseed", false, "seed N throwaway dev follower wallets and exit")
	devSeedLeaderFlag = flag.String("leader", "", "leader account to register dev followers against")
	devSeedCountFlag  = flag.Int("count", 3, "number of dev follower wallets to generate")
)

// maybeRunDevSeed is called from main after flags are parsed but before the
// pipeline starts serving, so -devseed stays a flag on the same binary
// rather than a separate tool.
func maybeRunDevSeed(registry *engine.FollowerRegistry) bool {
	if !*devSeedFlag {
		return false
	}
	if *devSeedLeaderFlag == "" {
		log.Fatal("devseed: -leader is required")
	}
	if err := runDevSeed(registry, *devSeedLeaderFlag, *devSeedCountFlag); err != nil {
		log.Fatalf("devseed: %v", err)
	}
	return true
}
