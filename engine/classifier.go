package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mr-tron/base58"

	"solana-orchestrator/trading"
)

// Program ids used for family detection (spec.md §4.E step 5). These are the
// authoritative constants — the Jupiter id corrects a stale value the
// teacher's draft classifier (formerly engine/parser.go) carried.
const (
	RaydiumProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	JupiterProgramID = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	PumpProgramID    = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	NativeMint       = "So11111111111111111111111111111111111111112"
)

// ErrClassifierGap is the typed failure for step 2-8 problems spec.md §7
// classifies as "classification gap": drop with an info log, no retry.
var ErrClassifierGap = errors.New("classifier: gap")

// ErrTransactionNotYetAvailable is returned when the node doesn't have the
// signature yet; spec.md §7 item 3 retries this up to 3x at 1s intervals.
var ErrTransactionNotYetAvailable = errors.New("classifier: transaction not yet available")

// Classifier implements 4.E: given a signature, fetches the transaction via
// the RPC Gateway (B) and decides swap family + side + token mint.
type Classifier struct {
	gateway *trading.RPCGateway
}

func NewClassifier(gateway *trading.RPCGateway) *Classifier {
	return &Classifier{gateway: gateway}
}

// Classify runs steps 1-9 of spec.md §4.E for one signature, retrying step 2
// up to 3 times at 1s intervals when the node doesn't have the transaction
// yet (the original's classification-path retry policy).
func (c *Classifier) Classify(ctx context.Context, signature string) (ClassifiedSwap, error) {
	if _, err := base58.Decode(signature); err != nil {
		return ClassifiedSwap{}, fmt.Errorf("%w: invalid signature encoding: %v", ErrClassifierGap, err)
	}

	var tx *trading.FetchedTransaction
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		tx, err = c.gateway.GetTransaction(ctx, signature)
		if err == nil {
			break
		}
		if !errors.Is(err, trading.ErrTransactionNotFound) {
			return ClassifiedSwap{}, fmt.Errorf("%w: %v", ErrClassifierGap, err)
		}
		select {
		case <-ctx.Done():
			return ClassifiedSwap{}, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	if err != nil {
		return ClassifiedSwap{}, ErrTransactionNotYetAvailable
	}

	if tx.Meta == nil {
		return ClassifiedSwap{}, fmt.Errorf("%w: no meta, not yet finalized enough", ErrClassifierGap)
	}

	accountInvolved := tx.FeePayer

	isRaydium := len(tx.LogMessages) > 9 && containsProgramID(tx.LogMessages, RaydiumProgramID)
	isJupiter := len(tx.LogMessages) > 9 && containsProgramID(tx.LogMessages, JupiterProgramID)
	isPump := containsProgramID(tx.LogMessages, PumpProgramID)

	family := selectFamily(isRaydium, isJupiter, isPump)
	if family == FamilyTransfer || family == FamilyUnknown {
		return ClassifiedSwap{}, fmt.Errorf("%w: family %s produces no copy trade", ErrClassifierGap, family)
	}

	if len(tx.PreBalances) == 0 || len(tx.PostBalances) == 0 {
		return ClassifiedSwap{}, fmt.Errorf("%w: missing native balances", ErrClassifierGap)
	}
	side := SideSell
	if tx.PreBalances[0] > tx.PostBalances[0] {
		side = SideBuy
	}

	mint := extractTokenMint(family, accountInvolved, tx)

	return ClassifiedSwap{
		Leader:    accountInvolved,
		Signature: signature,
		Side:      side,
		TokenMint: mint,
		Family:    family,
	}, nil
}

func containsProgramID(logs []string, programID string) bool {
	for _, line := range logs {
		if strings.Contains(line, programID) {
			return true
		}
	}
	return false
}

// selectFamily implements the family-selection table in spec.md §4.E step 6
// as a direct key lookup rather than an if/else chain, following the tuple
// match in original_source/solana_app/src/lib.rs's determine_transaction_type.
func selectFamily(raydium, jupiter, pump bool) Family {
	table := map[[3]bool]Family{
		{false, false, false}: FamilyTransfer,
		{true, false, false}:  FamilyRaydium,
		{false, true, false}:  FamilyJupiter,
		{false, false, true}:  FamilyPump,
		{true, true, false}:   FamilyJupiter, // Jupiter dominates a Raydium leg
	}
	if f, ok := table[[3]bool{raydium, jupiter, pump}]; ok {
		return f
	}
	return FamilyUnknown
}

// extractTokenMint implements step 8's per-family extraction rules. Any
// failure to find a mint yields the empty string; callers must skip rather
// than throw (spec.md §8 boundary behavior).
func extractTokenMint(family Family, accountInvolved string, tx *trading.FetchedTransaction) string {
	switch family {
	case FamilyRaydium:
		for _, tb := range tx.PostTokenBalances {
			if tb.Mint != NativeMint {
				return tb.Mint
			}
		}
		return ""
	case FamilyJupiter:
		for _, tb := range tx.PreTokenBalances {
			if tb.Owner == accountInvolved && tb.Mint != NativeMint {
				return tb.Mint
			}
		}
		for _, tb := range tx.PreTokenBalances {
			if tb.Mint != NativeMint {
				return tb.Mint
			}
		}
		return ""
	case FamilyPump:
		for _, tb := range tx.PreTokenBalances {
			if tb.Owner == accountInvolved {
				return tb.Mint
			}
		}
		for _, tb := range tx.PostTokenBalances {
			if tb.Owner == accountInvolved {
				return tb.Mint
			}
		}
		return ""
	default:
		return ""
	}
}
