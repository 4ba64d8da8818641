// Package bundle implements the BundleTicket tracking state machine from
// spec.md §4.F, split out of engine for independent testability. Grounded on
// original_source/solana_app/src/handlers/swap.rs's sign_and_send_swap_transaction
// polling loop, which races a direct-RPC-confirmation probe against Jito
// bundle-status polling and accepts whichever confirms first.
package bundle

import (
	"context"
	"time"
)

// State is one of BundleTicket's lifecycle states (spec.md §3).
type State string

const (
	Pending   State = "pending"
	Landed    State = "landed"
	Confirmed State = "confirmed"
	Finalized State = "finalized"
	Failed    State = "failed"
)

func (s State) Terminal() bool {
	return s == Confirmed || s == Finalized || s == Failed
}

// Ticket tracks one submitted bundle's confirmation.
type Ticket struct {
	BundleID      string
	SwapSignature string
	State         State
}

// StatusFetcher is satisfied by trading.JitoClient; kept as an interface so
// the tracker is testable without a live block engine.
type StatusFetcher interface {
	GetBundleStatus(ctx context.Context, bundleID string) (status string, errOK bool, err error)
	GetInFlightBundleStatus(ctx context.Context, bundleID string) (status string, err error)
}

// ChainConfirmer is satisfied by trading.RPCGateway.
type ChainConfirmer interface {
	ConfirmSignature(ctx context.Context, signature string) (bool, error)
}

const (
	pollAttempts = 10
	pollInterval = 2 * time.Second
)

// Track polls up to 10 times at a 2s interval, per spec.md's state diagram,
// probing both the bundle status and direct chain confirmation on every
// tick; the first to confirm wins (spec.md §9's belt-and-suspenders note:
// either path succeeding is sufficient).
func Track(ctx context.Context, sf StatusFetcher, cc ChainConfirmer, t Ticket) Ticket {
	t.State = Pending

	for attempt := 0; attempt < pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			t.State = Failed
			return t
		case <-time.After(pollInterval):
		}

		if confirmed, err := cc.ConfirmSignature(ctx, t.SwapSignature); err == nil && confirmed {
			t.State = Confirmed
			return t
		}

		inflight, err := sf.GetInFlightBundleStatus(ctx, t.BundleID)
		if err == nil && inflight == "Landed" && t.State == Pending {
			t.State = Landed
		}

		status, errOK, err := sf.GetBundleStatus(ctx, t.BundleID)
		if err != nil {
			continue
		}
		switch status {
		case "Landed":
			if t.State == Pending {
				t.State = Landed
			}
		case "Finalized":
			if errOK {
				t.State = Finalized
			} else {
				t.State = Failed
			}
			return t
		}
	}

	if !t.State.Terminal() {
		t.State = Failed
	}
	return t
}
