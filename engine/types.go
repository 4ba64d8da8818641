package engine

import (
	"fmt"
	"time"
)

// Family is the DEX/protocol a classified swap belongs to.
type Family string

const (
	FamilyRaydium  Family = "raydium"
	FamilyJupiter  Family = "jupiter"
	FamilyPump     Family = "pump"
	FamilyTransfer Family = "transfer"
	FamilyUnknown  Family = "unknown"
)

// Side is the direction of a classified swap relative to the leader.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Follower mirrors a leader's swaps into its own wallet.
//
// (follower_id, leader) is the unique key; BuyAmountNative is denominated in
// lamports (the follower side only — the leader's observed amount is never
// used for sizing).
type Follower struct {
	FollowerID      int64
	OwningAccount   string
	WalletID        string // custody key reference (G's key_ref.private_key_id)
	Leader          string
	BuyAmountNative uint64
	Active          bool
}

func (f Follower) key() string {
	return followerKey(f.FollowerID, f.Leader)
}

func followerKey(followerID int64, leader string) string {
	return fmt.Sprintf("%s|%d", leader, followerID)
}

// ClassifiedSwap is the typed output of the Transaction Classifier (4.E).
type ClassifiedSwap struct {
	Leader    string
	Signature string
	Side      Side
	TokenMint string
	Family    Family
}

// FollowerJob is one fan-out unit: a follower mirroring one classified swap.
type FollowerJob struct {
	Follower Follower
	Swap     ClassifiedSwap
}

// OutboundEvent is what the Outbound Event Bus (4.H) fans out to subscribers.
type OutboundEvent struct {
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data"`
}

// AuditRecord is a local, best-effort record of one FollowerJob's outcome.
// It supplements spec.md's data model for operational visibility only — the
// core's correctness never depends on reading it back.
type AuditRecord struct {
	FollowerID int64
	Leader     string
	Signature  string
	Family     Family
	Side       Side
	BundleID   string
	State      string
	CreatedAt  time.Time
}
