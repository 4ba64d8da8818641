package engine

import "testing"

func TestCopyTradeWalletKey(t *testing.T) {
	got := copyTradeWalletKey(42, "leaderABC")
	want := "user:42:copy_trade_wallet:leaderABC"
	if got != want {
		t.Errorf("copyTradeWalletKey() = %s, want %s", got, want)
	}
}

func TestFollowerFromHash(t *testing.T) {
	fields := map[string]string{
		"user_id":         "7",
		"account_address": "FollowerAcct111",
		"wallet_id":       "wallet-key-ref-1",
		"buy_amount":      "50000000",
		"status":          "active",
	}
	f, err := followerFromHash("user:7:copy_trade_wallet:leaderX", "leaderX", fields)
	if err != nil {
		t.Fatalf("followerFromHash: %v", err)
	}
	if f.FollowerID != 7 {
		t.Errorf("expected FollowerID 7, got %d", f.FollowerID)
	}
	if f.OwningAccount != "FollowerAcct111" {
		t.Errorf("unexpected OwningAccount %s", f.OwningAccount)
	}
	if f.WalletID != "wallet-key-ref-1" {
		t.Errorf("unexpected WalletID %s", f.WalletID)
	}
	if f.BuyAmountNative != 50000000 {
		t.Errorf("unexpected BuyAmountNative %d", f.BuyAmountNative)
	}
	if !f.Active {
		t.Error("expected Active true for status=active")
	}
	if f.Leader != "leaderX" {
		t.Errorf("unexpected Leader %s", f.Leader)
	}
}

func TestFollowerFromHashInactiveStatus(t *testing.T) {
	fields := map[string]string{
		"user_id": "1",
		"status":  "inactive",
	}
	f, err := followerFromHash("k", "leaderX", fields)
	if err != nil {
		t.Fatalf("followerFromHash: %v", err)
	}
	if f.Active {
		t.Error("expected Active false for status=inactive")
	}
}

func TestFollowerFromHashInvalidUserID(t *testing.T) {
	fields := map[string]string{"user_id": "not-a-number"}
	if _, err := followerFromHash("k", "leaderX", fields); err == nil {
		t.Error("expected error for non-numeric user_id")
	}
}

func TestLeaderFromKey(t *testing.T) {
	got := leaderFromKey("user:7:copy_trade_wallet:leaderXYZ")
	if got != "leaderXYZ" {
		t.Errorf("leaderFromKey() = %s, want leaderXYZ", got)
	}
}

func TestLeaderFromKeyMalformed(t *testing.T) {
	if got := leaderFromKey("not-a-valid-key"); got != "" {
		t.Errorf("expected empty string for malformed key, got %s", got)
	}
}

func TestIndexOfSuffix(t *testing.T) {
	key := "user:7:copy_trade_wallet:leaderXYZ"
	idx := indexOfSuffix(key)
	if idx < 0 {
		t.Fatal("expected suffix to be found")
	}
	if key[idx:idx+len(followerKeySuffix)] != followerKeySuffix {
		t.Errorf("index %d does not point at suffix", idx)
	}
}

func TestIndexOfSuffixNotFound(t *testing.T) {
	if idx := indexOfSuffix("no-suffix-here"); idx != -1 {
		t.Errorf("expected -1, got %d", idx)
	}
}
