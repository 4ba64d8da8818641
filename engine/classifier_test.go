package engine

import (
	"testing"

	"solana-orchestrator/trading"
)

func TestSelectFamily(t *testing.T) {
	tests := []struct {
		name                   string
		raydium, jupiter, pump bool
		want                   Family
	}{
		{"none", false, false, false, FamilyTransfer},
		{"raydium only", true, false, false, FamilyRaydium},
		{"jupiter only", false, true, false, FamilyJupiter},
		{"pump only", false, false, true, FamilyPump},
		{"raydium+jupiter: jupiter wins", true, true, false, FamilyJupiter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectFamily(tt.raydium, tt.jupiter, tt.pump)
			if got != tt.want {
				t.Errorf("selectFamily(%v,%v,%v) = %s, want %s", tt.raydium, tt.jupiter, tt.pump, got, tt.want)
			}
		})
	}
}

func TestSelectFamilyAllThreeIsUnknown(t *testing.T) {
	got := selectFamily(true, true, true)
	if got != FamilyUnknown {
		t.Errorf("expected FamilyUnknown for raydium+jupiter+pump, got %s", got)
	}
}

func TestContainsProgramID(t *testing.T) {
	logs := []string{
		"Program 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8 invoke [1]",
		"Program log: swap",
	}
	if !containsProgramID(logs, RaydiumProgramID) {
		t.Error("expected RaydiumProgramID to be found")
	}
	if containsProgramID(logs, JupiterProgramID) {
		t.Error("did not expect JupiterProgramID to be found")
	}
}

func TestExtractTokenMintRaydiumSkipsNativeMint(t *testing.T) {
	tx := &trading.FetchedTransaction{
		PostTokenBalances: []trading.TokenBalanceEntry{
			{Mint: NativeMint},
			{Mint: "TokenMintXYZ"},
		},
	}
	got := extractTokenMint(FamilyRaydium, "leader1", tx)
	if got != "TokenMintXYZ" {
		t.Errorf("expected TokenMintXYZ, got %s", got)
	}
}

func TestExtractTokenMintJupiterPrefersOwnerMatch(t *testing.T) {
	tx := &trading.FetchedTransaction{
		PreTokenBalances: []trading.TokenBalanceEntry{
			{Mint: "OtherMint", Owner: "someone-else"},
			{Mint: "LeaderMint", Owner: "leader1"},
		},
	}
	got := extractTokenMint(FamilyJupiter, "leader1", tx)
	if got != "LeaderMint" {
		t.Errorf("expected LeaderMint, got %s", got)
	}
}

func TestExtractTokenMintJupiterFallsBackWithoutOwnerMatch(t *testing.T) {
	tx := &trading.FetchedTransaction{
		PreTokenBalances: []trading.TokenBalanceEntry{
			{Mint: NativeMint, Owner: "leader1"},
			{Mint: "FallbackMint", Owner: "someone-else"},
		},
	}
	got := extractTokenMint(FamilyJupiter, "leader1", tx)
	if got != "FallbackMint" {
		t.Errorf("expected FallbackMint, got %s", got)
	}
}

func TestExtractTokenMintPumpPrefersPreBalanceOwnerMatch(t *testing.T) {
	tx := &trading.FetchedTransaction{
		PreTokenBalances: []trading.TokenBalanceEntry{
			{Mint: "PreMint", Owner: "leader1"},
		},
		PostTokenBalances: []trading.TokenBalanceEntry{
			{Mint: "PostMint", Owner: "leader1"},
		},
	}
	got := extractTokenMint(FamilyPump, "leader1", tx)
	if got != "PreMint" {
		t.Errorf("expected PreMint, got %s", got)
	}
}

func TestExtractTokenMintUnknownFamilyReturnsEmpty(t *testing.T) {
	got := extractTokenMint(FamilyUnknown, "leader1", &trading.FetchedTransaction{})
	if got != "" {
		t.Errorf("expected empty mint for unknown family, got %s", got)
	}
}
