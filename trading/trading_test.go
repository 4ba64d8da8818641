package trading

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

// TestJitoClient tests Jito integration
func TestJitoClient(t *testing.T) {
	jitoURL := "https://mainnet.block-engine.jito.wtf"
	tipAmount := uint64(10000)

	client := NewJitoClient(jitoURL, tipAmount)

	t.Run("GetTipAmount", func(t *testing.T) {
		tip := client.GetTipAmount()
		if tip != tipAmount {
			t.Errorf("Expected tip %d, got %d", tipAmount, tip)
		}
	})

	t.Run("SetTipAmount", func(t *testing.T) {
		newTip := uint64(20000)
		client.SetTipAmount(newTip)

		if client.GetTipAmount() != newTip {
			t.Error("Tip amount not updated correctly")
		}
	})

	t.Run("CreateTipInstruction", func(t *testing.T) {
		feePayer := solana.MustPublicKeyFromBase58("G4vTBDnAbBre4wqTpibXbLmwdVtFAbFCr2DM8t22UrmM")

		instruction, err := client.CreateTipInstruction(feePayer)
		if err != nil {
			t.Fatalf("Failed to create tip instruction: %v", err)
		}

		if instruction.ProgramID() != solana.SystemProgramID {
			t.Error("Tip instruction should use System Program")
		}

		if len(instruction.Accounts()) != 2 {
			t.Errorf("Expected 2 accounts, got %d", len(instruction.Accounts()))
		}
	})

	t.Run("CreateTipInstructionWithAmount uses System Program", func(t *testing.T) {
		feePayer := solana.MustPublicKeyFromBase58("G4vTBDnAbBre4wqTpibXbLmwdVtFAbFCr2DM8t22UrmM")

		instruction, err := client.CreateTipInstructionWithAmount(feePayer, 1500000)
		if err != nil {
			t.Fatalf("Failed to create tip instruction: %v", err)
		}
		if instruction.ProgramID() != solana.SystemProgramID {
			t.Error("Tip instruction should use System Program")
		}
	})
}

// TestFormatSOL tests SOL formatting
func TestFormatSOL(t *testing.T) {
	tests := []struct {
		lamports uint64
		expected float64
	}{
		{1000000000, 1.0},
		{500000000, 0.5},
		{0, 0.0},
		{123456789, 0.123456789},
	}

	for _, tt := range tests {
		result := FormatSOL(tt.lamports)
		if result != tt.expected {
			t.Errorf("FormatSOL(%d) = %f, expected %f", tt.lamports, result, tt.expected)
		}
	}
}
