package trading

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetBuyQuoteSendsNativeAsInputMint(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		json.NewEncoder(w).Encode(Quote{InputMint: SOL_MINT, OutputMint: "TokenMintXYZ", OutAmount: "42"})
	}))
	defer srv.Close()

	q := NewQuoteClient(srv.URL)
	quote, err := q.GetBuyQuote(context.Background(), "TokenMintXYZ", 1_000_000, 50)
	if err != nil {
		t.Fatalf("GetBuyQuote: %v", err)
	}
	if quote.OutAmount != "42" {
		t.Errorf("expected OutAmount 42, got %s", quote.OutAmount)
	}
	if !strings.Contains(gotURL, "inputMint="+SOL_MINT) {
		t.Errorf("expected request to use native mint as input, got %s", gotURL)
	}
	if !strings.Contains(gotURL, "outputMint=TokenMintXYZ") {
		t.Errorf("expected outputMint=TokenMintXYZ in request, got %s", gotURL)
	}
}

func TestGetSellQuoteSendsNativeAsOutputMint(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		json.NewEncoder(w).Encode(Quote{})
	}))
	defer srv.Close()

	q := NewQuoteClient(srv.URL)
	if _, err := q.GetSellQuote(context.Background(), "TokenMintXYZ", 500, 50); err != nil {
		t.Fatalf("GetSellQuote: %v", err)
	}
	if !strings.Contains(gotURL, "inputMint=TokenMintXYZ") {
		t.Errorf("expected inputMint=TokenMintXYZ, got %s", gotURL)
	}
	if !strings.Contains(gotURL, "outputMint="+SOL_MINT) {
		t.Errorf("expected native mint as output, got %s", gotURL)
	}
}

func TestGetQuotePropagatesNon200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	q := NewQuoteClient(srv.URL)
	_, err := q.GetBuyQuote(context.Background(), "TokenMintXYZ", 1000, 50)
	if err == nil {
		t.Fatal("expected error for non-200 quote response")
	}
}

func TestGetSwapTransactionSetsVeryHighPriorityLevel(t *testing.T) {
	var body SwapRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(SwapTransaction{SwapTransaction: "base64tx"})
	}))
	defer srv.Close()

	q := NewQuoteClient(srv.URL)
	quote := &Quote{InputMint: SOL_MINT, OutputMint: "TokenMintXYZ"}
	resp, err := q.GetSwapTransaction(context.Background(), quote, "UserPubkey111", 1_500_000)
	if err != nil {
		t.Fatalf("GetSwapTransaction: %v", err)
	}
	if resp.SwapTransaction != "base64tx" {
		t.Errorf("expected base64tx, got %s", resp.SwapTransaction)
	}
	if !body.WrapAndUnwrapSol {
		t.Error("expected WrapAndUnwrapSol true")
	}
	if !body.DynamicComputeUnitLimit {
		t.Error("expected DynamicComputeUnitLimit true")
	}
	fee, _ := body.PrioritizationFeeLamports.(map[string]interface{})
	level, _ := fee["priorityLevelWithMaxLamports"].(map[string]interface{})
	if level["priorityLevel"] != "veryHigh" {
		t.Errorf("expected priorityLevel veryHigh, got %v", level["priorityLevel"])
	}
}

func TestGetSwapTransactionPropagatesNon200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	q := NewQuoteClient(srv.URL)
	_, err := q.GetSwapTransaction(context.Background(), &Quote{}, "UserPubkey111", 0)
	if err == nil {
		t.Fatal("expected error for non-200 swap response")
	}
}
