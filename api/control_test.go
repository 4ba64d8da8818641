package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"solana-orchestrator/engine"
	"solana-orchestrator/trading"
)

func newTestServer() *ControlServer {
	subs := trading.NewSubscriptionManager("wss://example.invalid")
	gateway := trading.NewRPCGateway("https://example.invalid")
	quotes := trading.NewQuoteClient("https://example.invalid")
	jito := trading.NewJitoClient("https://example.invalid", 1000)
	bus := engine.NewEventBus()
	return NewControlServer(nil, subs, gateway, quotes, jito, bus)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("expected status ok in body, got %s", w.Body.String())
	}
}

func TestHandleManualSwapRejectsInvalidUserPublicKey(t *testing.T) {
	s := newTestServer()
	body := []byte(`{"user":{"public_key":"not-a-valid-pubkey"},"input_mint":"So11111111111111111111111111111111111111112","output_mint":"TokenMint","amount":1000}`)
	req := httptest.NewRequest(http.MethodPost, "/sol/swap", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid user.public_key, got %d", w.Code)
	}
}

func TestHandleManualSwapRejectsMalformedJSON(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/sol/swap", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	s.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", w.Code)
	}
}

func TestHandleManualSwapRejectsEmptyBody(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/sol/swap", strings.NewReader("{}"))
	w := httptest.NewRecorder()

	s.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty body (empty user.public_key), got %d", w.Code)
	}
}

func TestHandleRemoveFollowerRejectsNonNumericID(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodDelete, "/followers/not-a-number/leaderX", nil)
	w := httptest.NewRecorder()

	s.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric follower_id, got %d", w.Code)
	}
}

func TestHandleUpsertFollowerRejectsMalformedJSON(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/followers", strings.NewReader("not json"))
	w := httptest.NewRecorder()

	s.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", w.Code)
	}
}

func TestHandleWalletBalanceRejectsInvalidAddress(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/get_wallet_sol_balance/not-an-address", nil)
	w := httptest.NewRecorder()

	s.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid address, got %d", w.Code)
	}
}
