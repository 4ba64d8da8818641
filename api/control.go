package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"solana-orchestrator/custody"
	"solana-orchestrator/engine"
	"solana-orchestrator/trading"
)

// ControlServer is Component I: the HTTP surface spec.md §4.I/§6 describes,
// extended with the follower-management and event-stream endpoints
// SPEC_FULL.md adds now that the Telegram bot no longer reaches into
// engine/storage directly. Grounded on the teacher's JSON-response shaping
// in its bot handlers and trading/websocket.go's connection-upgrade idiom.
type ControlServer struct {
	registry *engine.FollowerRegistry
	subs     *trading.SubscriptionManager
	gateway  *trading.RPCGateway
	quotes   *trading.QuoteClient
	jito     *trading.JitoClient
	bus      *engine.EventBus

	upgrader websocket.Upgrader
	creds    *credentialCache
}

func NewControlServer(
	registry *engine.FollowerRegistry,
	subs *trading.SubscriptionManager,
	gateway *trading.RPCGateway,
	quotes *trading.QuoteClient,
	jito *trading.JitoClient,
	bus *engine.EventBus,
) *ControlServer {
	return &ControlServer{
		registry: registry,
		subs:     subs,
		gateway:  gateway,
		quotes:   quotes,
		jito:     jito,
		bus:      bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		creds: newCredentialCache(),
	}
}

func (s *ControlServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /resubscribe", s.handleResubscribe)
	mux.HandleFunc("GET /get_wallet_sol_balance/{address}", s.handleWalletBalance)
	mux.HandleFunc("POST /sol/swap", s.handleManualSwap)
	mux.HandleFunc("POST /followers", s.handleUpsertFollower)
	mux.HandleFunc("DELETE /followers/{follower_id}/{leader}", s.handleRemoveFollower)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// GET /resubscribe — idempotent trigger for (C).resubscribe() with retry.
// Response shape is spec.md §6's plain text, not JSON.
func (s *ControlServer) handleResubscribe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := s.subs.Resubscribe(ctx, s.registry.AllLeaders); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Resubscribe failed after 3 attempts: %v", err)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Resubscribed")
}

// GET /get_wallet_sol_balance/{address} — proxy to (B). Response shape is
// spec.md §6's {"balance": float}.
func (s *ControlServer) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid address: %w", err))
		return
	}

	balance, err := s.gateway.GetBalance(r.Context(), pubkey)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": trading.FormatSOL(balance)})
}

// manualSwapUser is spec.md §6's POST /sol/swap "user" object: a
// self-contained custody credential carried on every call rather than a
// reference to a process-wide signer, since a manual swap may be issued on
// behalf of any follower's own custody organization.
type manualSwapUser struct {
	APIPublicKey   string `json:"api_public_key"`
	APIPrivateKey  string `json:"api_private_key"`
	OrganizationID string `json:"organization_id"`
	PublicKey      string `json:"public_key"`
}

// manualSwapRequest mirrors spec.md §6's POST /sol/swap body exactly,
// including its "priorization_fee_lamports" field name.
type manualSwapRequest struct {
	User                    manualSwapUser `json:"user"`
	PriorizationFeeLamports int64          `json:"priorization_fee_lamports"`
	InputMint               string         `json:"input_mint"`
	OutputMint              string         `json:"output_mint"`
	Amount                  uint64         `json:"amount"`
	Slippage                int            `json:"slippage"`
}

// POST /sol/swap — synchronous manual swap on behalf of a specified user;
// bypasses (F)'s fan-out but reuses (G) to sign the swap, which is then sent
// directly through the RPC gateway; no tip transaction or bundle is submitted.
// Response shape is spec.md §6's {"transaction": signature}.
func (s *ControlServer) handleManualSwap(w http.ResponseWriter, r *http.Request) {
	var req manualSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	followerPubkey, err := solana.PublicKeyFromBase58(req.User.PublicKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid user.public_key: %w", err))
		return
	}

	cacheKey, passphrase, err := s.stageCredential(req.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	quote, err := s.quotes.GetBuyQuote(ctx, req.OutputMint, req.Amount, req.Slippage)
	if req.InputMint != trading.SOL_MINT {
		quote, err = s.quotes.GetSellQuote(ctx, req.InputMint, req.Amount, req.Slippage)
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	swapResp, err := s.quotes.GetSwapTransaction(ctx, quote, req.User.PublicKey, req.PriorizationFeeLamports)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	swapTx, err := solana.TransactionFromBase64(swapResp.SwapTransaction)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	signer, err := s.unstageCredential(cacheKey, passphrase, req.User)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := signer.SignTransaction(ctx, swapTx, req.User.APIPublicKey, followerPubkey); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	sig, err := s.gateway.SendTransaction(ctx, swapTx)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"transaction": sig.String()})
}

// stageCredential encrypts the request's custody private key under a
// one-time, server-generated passphrase into the credential cache, so the
// plaintext key doesn't sit in a long-lived field for the duration of the
// outbound quote/swap HTTP round trips that follow before it's actually
// needed for signing.
func (s *ControlServer) stageCredential(user manualSwapUser) (cacheKey, passphrase string, err error) {
	passphrase, err = randomPassphrase()
	if err != nil {
		return "", "", fmt.Errorf("stage credential: %w", err)
	}
	cacheKey = user.OrganizationID + ":" + user.APIPublicKey
	if err := s.creds.Put(cacheKey, user.APIPrivateKey, passphrase); err != nil {
		return "", "", fmt.Errorf("cache credential: %w", err)
	}
	return cacheKey, passphrase, nil
}

// unstageCredential decrypts the credential staged by stageCredential and
// builds the one-shot custody.Client that signs this request's transaction.
func (s *ControlServer) unstageCredential(cacheKey, passphrase string, user manualSwapUser) (*custody.Client, error) {
	privKeyHex, err := s.creds.Take(cacheKey, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt staged credential: %w", err)
	}
	return custody.NewClient(user.APIPublicKey, privKeyHex, user.OrganizationID)
}

type followerRequest struct {
	FollowerID      int64  `json:"follower_id"`
	OwningAccount   string `json:"owning_account"`
	WalletID        string `json:"wallet_id"`
	Leader          string `json:"leader"`
	BuyAmountNative uint64 `json:"buy_amount_native"`
	Active          bool   `json:"active"`
}

// POST /followers — upserts a follower relationship (thin wrapper over
// (A).upsert).
func (s *ControlServer) handleUpsertFollower(w http.ResponseWriter, r *http.Request) {
	var req followerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	f := engine.Follower{
		FollowerID:      req.FollowerID,
		OwningAccount:   req.OwningAccount,
		WalletID:        req.WalletID,
		Leader:          req.Leader,
		BuyAmountNative: req.BuyAmountNative,
		Active:          req.Active,
	}
	if err := s.registry.Upsert(r.Context(), f); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DELETE /followers/{follower_id}/{leader} — thin wrapper over (A).remove.
func (s *ControlServer) handleRemoveFollower(w http.ResponseWriter, r *http.Request) {
	followerIDStr := r.PathValue("follower_id")
	leader := r.PathValue("leader")

	var followerID int64
	if _, err := fmt.Sscanf(followerIDStr, "%d", &followerID); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid follower_id: %w", err))
		return
	}

	if err := s.registry.Remove(r.Context(), followerID, leader); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// GET /events — upgrades to a WebSocket and streams (H)'s bus to this
// client until it disconnects.
func (s *ControlServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch, subID := s.bus.Subscribe()
	defer s.bus.Unsubscribe(subID)

	for event := range ch {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}

// GET /health — process + host resource snapshot via gopsutil, the one
// SPEC_FULL.md home found for the teacher's unused gopsutil dependency.
func (s *ControlServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPercent, _ := cpu.Percent(0, false)
	vmem, _ := mem.VirtualMemory()

	health := map[string]interface{}{
		"status":           "ok",
		"subscription_up":  s.subs.IsConnected(),
	}
	if len(cpuPercent) > 0 {
		health["cpu_percent"] = cpuPercent[0]
	}
	if vmem != nil {
		health["mem_used_percent"] = vmem.UsedPercent
	}
	writeJSON(w, http.StatusOK, health)
}
