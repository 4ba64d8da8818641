package trading

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/tidwall/gjson"
)

// JitoClient handles priority-bundle submissions to the Jito block engine
// (spec.md §6's "priority-bundle endpoint").
type JitoClient struct {
	blockEngineURL string
	httpClient     *http.Client
	tipLamports    uint64
}

func NewJitoClient(blockEngineURL string, tipLamports uint64) *JitoClient {
	return &JitoClient{
		blockEngineURL: blockEngineURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		tipLamports:    tipLamports,
	}
}

// Bundle represents a Jito transaction bundle.
type Bundle struct {
	Transactions []string `json:"transactions"`
}

// BundleResult represents the result of a bundle submission.
type BundleResult struct {
	BundleID  string
	Signature string
	Status    string
}

// SubmitBundle submits an ordered pair of serialized transactions
// (spec.md §4.F: "[tip_signed, swap_signed]") to the block engine.
func (jc *JitoClient) SubmitBundle(ctx context.Context, transactions []solana.Transaction) (*BundleResult, error) {
	txStrings := make([]string, len(transactions))
	for i, tx := range transactions {
		txBytes, err := tx.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal transaction %d: %w", i, err)
		}
		txStrings[i] = base58.Encode(txBytes)
	}

	result, err := jc.call(ctx, "sendBundle", []interface{}{txStrings})
	if err != nil {
		return nil, err
	}

	bundleID := gjson.GetBytes(result, "result").String()
	return &BundleResult{BundleID: bundleID, Status: "submitted"}, nil
}

// GetBundleStatus polls getBundleStatuses for a terminal/finalized verdict.
// errOK reports whether the transaction's err field was null (spec.md §4.F:
// "polled: Finalized, err == Ok").
func (jc *JitoClient) GetBundleStatus(ctx context.Context, bundleID string) (status string, errOK bool, err error) {
	result, err := jc.call(ctx, "getBundleStatuses", []interface{}{[]string{bundleID}})
	if err != nil {
		return "", false, err
	}
	value := gjson.GetBytes(result, "result.value.0")
	if !value.Exists() {
		return "", false, fmt.Errorf("bundle status: no entry for %s", bundleID)
	}
	status = value.Get("confirmation_status").String()
	errOK = !value.Get("err").Exists() || value.Get("err.Ok").Exists() || value.Get("err").String() == ""
	return status, errOK, nil
}

// GetInFlightBundleStatus polls getInFlightBundleStatuses (spec.md §6).
func (jc *JitoClient) GetInFlightBundleStatus(ctx context.Context, bundleID string) (string, error) {
	result, err := jc.call(ctx, "getInFlightBundleStatuses", []interface{}{[]string{bundleID}})
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(result, "result.value.0.status").String(), nil
}

func (jc *JitoClient) call(ctx context.Context, method string, params []interface{}) ([]byte, error) {
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", jc.blockEngineURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := jc.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s failed with status %d: %s", method, resp.StatusCode, string(body))
	}
	return body, nil
}

// tipAccounts are Jito's documented tip-receiving accounts; one is chosen at
// random per spec.md §4.F ("a randomly-chosen priority-tip account").
var tipAccounts = []string{
	"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
	"HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe",
	"Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY",
	"ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49",
	"DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh",
	"ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt",
	"DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL",
	"3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT",
}

// CreateTipInstruction builds the priority-tip transfer using the client's
// configured default tip (spec.md §4.F step: native transfer from the
// follower's account to a randomly-chosen tip account).
func (jc *JitoClient) CreateTipInstruction(feePayer solana.PublicKey) (solana.Instruction, error) {
	return jc.CreateTipInstructionWithAmount(feePayer, jc.tipLamports)
}

// CreateTipInstructionWithAmount builds the priority-tip transfer with an
// explicit lamport amount, used by the fan-out engine (F) so per-side tip
// configuration (buy vs. sell) never mutates shared client state across
// concurrently-processed signatures.
func (jc *JitoClient) CreateTipInstructionWithAmount(feePayer solana.PublicKey, lamports uint64) (solana.Instruction, error) {
	tipAccount, err := randomTipAccount()
	if err != nil {
		return nil, fmt.Errorf("select tip account: %w", err)
	}

	instruction := solana.NewInstruction(
		solana.SystemProgramID,
		solana.AccountMetaSlice{
			solana.Meta(feePayer).WRITE().SIGNER(),
			solana.Meta(tipAccount).WRITE(),
		},
		// System program Transfer (instruction index 2) + little-endian lamports.
		append([]byte{2, 0, 0, 0}, uint64ToBytes(lamports)...),
	)

	return instruction, nil
}

func randomTipAccount() (solana.PublicKey, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tipAccounts))))
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.MustPublicKeyFromBase58(tipAccounts[n.Int64()]), nil
}

func uint64ToBytes(num uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(num >> (8 * i))
	}
	return b
}

func (jc *JitoClient) GetTipAmount() uint64 { return jc.tipLamports }

func (jc *JitoClient) SetTipAmount(lamports uint64) { jc.tipLamports = lamports }
