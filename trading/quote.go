package trading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// SOL_MINT is the chain's wrapped-native mint (spec.md's NativeMint).
const SOL_MINT = "So11111111111111111111111111111111111111112"

// QuoteClient is Component's external "quote service" collaborator
// (spec.md §6), a Jupiter-shaped HTTP API whose base URL is the METIS_HTTP
// environment input. Grounded on the teacher's trading/jupiter.go, made
// configurable instead of hardcoded to the public Jupiter endpoints.
type QuoteClient struct {
	baseURL string
}

func NewQuoteClient(baseURL string) *QuoteClient {
	return &QuoteClient{baseURL: baseURL}
}

// Quote mirrors the quote service's GET /quote response.
type Quote struct {
	InputMint            string                   `json:"inputMint"`
	InAmount             string                   `json:"inAmount"`
	OutputMint           string                   `json:"outputMint"`
	OutAmount            string                   `json:"outAmount"`
	OtherAmountThreshold string                   `json:"otherAmountThreshold"`
	SwapMode             string                   `json:"swapMode"`
	SlippageBps          int                      `json:"slippageBps"`
	PriceImpactPct       string                   `json:"priceImpactPct"`
	RoutePlan            []map[string]interface{} `json:"routePlan"`
}

// PrioritizationFee mirrors the swap request's fee object shape.
type PrioritizationFee struct {
	PriorityLevelWithMaxLamports *PriorityLevel `json:"priorityLevelWithMaxLamports,omitempty"`
}

type PriorityLevel struct {
	MaxLamports   int64  `json:"maxLamports"`
	PriorityLevel string `json:"priorityLevel"`
}

// SwapRequest mirrors spec.md §6's POST /swap body.
type SwapRequest struct {
	QuoteResponse             Quote       `json:"quoteResponse"`
	UserPublicKey             string      `json:"userPublicKey"`
	WrapAndUnwrapSol          bool        `json:"wrapAndUnwrapSol"`
	PrioritizationFeeLamports interface{} `json:"prioritizationFeeLamports"`
	DynamicComputeUnitLimit   bool        `json:"dynamicComputeUnitLimit"`
}

// SwapTransaction mirrors spec.md §6's POST /swap response: a base64
// serialized transaction whose signature slot is empty.
type SwapTransaction struct {
	SwapTransaction           string `json:"swapTransaction"`
	LastValidBlockHeight      int64  `json:"lastValidBlockHeight"`
	PrioritizationFeeLamports int64  `json:"prioritizationFeeLamports"`
}

// GetBuyQuote requests (native -> token_mint, amount) per spec.md §4.F's
// buy-side quote.
func (q *QuoteClient) GetBuyQuote(ctx context.Context, tokenMint string, nativeAmount uint64, slippageBps int) (*Quote, error) {
	return q.getQuote(ctx, SOL_MINT, tokenMint, nativeAmount, slippageBps)
}

// GetSellQuote requests (token_mint -> native, amount) per spec.md §4.F's
// sell-side quote.
func (q *QuoteClient) GetSellQuote(ctx context.Context, tokenMint string, tokenAmount uint64, slippageBps int) (*Quote, error) {
	return q.getQuote(ctx, tokenMint, SOL_MINT, tokenAmount, slippageBps)
}

func (q *QuoteClient) getQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error) {
	url := fmt.Sprintf("%s/quote?inputMint=%s&outputMint=%s&amount=%d&slippageBps=%d",
		q.baseURL, inputMint, outputMint, amount, slippageBps)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := SharedClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("quote service error %d: %s", resp.StatusCode, string(body))
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("failed to parse quote: %w", err)
	}
	return &quote, nil
}

// GetSwapTransaction requests an unsigned swap transaction from the quote
// service (spec.md §6's POST /swap).
func (q *QuoteClient) GetSwapTransaction(ctx context.Context, quote *Quote, userPublicKey string, priorityFeeLamports int64) (*SwapTransaction, error) {
	reqBody := SwapRequest{
		QuoteResponse:    *quote,
		UserPublicKey:    userPublicKey,
		WrapAndUnwrapSol: true,
		PrioritizationFeeLamports: PrioritizationFee{
			PriorityLevelWithMaxLamports: &PriorityLevel{
				MaxLamports:   priorityFeeLamports,
				PriorityLevel: "veryHigh",
			},
		},
		DynamicComputeUnitLimit: true,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", q.baseURL+"/swap", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := SharedClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get swap transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("quote service swap error %d: %s", resp.StatusCode, string(body))
	}

	var swapResp SwapTransaction
	if err := json.NewDecoder(resp.Body).Decode(&swapResp); err != nil {
		return nil, fmt.Errorf("failed to parse swap response: %w", err)
	}
	return &swapResp, nil
}
