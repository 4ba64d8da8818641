// Package custody implements the remote signer client spec.md §4.G
// describes: a P-256 stamped-request protocol against a custody service
// that never hands this process a private key. Grounded on
// original_source/solana_app/src/turnkey/client.rs — no Go teacher
// equivalent exists, so this is new code built in the teacher's idiom
// (small struct, context-aware methods, fmt.Errorf wrapping).
package custody

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/tidwall/gjson"
)

const defaultBaseURL = "https://api.turnkey.com"

// Client is the custody signer collaborator: it stamps requests with a
// P-256 API keypair and asks the remote service to sign raw payloads on
// behalf of a key it holds, never the payload's originator.
type Client struct {
	apiPublicKey   string
	apiPrivateKey  *ecdsa.PrivateKey
	organizationID string
	baseURL        string
	httpClient     *http.Client
}

// NewClient builds a Client from a hex-encoded P-256 scalar
// (apiPrivateKeyHex), matching the original's TURNKEY_API_PRIVATE_KEY
// shape.
func NewClient(apiPublicKey, apiPrivateKeyHex, organizationID string) (*Client, error) {
	keyBytes, err := hex.DecodeString(apiPrivateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("custody: decode api private key: %w", err)
	}

	curve := elliptic.P256()
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = curve
	priv.D = new(big.Int).SetBytes(keyBytes)
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(keyBytes)

	return &Client{
		apiPublicKey:   apiPublicKey,
		apiPrivateKey:  priv,
		organizationID: organizationID,
		baseURL:        defaultBaseURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SetBaseURL overrides the custody endpoint, used by tests against an
// httptest.Server.
func (c *Client) SetBaseURL(url string) { c.baseURL = url }

// apiStamp mirrors the original's ApiStamp struct shape.
type apiStamp struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
	Scheme    string `json:"scheme"`
}

// stamp signs the request body with the API keypair and returns the
// base64url-encoded X-Stamp header value (original client.rs's stamp()).
func (c *Client) stamp(body []byte) (string, error) {
	digest := sha256.Sum256(body)
	sigDER, err := ecdsa.SignASN1(rand.Reader, c.apiPrivateKey, digest[:])
	if err != nil {
		return "", fmt.Errorf("custody: sign stamp: %w", err)
	}

	stamp := apiStamp{
		PublicKey: c.apiPublicKey,
		Signature: hex.EncodeToString(sigDER),
		Scheme:    "SIGNATURE_SCHEME_TK_API_P256",
	}
	stampJSON, err := json.Marshal(stamp)
	if err != nil {
		return "", fmt.Errorf("custody: marshal stamp: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(stampJSON), nil
}

type signRawPayloadRequest struct {
	ActivityType string                          `json:"type"`
	TimestampMs  string                           `json:"timestampMs"`
	Organization string                           `json:"organizationId"`
	Parameters   signRawPayloadIntentV2Parameters `json:"parameters"`
}

type signRawPayloadIntentV2Parameters struct {
	SignWith     string `json:"signWith"`
	Payload      string `json:"payload"`
	Encoding     string `json:"encoding"`
	HashFunction string `json:"hashFunction"`
}

// SignBytes signs an arbitrary payload with the remote key identified by
// privateKeyID (original client.rs's sign_bytes, ACTIVITY_TYPE_SIGN_RAW_PAYLOAD_V2).
func (c *Client) SignBytes(ctx context.Context, payload []byte, privateKeyID string) ([]byte, error) {
	reqBody := signRawPayloadRequest{
		ActivityType: "ACTIVITY_TYPE_SIGN_RAW_PAYLOAD_V2",
		TimestampMs:  fmt.Sprintf("%d", time.Now().UnixMilli()),
		Organization: c.organizationID,
		Parameters: signRawPayloadIntentV2Parameters{
			SignWith:     privateKeyID,
			Payload:      hex.EncodeToString(payload),
			Encoding:     "PAYLOAD_ENCODING_HEXADECIMAL",
			HashFunction: "HASH_FUNCTION_NOT_APPLICABLE",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("custody: marshal sign request: %w", err)
	}

	xStamp, err := c.stamp(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/public/v1/submit/sign_raw_payload", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("custody: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Stamp", xStamp)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("custody: sign_raw_payload request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("custody: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("custody: sign_raw_payload failed %d: %s", resp.StatusCode, string(respBody))
	}

	result := gjson.GetBytes(respBody, "activity.result.signRawPayloadResult")
	if !result.Exists() {
		return nil, fmt.Errorf("custody: missing signRawPayloadResult in response")
	}
	rHex := result.Get("r").String()
	sHex := result.Get("s").String()
	if rHex == "" || sHex == "" {
		return nil, fmt.Errorf("custody: incomplete signature components in response")
	}

	sigBytes, err := hex.DecodeString(rHex + sHex)
	if err != nil {
		return nil, fmt.Errorf("custody: decode signature: %w", err)
	}
	return sigBytes, nil
}

// SignTransaction signs the transaction's message with the remote key
// owning keyPublicKey, inserting the resulting signature at that key's
// position in the transaction's account keys (original client.rs's
// sign_transaction).
func (c *Client) SignTransaction(ctx context.Context, tx *solana.Transaction, privateKeyID string, keyPublicKey solana.PublicKey) error {
	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("custody: marshal transaction message: %w", err)
	}

	sigBytes, err := c.SignBytes(ctx, messageBytes, privateKeyID)
	if err != nil {
		return err
	}
	if len(sigBytes) != 64 {
		return fmt.Errorf("custody: unexpected signature length %d", len(sigBytes))
	}

	index := -1
	for i, key := range tx.Message.AccountKeys {
		if key.Equals(keyPublicKey) {
			index = i
			break
		}
	}
	numSigners := int(tx.Message.Header.NumRequiredSignatures)
	if index == -1 || index >= numSigners {
		return fmt.Errorf("custody: signer %s not found among transaction signers", keyPublicKey)
	}
	if len(tx.Signatures) < numSigners {
		sigs := make([]solana.Signature, numSigners)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}

	var sig solana.Signature
	copy(sig[:], sigBytes)
	tx.Signatures[index] = sig
	return nil
}
