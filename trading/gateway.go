package trading

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrTransactionNotFound is the typed failure the Classifier (E) retries on
// (spec.md §7 item 3: "not-yet-available transaction").
var ErrTransactionNotFound = errors.New("gateway: transaction not found")

// TokenBalanceEntry is one entry of a transaction's pre/post token balance
// list, trimmed to the fields the Classifier needs (mint ownership).
type TokenBalanceEntry struct {
	Mint    string
	Owner   string
	Amount  uint64
	Decimal uint8
}

// FetchedTransaction is the typed, already-decoded shape the Classifier (E)
// consumes — spec.md §4.E step 2's "encoding that preserves meta".
type FetchedTransaction struct {
	Signature         string
	FeePayer          string
	LogMessages       []string
	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []TokenBalanceEntry
	PostTokenBalances []TokenBalanceEntry
	Meta              interface{} // non-nil iff the node returned meta
}

// RPCGateway is Component B: typed wrappers over chain read/write
// operations, grounded on trading/balance.go and api/shyft.go's direct use
// of gagliardetto/solana-go's rpc.Client.
type RPCGateway struct {
	client *rpc.Client
}

func NewRPCGateway(rpcURL string) *RPCGateway {
	return &RPCGateway{client: rpc.New(rpcURL)}
}

// GetTransaction fetches a transaction by signature with commitment
// "confirmed" and an encoding that preserves meta, per spec.md §6.
func (g *RPCGateway) GetTransaction(ctx context.Context, signature string) (*FetchedTransaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}

	maxVersion := uint64(0)
	out, err := g.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionNotFound, err)
	}
	if out == nil || out.Meta == nil {
		return &FetchedTransaction{Signature: signature}, nil
	}

	var feePayer string
	decoded, err := out.Transaction.GetTransaction()
	if err == nil && decoded != nil && len(decoded.Message.AccountKeys) > 0 {
		feePayer = decoded.Message.AccountKeys[0].String()
	}

	return &FetchedTransaction{
		Signature:         signature,
		FeePayer:          feePayer,
		LogMessages:       out.Meta.LogMessages,
		PreBalances:       out.Meta.PreBalances,
		PostBalances:      out.Meta.PostBalances,
		PreTokenBalances:  convertTokenBalances(out.Meta.PreTokenBalances),
		PostTokenBalances: convertTokenBalances(out.Meta.PostTokenBalances),
		Meta:              out.Meta,
	}, nil
}

func convertTokenBalances(in []rpc.TokenBalance) []TokenBalanceEntry {
	out := make([]TokenBalanceEntry, 0, len(in))
	for _, tb := range in {
		entry := TokenBalanceEntry{Mint: tb.Mint.String()}
		if tb.Owner != nil {
			entry.Owner = tb.Owner.String()
		}
		if tb.UiTokenAmount != nil {
			entry.Decimal = tb.UiTokenAmount.Decimals
		}
		out = append(out, entry)
	}
	return out
}

// GetTokenAccountsByOwner fetches every SPL token account owned by owner,
// talking directly to the chain RPC rather than a third-party indexer —
// this is the operation spec.md §6 names, used by Fan-out (F) to size the
// sell-side quote.
func (g *RPCGateway) GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey) ([]TokenBalanceEntry, error) {
	out, err := g.client.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{ProgramId: &solana.TokenProgramID},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed, Commitment: rpc.CommitmentConfirmed},
	)
	if err != nil {
		return nil, fmt.Errorf("get token accounts by owner: %w", err)
	}

	balances := make([]TokenBalanceEntry, 0, len(out.Value))
	for _, acc := range out.Value {
		parsed := acc.Account.Data.GetParsedAccount()
		if parsed == nil {
			continue
		}
		info, ok := parsed.Parsed["info"].(map[string]interface{})
		if !ok {
			continue
		}
		mint, _ := info["mint"].(string)
		tokAmt, _ := info["tokenAmount"].(map[string]interface{})
		amountStr, _ := tokAmt["amount"].(string)

		var amount uint64
		fmt.Sscanf(amountStr, "%d", &amount)

		balances = append(balances, TokenBalanceEntry{
			Mint:   mint,
			Owner:  owner.String(),
			Amount: amount,
		})
	}
	return balances, nil
}

// GetBalance fetches the native balance for a pubkey.
func (g *RPCGateway) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	out, err := g.client.GetBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return out.Value, nil
}

// GetLatestBlockhash fetches the latest blockhash for transaction building.
func (g *RPCGateway) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := g.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return out.Value.Blockhash, nil
}

// SendTransaction submits a signed transaction without waiting for confirmation.
func (g *RPCGateway) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := g.client.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction probes for confirmation at the given commitment level.
func (g *RPCGateway) ConfirmTransaction(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) (bool, error) {
	out, err := g.client.GetSignatureStatuses(ctx, false, signature)
	if err != nil {
		return false, fmt.Errorf("confirm transaction: %w", err)
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil
	}
	status := out.Value[0]
	if status.Err != nil {
		return false, nil
	}
	return status.ConfirmationStatus == rpc.ConfirmationStatusType(commitment) ||
		status.ConfirmationStatus == rpc.ConfirmationStatusFinalized, nil
}

// ConfirmSignature is the string-signature convenience used by the bundle
// tracker's ChainConfirmer interface.
func (g *RPCGateway) ConfirmSignature(ctx context.Context, signature string) (bool, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return false, fmt.Errorf("invalid signature: %w", err)
	}
	return g.ConfirmTransaction(ctx, sig, rpc.CommitmentConfirmed)
}

// RawClient exposes the underlying rpc.Client.
func (g *RPCGateway) RawClient() *rpc.Client {
	return g.client
}

// FormatSOL converts lamports to SOL, kept from the teacher's
// trading/balance.go now that BalanceManager itself is gone.
func FormatSOL(lamports uint64) float64 {
	return float64(lamports) / 1e9
}
