package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// WarpFeeWallet receives the service fee attached to every warp execution.
const WarpFeeWallet = "WARPzUMPnycu9eeCZ95rcAUxorqpBqHndfV3ZP5FSyS"

// DefaultWarpURL is the warp execution service endpoint.
const DefaultWarpURL = "https://tx.warp.id/transaction/execute"

// WarpExecutor hands the transaction to the warp relay service together with
// a fee-transfer transaction. The service's reported outcome is returned
// verbatim; no local confirmation polling happens.
type WarpExecutor struct {
	url         string
	feeLamports uint64
	http        *http.Client
	log         *zap.Logger
}

var _ Executor = (*WarpExecutor)(nil)

func NewWarpExecutor(url string, feeLamports uint64, httpClient *http.Client, log *zap.Logger) *WarpExecutor {
	if url == "" {
		url = DefaultWarpURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 100 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WarpExecutor{url: url, feeLamports: feeLamports, http: httpClient, log: log.Named("executor.warp")}
}

func (e *WarpExecutor) Name() string { return "warp" }

type warpRequest struct {
	Transactions    []string      `json:"transactions"`
	LatestBlockhash warpBlockhash `json:"latestBlockhash"`
}

type warpBlockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

type warpResponse struct {
	Confirmed bool   `json:"confirmed"`
	Signature string `json:"signature"`
	Error     string `json:"error"`
}

func (e *WarpExecutor) ExecuteAndConfirm(ctx context.Context, tx *solana.Transaction, payer *solana.Wallet, blockhash *solana.Blockhash) domain.ExecutionOutcome {
	feeTx, err := solana.BuildTransaction(payer, blockhash.Blockhash, []solana.Instruction{
		solana.SystemTransfer(payer.PublicKey(), WarpFeeWallet, e.feeLamports),
	})
	if err != nil {
		return domain.FailedOutcome("build fee transaction: " + err.Error())
	}

	body, err := json.Marshal(warpRequest{
		Transactions: []string{feeTx.Base58(), tx.Base58()},
		LatestBlockhash: warpBlockhash{
			Blockhash:            blockhash.Blockhash,
			LastValidBlockHeight: blockhash.LastValidBlockHeight,
		},
	})
	if err != nil {
		return domain.FailedOutcome("marshal request: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return domain.FailedOutcome("create request: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		e.log.Debug("warp request failed", zap.Error(err))
		return domain.FailedOutcome("warp request: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.FailedOutcome(fmt.Sprintf("warp service returned %d", resp.StatusCode))
	}

	var result warpResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.FailedOutcome("decode warp response: " + err.Error())
	}

	return domain.ExecutionOutcome{
		Confirmed: result.Confirmed,
		Signature: result.Signature,
		Err:       result.Error,
	}
}
