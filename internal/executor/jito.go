package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// JitoTipAccounts are the block engine's published tip accounts; one is
// picked at random per execution.
var JitoTipAccounts = []string{
	"Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY",
	"DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL",
	"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
	"3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT",
	"HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe",
	"ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49",
	"ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt",
	"DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh",
}

// JitoEndpoints are the regional block engine bundle endpoints. The bundle
// goes to all of them in parallel.
var JitoEndpoints = []string{
	"https://mainnet.block-engine.jito.wtf/api/v1/bundles",
	"https://amsterdam.mainnet.block-engine.jito.wtf/api/v1/bundles",
	"https://frankfurt.mainnet.block-engine.jito.wtf/api/v1/bundles",
	"https://ny.mainnet.block-engine.jito.wtf/api/v1/bundles",
	"https://tokyo.mainnet.block-engine.jito.wtf/api/v1/bundles",
}

// JitoExecutor bundles the transaction with a tip transfer and submits the
// bundle to every regional endpoint. A single acknowledgment is enough to
// move on to confirmation polling.
type JitoExecutor struct {
	rpc         solana.RPCClient
	commitment  string
	tipLamports uint64
	endpoints   []string
	tipAccounts []string
	http        *http.Client
	log         *zap.Logger
}

var _ Executor = (*JitoExecutor)(nil)

func NewJitoExecutor(rpc solana.RPCClient, commitment string, tipLamports uint64, httpClient *http.Client, log *zap.Logger) *JitoExecutor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &JitoExecutor{
		rpc:         rpc,
		commitment:  commitment,
		tipLamports: tipLamports,
		endpoints:   JitoEndpoints,
		tipAccounts: JitoTipAccounts,
		http:        httpClient,
		log:         log.Named("executor.jito"),
	}
}

func (e *JitoExecutor) Name() string { return "jito" }

func (e *JitoExecutor) ExecuteAndConfirm(ctx context.Context, tx *solana.Transaction, payer *solana.Wallet, blockhash *solana.Blockhash) domain.ExecutionOutcome {
	tipAccount := e.tipAccounts[rand.Intn(len(e.tipAccounts))]
	e.log.Debug("selected tip account", zap.String("account", tipAccount))

	tipTx, err := solana.BuildTransaction(payer, blockhash.Blockhash, []solana.Instruction{
		solana.SystemTransfer(payer.PublicKey(), tipAccount, e.tipLamports),
	})
	if err != nil {
		return domain.FailedOutcome("build tip transaction: " + err.Error())
	}

	bundle := []string{tipTx.Base58(), tx.Base58()}

	var acked atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, endpoint := range e.endpoints {
		g.Go(func() error {
			if err := e.sendBundle(gctx, endpoint, bundle); err != nil {
				e.log.Debug("bundle rejected", zap.String("endpoint", endpoint), zap.Error(err))
				return nil
			}
			acked.Add(1)
			return nil
		})
	}
	g.Wait()

	if acked.Load() == 0 {
		return domain.FailedOutcome("no block engine accepted the bundle")
	}

	e.log.Debug("bundle acknowledged",
		zap.Int64("endpoints", acked.Load()), zap.String("signature", tipTx.Signature))
	return confirmBySignature(ctx, e.rpc, tipTx.Signature, blockhash, e.commitment)
}

func (e *JitoExecutor) sendBundle(ctx context.Context, endpoint string, bundle []string) error {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "sendBundle",
		"params":  []any{bundle},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var rpcResp struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return err
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return nil
}
