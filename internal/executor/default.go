package executor

import (
	"context"

	"go.uber.org/zap"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// DefaultExecutor submits through the regular RPC endpoint and polls the
// signature status until the blockhash validity window closes.
type DefaultExecutor struct {
	rpc        solana.RPCClient
	commitment string
	log        *zap.Logger
}

var _ Executor = (*DefaultExecutor)(nil)

func NewDefaultExecutor(rpc solana.RPCClient, commitment string, log *zap.Logger) *DefaultExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &DefaultExecutor{rpc: rpc, commitment: commitment, log: log.Named("executor.default")}
}

func (e *DefaultExecutor) Name() string { return "default" }

func (e *DefaultExecutor) ExecuteAndConfirm(ctx context.Context, tx *solana.Transaction, _ *solana.Wallet, blockhash *solana.Blockhash) domain.ExecutionOutcome {
	signature, err := e.rpc.SendTransaction(ctx, tx.Base64())
	if err != nil {
		e.log.Debug("submission failed", zap.Error(err))
		return domain.FailedOutcome("send transaction: " + err.Error())
	}

	e.log.Debug("confirming transaction", zap.String("signature", signature))
	return confirmBySignature(ctx, e.rpc, signature, blockhash, e.commitment)
}
