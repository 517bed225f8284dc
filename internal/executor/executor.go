// Package executor implements the transaction submission strategies: plain
// RPC submission, the warp relay service and jito bundles. Expected failures
// (rejections, timeouts, expiry) come back as unconfirmed outcomes, not
// errors.
package executor

import (
	"context"
	"fmt"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// Executor submits a signed transaction and waits for its fate.
type Executor interface {
	Name() string
	ExecuteAndConfirm(ctx context.Context, tx *solana.Transaction, payer *solana.Wallet, blockhash *solana.Blockhash) domain.ExecutionOutcome
}

// confirmPollInterval is how often signature status is polled during
// confirmation.
const confirmPollInterval = 500 * time.Millisecond

// confirmBySignature polls the signature status until the transaction
// confirms, fails on chain, or the blockhash validity window expires.
func confirmBySignature(ctx context.Context, rpc solana.RPCClient, signature string, blockhash *solana.Blockhash, commitment string) domain.ExecutionOutcome {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		statuses, err := rpc.GetSignatureStatuses(ctx, []string{signature})
		if err == nil && len(statuses) == 1 && statuses[0] != nil {
			status := statuses[0]
			if status.Err != nil {
				return domain.FailedOutcome(fmt.Sprintf("transaction failed on chain: %v", status.Err))
			}
			if status.Confirmed(commitment) {
				return domain.ConfirmedOutcome(signature)
			}
		}

		height, err := rpc.GetBlockHeight(ctx)
		if err == nil && height > blockhash.LastValidBlockHeight {
			return domain.FailedOutcome("blockhash expired before confirmation")
		}

		select {
		case <-ctx.Done():
			return domain.FailedOutcome("confirmation cancelled: " + ctx.Err().Error())
		case <-ticker.C:
		}
	}
}
