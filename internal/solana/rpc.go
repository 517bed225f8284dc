// Package solana provides the JSON-RPC and WebSocket clients, transaction
// assembly and address derivation used by the sniper. It deliberately speaks
// the raw wire protocol; no chain SDK sits between the engine and the node.
package solana

import "context"

// RPCClient is the read/submit surface the rest of the application consumes.
// Implemented by HTTPClient and by the test stub.
type RPCClient interface {
	// GetAccountInfo fetches an account. Returns nil, nil if absent.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetMultipleAccounts fetches several accounts in one call. Absent
	// accounts yield nil entries at their index.
	GetMultipleAccounts(ctx context.Context, pubkeys []string) ([]*AccountInfo, error)

	// GetTokenSupply returns the total supply of a mint.
	GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error)

	// GetTokenAccountBalance returns the balance of a token account.
	// Returns nil, nil if the account does not exist.
	GetTokenAccountBalance(ctx context.Context, account string) (*TokenAmount, error)

	// GetTokenLargestAccounts returns the largest token accounts of a mint,
	// ordered by balance descending.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]LargestAccount, error)

	// GetProgramAccounts returns accounts owned by a program, filtered
	// server-side.
	GetProgramAccounts(ctx context.Context, programID string, opts *ProgramAccountsOpts) ([]KeyedAccount, error)

	// GetLatestBlockhash returns a recent blockhash and the last block
	// height at which it remains valid.
	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)

	// GetBlockHeight returns the current block height.
	GetBlockHeight(ctx context.Context) (uint64, error)

	// SendTransaction submits a signed serialized transaction and returns
	// its signature.
	SendTransaction(ctx context.Context, txBase64 string) (string, error)

	// GetSignatureStatuses returns confirmation status per signature; nil
	// entries for unknown signatures.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}
