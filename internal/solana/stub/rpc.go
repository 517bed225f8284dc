// Package stub provides in-memory test doubles for the solana clients.
package stub

import (
	"context"
	"fmt"
	"sync"

	"solana-sniper/internal/solana"
)

// RPCClient implements solana.RPCClient for testing. State is map-backed and
// safe for concurrent use; function fields override individual methods when
// a test needs dynamic behavior.
type RPCClient struct {
	mu sync.Mutex

	Accounts        map[string]*solana.AccountInfo
	TokenSupplies   map[string]*solana.TokenAmount
	TokenBalances   map[string]*solana.TokenAmount
	LargestAccounts map[string][]solana.LargestAccount
	ProgramAccounts map[string][]solana.KeyedAccount
	Statuses        map[string]*solana.SignatureStatus

	Blockhash   solana.Blockhash
	BlockHeight uint64

	// Sent records every transaction submitted through SendTransaction.
	Sent []string

	SendTransactionFunc      func(ctx context.Context, txBase64 string) (string, error)
	GetSignatureStatusesFunc func(ctx context.Context, signatures []string) ([]*solana.SignatureStatus, error)
	GetTokenAccountBalanceFn func(ctx context.Context, account string) (*solana.TokenAmount, error)
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:        make(map[string]*solana.AccountInfo),
		TokenSupplies:   make(map[string]*solana.TokenAmount),
		TokenBalances:   make(map[string]*solana.TokenAmount),
		LargestAccounts: make(map[string][]solana.LargestAccount),
		ProgramAccounts: make(map[string][]solana.KeyedAccount),
		Statuses:        make(map[string]*solana.SignatureStatus),
		Blockhash: solana.Blockhash{
			Blockhash:            "11111111111111111111111111111111",
			LastValidBlockHeight: 1000,
		},
	}
}

func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Accounts[pubkey], nil
}

func (c *RPCClient) GetMultipleAccounts(_ context.Context, pubkeys []string) ([]*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	infos := make([]*solana.AccountInfo, len(pubkeys))
	for i, k := range pubkeys {
		infos[i] = c.Accounts[k]
	}
	return infos, nil
}

func (c *RPCClient) GetTokenSupply(_ context.Context, mint string) (*solana.TokenAmount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	supply, ok := c.TokenSupplies[mint]
	if !ok {
		return nil, fmt.Errorf("no supply for %s", mint)
	}
	return supply, nil
}

func (c *RPCClient) GetTokenAccountBalance(ctx context.Context, account string) (*solana.TokenAmount, error) {
	if c.GetTokenAccountBalanceFn != nil {
		return c.GetTokenAccountBalanceFn(ctx, account)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.TokenBalances[account], nil
}

func (c *RPCClient) GetTokenLargestAccounts(_ context.Context, mint string) ([]solana.LargestAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.LargestAccounts[mint], nil
}

func (c *RPCClient) GetProgramAccounts(_ context.Context, programID string, _ *solana.ProgramAccountsOpts) ([]solana.KeyedAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ProgramAccounts[programID], nil
}

func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bh := c.Blockhash
	return &bh, nil
}

func (c *RPCClient) GetBlockHeight(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.BlockHeight, nil
}

func (c *RPCClient) SendTransaction(ctx context.Context, txBase64 string) (string, error) {
	if c.SendTransactionFunc != nil {
		return c.SendTransactionFunc(ctx, txBase64)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sent = append(c.Sent, txBase64)
	return fmt.Sprintf("stub-signature-%d", len(c.Sent)), nil
}

func (c *RPCClient) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	if c.GetSignatureStatusesFunc != nil {
		return c.GetSignatureStatusesFunc(ctx, signatures)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	statuses := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		statuses[i] = c.Statuses[sig]
	}
	return statuses, nil
}

// SetAccount stores account data under a pubkey.
func (c *RPCClient) SetAccount(pubkey string, info *solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pubkey] = info
}

// SetTokenBalance stores a token account balance.
func (c *RPCClient) SetTokenBalance(account string, amount *solana.TokenAmount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TokenBalances[account] = amount
}

// SetStatus stores a signature status.
func (c *RPCClient) SetStatus(signature string, status *solana.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[signature] = status
}

// SentCount returns how many transactions were submitted.
func (c *RPCClient) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}
