package solana

import "context"

// WSClient is the account-subscription surface consumed by the listeners.
type WSClient interface {
	// SubscribeProgram subscribes to account updates for accounts owned by
	// programID that match the filter.
	SubscribeProgram(ctx context.Context, programID string, filter ProgramFilter) (<-chan AccountNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// ProgramFilter narrows a programSubscribe server-side.
type ProgramFilter struct {
	DataSize int
	Memcmp   []MemcmpFilter
}

// AccountNotification is one account update from a program subscription.
type AccountNotification struct {
	Pubkey string
	Data   []byte
	Slot   uint64
}
