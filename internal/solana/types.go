package solana

// AccountInfo is a fetched account with decoded data bytes.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte
	Executable bool
}

// TokenAmount is a token balance in both raw and display units.
type TokenAmount struct {
	Amount   string // raw units as decimal string
	Decimals uint8
	UIAmount float64
}

// LargestAccount is one entry of getTokenLargestAccounts.
type LargestAccount struct {
	Address  string
	UIAmount float64
}

// Blockhash carries a recent blockhash and its validity window.
type Blockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// SignatureStatus is one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64
	ConfirmationStatus string // "processed" | "confirmed" | "finalized"
	Err                any
}

// Confirmed reports whether the transaction reached at least the given
// commitment without an on-chain error.
func (s *SignatureStatus) Confirmed(commitment string) bool {
	if s == nil || s.Err != nil {
		return false
	}
	switch commitment {
	case "finalized":
		return s.ConfirmationStatus == "finalized"
	default:
		return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
	}
}

// MemcmpFilter matches account data bytes at an offset (base58-encoded).
type MemcmpFilter struct {
	Offset int
	Bytes  string
}

// ProgramAccountsOpts filters a getProgramAccounts call server-side.
type ProgramAccountsOpts struct {
	DataSize     int
	Memcmp       []MemcmpFilter
	DataSliceLen *int // when set, only this many bytes of data are returned
	DataSliceOff int
}

// KeyedAccount pairs an account address with its info.
type KeyedAccount struct {
	Pubkey  string
	Account AccountInfo
}
