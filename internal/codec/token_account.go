package codec

// TokenAccountSize is the byte size of an SPL token account.
const TokenAccountSize = 165

// TokenAccountOwnerOffset is the byte offset of the owner field, used by the
// wallet subscription memcmp filter.
const TokenAccountOwnerOffset = 32

// TokenAccount is a decoded SPL token account.
type TokenAccount struct {
	Mint   string
	Owner  string
	Amount uint64
}

// DecodeTokenAccount decodes an SPL token account.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) < TokenAccountSize {
		return nil, decodeErr("token account", "want %d bytes, got %d", TokenAccountSize, len(data))
	}
	return &TokenAccount{
		Mint:   pubkey(data, 0),
		Owner:  pubkey(data, 32),
		Amount: u64(data, 64),
	}, nil
}
