package codec

// MintAccountSize is the byte size of an SPL mint account.
const MintAccountSize = 82

// MintAccount is a decoded SPL token mint. The two option fields are 0 when
// the corresponding authority has been revoked.
type MintAccount struct {
	MintAuthorityOption   uint32
	MintAuthority         string
	Supply                uint64
	Decimals              uint8
	IsInitialized         bool
	FreezeAuthorityOption uint32
	FreezeAuthority       string
}

// MintRenounced reports whether further issuance is permanently disabled.
func (m *MintAccount) MintRenounced() bool { return m.MintAuthorityOption == 0 }

// Freezable reports whether token accounts can still be frozen.
func (m *MintAccount) Freezable() bool { return m.FreezeAuthorityOption != 0 }

// DecodeMint decodes an SPL mint account.
func DecodeMint(data []byte) (*MintAccount, error) {
	if len(data) < MintAccountSize {
		return nil, decodeErr("mint", "want %d bytes, got %d", MintAccountSize, len(data))
	}
	return &MintAccount{
		MintAuthorityOption:   u32(data, 0),
		MintAuthority:         pubkey(data, 4),
		Supply:                u64(data, 36),
		Decimals:              data[44],
		IsInitialized:         data[45] != 0,
		FreezeAuthorityOption: u32(data, 46),
		FreezeAuthority:       pubkey(data, 50),
	}, nil
}
