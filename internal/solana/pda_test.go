package solana

import (
	"testing"

	"github.com/mr-tron/base58"
)

func TestFindProgramAddress_Deterministic(t *testing.T) {
	seeds := [][]byte{[]byte("metadata"), make([]byte, 32)}

	a, err := FindProgramAddress(seeds, MetaplexMetadataID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}
	b, err := FindProgramAddress(seeds, MetaplexMetadataID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}
	if a != b {
		t.Errorf("derivation not deterministic: %s vs %s", a, b)
	}

	raw, err := base58.Decode(a)
	if err != nil || len(raw) != 32 {
		t.Errorf("derived address is not a 32-byte key: %s", a)
	}
	if isOnCurve(raw) {
		t.Error("derived address must be off curve")
	}
}

func TestFindProgramAddress_SeedSensitive(t *testing.T) {
	a, err := FindProgramAddress([][]byte{[]byte("one")}, TokenProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}
	b, err := FindProgramAddress([][]byte{[]byte("two")}, TokenProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}
	if a == b {
		t.Error("different seeds must derive different addresses")
	}
}

func TestAssociatedTokenAddress(t *testing.T) {
	wallet := testPubkey(0x31)

	ata, err := AssociatedTokenAddress(wallet, WSOLMint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}

	other, err := AssociatedTokenAddress(wallet, USDCMint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	if ata == other {
		t.Error("different mints must map to different token accounts")
	}

	if _, err := AssociatedTokenAddress("not-base58!", WSOLMint); err == nil {
		t.Error("expected error for malformed wallet")
	}
}

func TestIsOnCurve(t *testing.T) {
	// The ed25519 base point encoding: y = 4/5 mod p.
	basePoint := make([]byte, 32)
	basePoint[0] = 0x58
	for i := 1; i < 32; i++ {
		basePoint[i] = 0x66
	}
	if !isOnCurve(basePoint) {
		t.Error("base point must be on curve")
	}

	if isOnCurve(make([]byte, 16)) {
		t.Error("short input must not be on curve")
	}
}

func TestMarketVaultSigner(t *testing.T) {
	marketID := testPubkey(0x32)

	// Some nonce in [0,255] must produce a valid off-curve address; the
	// stored nonce is found at market creation the same way.
	found := false
	for nonce := uint64(0); nonce < 256; nonce++ {
		signer, err := MarketVaultSigner(marketID, nonce, OpenBookProgramID)
		if err != nil {
			continue
		}
		raw, err := base58.Decode(signer)
		if err != nil || len(raw) != 32 {
			t.Fatalf("vault signer is not a 32-byte key: %s", signer)
		}
		found = true
		break
	}
	if !found {
		t.Fatal("no valid vault signer nonce in range")
	}
}
