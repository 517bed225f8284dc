package solana

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// FindProgramAddress derives a Program Derived Address for the given seeds.
// It tries bump seeds from 255 down until the hash lands off the ed25519
// curve.
func FindProgramAddress(seeds [][]byte, programID string) (string, error) {
	programBytes, err := base58.Decode(programID)
	if err != nil {
		return "", fmt.Errorf("decode program id: %w", err)
	}
	if len(programBytes) != 32 {
		return "", fmt.Errorf("program id %s is not 32 bytes", programID)
	}

	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programBytes...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)

		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), nil
		}
	}

	return "", fmt.Errorf("no valid bump seed found")
}

// CreateProgramAddress derives a program address from exact seeds, with no
// bump search. Fails if the hash lands on the curve.
func CreateProgramAddress(seeds [][]byte, programID string) (string, error) {
	programBytes, err := base58.Decode(programID)
	if err != nil {
		return "", fmt.Errorf("decode program id: %w", err)
	}

	data := make([]byte, 0, 128)
	for _, seed := range seeds {
		data = append(data, seed...)
	}
	data = append(data, programBytes...)
	data = append(data, []byte("ProgramDerivedAddress")...)

	hash := sha256.Sum256(data)
	if isOnCurve(hash[:]) {
		return "", fmt.Errorf("derived address is on curve")
	}
	return base58.Encode(hash[:]), nil
}

// MarketVaultSigner derives an OpenBook market's vault authority from the
// market address and its stored vault signer nonce.
func MarketVaultSigner(marketID string, nonce uint64, marketProgramID string) (string, error) {
	marketBytes, err := base58.Decode(marketID)
	if err != nil {
		return "", fmt.Errorf("decode market id: %w", err)
	}

	nonceBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonceBytes, nonce)

	return CreateProgramAddress([][]byte{marketBytes, nonceBytes}, marketProgramID)
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// AssociatedTokenAddress derives the associated token account for a wallet
// and mint. Seeds: [wallet, token_program, mint] under the ATA program.
func AssociatedTokenAddress(wallet, mint string) (string, error) {
	walletBytes, err := base58.Decode(wallet)
	if err != nil {
		return "", fmt.Errorf("decode wallet: %w", err)
	}
	tokenProgramBytes, err := base58.Decode(TokenProgramID)
	if err != nil {
		return "", err
	}
	mintBytes, err := base58.Decode(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}

	return FindProgramAddress(
		[][]byte{walletBytes, tokenProgramBytes, mintBytes},
		AssociatedTokenProgram,
	)
}

// MetadataAddress derives the Metaplex metadata PDA for a mint.
// Seeds: ["metadata", metaplex_program_id, mint]
func MetadataAddress(mint string) (string, error) {
	programBytes, err := base58.Decode(MetaplexMetadataID)
	if err != nil {
		return "", err
	}
	mintBytes, err := base58.Decode(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}

	return FindProgramAddress(
		[][]byte{[]byte("metadata"), programBytes, mintBytes},
		MetaplexMetadataID,
	)
}
