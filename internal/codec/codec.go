// Package codec decodes the raw on-chain account layouts the sniper
// consumes: SPL mints and token accounts, Raydium AMM v4 liquidity state,
// OpenBook market state and Metaplex token metadata. All integers are
// little-endian; public keys are returned base58-encoded.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// DecodeError reports malformed or unexpected account bytes. Candidates
// whose state fails to decode are discarded, never retried.
type DecodeError struct {
	Layout string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Layout, e.Reason)
}

func decodeErr(layout, format string, args ...any) *DecodeError {
	return &DecodeError{Layout: layout, Reason: fmt.Sprintf(format, args...)}
}

func pubkey(data []byte, offset int) string {
	return base58.Encode(data[offset : offset+32])
}

func u64(data []byte, offset int) uint64 {
	return binary.LittleEndian.Uint64(data[offset : offset+8])
}

func u32(data []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(data[offset : offset+4])
}
