package codec

import "encoding/binary"

// TokenMetadata is the decoded Metaplex metadata account (borsh layout).
// Only the fields the metadata filter inspects are retained.
type TokenMetadata struct {
	UpdateAuthority string
	Mint            string
	Name            string
	Symbol          string
	URI             string
	IsMutable       bool
}

// DecodeTokenMetadata decodes a Metaplex metadata account. The layout is
// borsh-serialized: key u8, update authority, mint, three length-prefixed
// strings, seller fee u16, optional creators vec, two bools.
func DecodeTokenMetadata(data []byte) (*TokenMetadata, error) {
	const layout = "token metadata"
	if len(data) < 1+32+32 {
		return nil, decodeErr(layout, "truncated header: %d bytes", len(data))
	}

	md := &TokenMetadata{
		UpdateAuthority: pubkey(data, 1),
		Mint:            pubkey(data, 33),
	}
	off := 65

	var err error
	if md.Name, off, err = borshString(data, off, layout); err != nil {
		return nil, err
	}
	if md.Symbol, off, err = borshString(data, off, layout); err != nil {
		return nil, err
	}
	if md.URI, off, err = borshString(data, off, layout); err != nil {
		return nil, err
	}

	// sellerFeeBasisPoints
	if off+2 > len(data) {
		return nil, decodeErr(layout, "truncated at seller fee")
	}
	off += 2

	// Option<Vec<Creator>>; each creator is 32 + 1 + 1 bytes.
	if off+1 > len(data) {
		return nil, decodeErr(layout, "truncated at creators option")
	}
	hasCreators := data[off] != 0
	off++
	if hasCreators {
		if off+4 > len(data) {
			return nil, decodeErr(layout, "truncated at creators length")
		}
		n := int(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4 + n*34
	}

	// primarySaleHappened, isMutable
	if off+2 > len(data) {
		return nil, decodeErr(layout, "truncated at mutability flags")
	}
	md.IsMutable = data[off+1] != 0

	return md, nil
}

func borshString(data []byte, off int, layout string) (string, int, error) {
	if off+4 > len(data) {
		return "", 0, decodeErr(layout, "truncated string length at offset %d", off)
	}
	n := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	if off+n > len(data) {
		return "", 0, decodeErr(layout, "truncated string body at offset %d", off)
	}
	s := trimNul(string(data[off : off+n]))
	return s, off + n, nil
}

// trimNul drops trailing NUL padding that on-chain fixed-width strings carry.
func trimNul(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}
