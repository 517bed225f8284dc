package codec

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

func pk(b byte) string {
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = b
	}
	return base58.Encode(buf)
}

func putPk(data []byte, offset int, b byte) {
	for i := 0; i < 32; i++ {
		data[offset+i] = b
	}
}

func TestDecodeMint(t *testing.T) {
	data := make([]byte, MintAccountSize)
	binary.LittleEndian.PutUint32(data[0:], 1)
	putPk(data, 4, 1)
	binary.LittleEndian.PutUint64(data[36:], 1_000_000)
	data[44] = 9
	data[45] = 1
	binary.LittleEndian.PutUint32(data[46:], 0)

	mint, err := DecodeMint(data)
	require.NoError(t, err)
	require.Equal(t, pk(1), mint.MintAuthority)
	require.Equal(t, uint64(1_000_000), mint.Supply)
	require.Equal(t, uint8(9), mint.Decimals)
	require.True(t, mint.IsInitialized)
	require.False(t, mint.MintRenounced(), "authority option 1 means mint is live")
	require.False(t, mint.Freezable(), "freeze option 0 means no freeze authority")

	binary.LittleEndian.PutUint32(data[0:], 0)
	binary.LittleEndian.PutUint32(data[46:], 1)
	mint, err = DecodeMint(data)
	require.NoError(t, err)
	require.True(t, mint.MintRenounced())
	require.True(t, mint.Freezable())
}

func TestDecodeTokenAccount(t *testing.T) {
	data := make([]byte, TokenAccountSize)
	putPk(data, 0, 1)
	putPk(data, 32, 2)
	binary.LittleEndian.PutUint64(data[64:], 42)

	acc, err := DecodeTokenAccount(data)
	require.NoError(t, err)
	require.Equal(t, pk(1), acc.Mint)
	require.Equal(t, pk(2), acc.Owner)
	require.Equal(t, uint64(42), acc.Amount)
}

func TestDecodeLiquidityStateV4(t *testing.T) {
	data := make([]byte, LiquidityStateV4Size)
	binary.LittleEndian.PutUint64(data[LiquidityStatusOffset:], PoolStatusSwapEnabled)
	binary.LittleEndian.PutUint64(data[LiquidityBaseDecimalOffset:], 9)
	binary.LittleEndian.PutUint64(data[LiquidityQuoteDecimalOffset:], 6)
	binary.LittleEndian.PutUint64(data[LiquidityPoolOpenTimeOffset:], 1700000000)
	putPk(data, LiquidityBaseVaultOffset, 1)
	putPk(data, LiquidityQuoteVaultOffset, 2)
	putPk(data, LiquidityBaseMintOffset, 3)
	putPk(data, LiquidityQuoteMintOffset, 4)
	putPk(data, LiquidityLPMintOffset, 5)
	putPk(data, LiquidityOpenOrdersOffset, 6)
	putPk(data, LiquidityMarketIDOffset, 7)
	putPk(data, LiquidityMarketProgramOffset, 8)

	state, err := DecodeLiquidityStateV4(data)
	require.NoError(t, err)
	require.Equal(t, uint64(PoolStatusSwapEnabled), state.Status)
	require.Equal(t, uint64(9), state.BaseDecimals)
	require.Equal(t, uint64(6), state.QuoteDecimals)
	require.Equal(t, uint64(1700000000), state.PoolOpenTime)
	require.Equal(t, pk(1), state.BaseVault)
	require.Equal(t, pk(2), state.QuoteVault)
	require.Equal(t, pk(3), state.BaseMint)
	require.Equal(t, pk(4), state.QuoteMint)
	require.Equal(t, pk(5), state.LPMint)
	require.Equal(t, pk(6), state.OpenOrders)
	require.Equal(t, pk(7), state.MarketID)
	require.Equal(t, pk(8), state.MarketProgramID)
}

func TestDecodeMarketStateV3(t *testing.T) {
	data := make([]byte, MarketStateV3Size)
	binary.LittleEndian.PutUint64(data[MarketVaultSignerNonceOffset:], 3)
	putPk(data, MarketBaseVaultOffset, 2)
	putPk(data, MarketQuoteVaultOffset, 3)
	putPk(data, MarketEventQueueOffset, 4)
	putPk(data, MarketBidsOffset, 5)
	putPk(data, MarketAsksOffset, 6)

	market, err := DecodeMarketStateV3(pk(9), data)
	require.NoError(t, err)
	require.Equal(t, pk(9), market.MarketID)
	require.Equal(t, uint64(3), market.VaultSignerNonce)
	require.Equal(t, pk(2), market.BaseVault)
	require.Equal(t, pk(3), market.QuoteVault)
	require.Equal(t, pk(4), market.EventQueue)
	require.Equal(t, pk(5), market.Bids)
	require.Equal(t, pk(6), market.Asks)
}

// metadataBytes serializes a minimal Metaplex metadata account.
func metadataBytes(name, symbol, uri string, creators int, isMutable bool) []byte {
	data := []byte{4} // key
	key := make([]byte, 32)
	for i := range key {
		key[i] = 7
	}
	data = append(data, key...) // update authority
	data = append(data, key...) // mint

	appendString := func(s string) {
		var length [4]byte
		binary.LittleEndian.PutUint32(length[:], uint32(len(s)))
		data = append(data, length[:]...)
		data = append(data, s...)
	}
	appendString(name)
	appendString(symbol)
	appendString(uri)

	data = append(data, 0, 0) // seller fee
	if creators > 0 {
		data = append(data, 1)
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(creators))
		data = append(data, n[:]...)
		data = append(data, make([]byte, creators*34)...)
	} else {
		data = append(data, 0)
	}
	data = append(data, 0) // primarySaleHappened
	if isMutable {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}
	return data
}

func TestDecodeTokenMetadata(t *testing.T) {
	data := metadataBytes("Token\x00\x00", "TKN", "https://example.com/meta.json", 2, true)

	md, err := DecodeTokenMetadata(data)
	require.NoError(t, err)
	require.Equal(t, pk(7), md.UpdateAuthority)
	require.Equal(t, "Token", md.Name, "NUL padding is trimmed")
	require.Equal(t, "TKN", md.Symbol)
	require.Equal(t, "https://example.com/meta.json", md.URI)
	require.True(t, md.IsMutable)

	md, err = DecodeTokenMetadata(metadataBytes("T", "T", "u", 0, false))
	require.NoError(t, err)
	require.False(t, md.IsMutable)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"mint", func() error { _, err := DecodeMint(make([]byte, 10)); return err }()},
		{"token account", func() error { _, err := DecodeTokenAccount(nil); return err }()},
		{"liquidity", func() error { _, err := DecodeLiquidityStateV4(make([]byte, 100)); return err }()},
		{"market", func() error { _, err := DecodeMarketStateV3("m", make([]byte, 100)); return err }()},
		{"metadata", func() error { _, err := DecodeTokenMetadata(make([]byte, 40)); return err }()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.err)
			var decodeError *DecodeError
			require.True(t, errors.As(tc.err, &decodeError), "short input must yield a DecodeError")
		})
	}
}
