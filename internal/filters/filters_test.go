package filters

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/codec"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/solana/stub"
)

func pk(seed byte) string {
	b := make([]byte, 32)
	for i := range b {
		b[i] = seed
	}
	return base58.Encode(b)
}

func poolKeys() *domain.PoolKeys {
	return &domain.PoolKeys{
		ID:         pk(0x01),
		BaseMint:   pk(0x02),
		QuoteMint:  solana.WSOLMint,
		LPMint:     pk(0x03),
		QuoteVault: pk(0x04),
	}
}

func mintData(authorityOption, freezeOption uint32, supply uint64, decimals byte) []byte {
	data := make([]byte, codec.MintAccountSize)
	binary.LittleEndian.PutUint32(data[0:], authorityOption)
	binary.LittleEndian.PutUint64(data[36:], supply)
	data[44] = decimals
	data[45] = 1 // initialized
	binary.LittleEndian.PutUint32(data[46:], freezeOption)
	return data
}

func metadataData(t *testing.T, updateAuthority, mint, uri string, mutable bool) []byte {
	t.Helper()
	auth, err := base58.Decode(updateAuthority)
	require.NoError(t, err)
	mintRaw, err := base58.Decode(mint)
	require.NoError(t, err)

	putString := func(buf []byte, s string) []byte {
		lenBytes := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBytes, uint32(len(s)))
		return append(append(buf, lenBytes...), s...)
	}

	data := []byte{4} // MetadataV1
	data = append(data, auth...)
	data = append(data, mintRaw...)
	data = putString(data, "Token")
	data = putString(data, "TKN")
	data = putString(data, uri)
	data = append(data, 0, 0) // seller fee
	data = append(data, 0)    // no creators
	data = append(data, 0)    // primarySaleHappened
	if mutable {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}
	return data
}

type fixedFilter struct {
	name    string
	verdict Verdict
	err     error
	calls   int
}

func (f *fixedFilter) Name() string { return f.name }

func (f *fixedFilter) Check(context.Context, *domain.PoolKeys) (Verdict, error) {
	f.calls++
	return f.verdict, f.err
}

func TestPipeline_AllVerdictsReported(t *testing.T) {
	failing := &fixedFilter{name: "a", verdict: Verdict{Passed: false, Reason: "nope"}}
	passing := &fixedFilter{name: "b", verdict: Verdict{Passed: true}}
	erroring := &fixedFilter{name: "c", err: errors.New("rpc down")}

	p := NewPipeline(nil, failing, passing, erroring)
	result := p.Evaluate(context.Background(), poolKeys())

	require.Len(t, result.Verdicts, 3)
	require.False(t, result.Passed())
	require.Equal(t, 1, passing.calls, "no short-circuit: every filter runs")

	reasons := result.FailReasons()
	require.Len(t, reasons, 2)
	require.Contains(t, reasons, "a: nope")
	require.Contains(t, reasons, "c: rpc down")
}

func TestPipeline_EmptyPasses(t *testing.T) {
	p := NewPipeline(nil)
	require.True(t, p.Empty())
	require.True(t, p.Evaluate(context.Background(), poolKeys()).Passed())
}

func TestPipeline_MatchConsecutive(t *testing.T) {
	// Passes twice, fails once, then passes twice more: the failure resets
	// the streak, so three consecutive matches need the final run.
	seq := []bool{true, true, false, true, true, true}
	i := 0
	f := &seqFilter{results: seq, idx: &i}

	p := NewPipeline(nil, f)
	ok := p.MatchConsecutive(context.Background(), poolKeys(), time.Millisecond, time.Second, 3)
	require.True(t, ok)
	require.GreaterOrEqual(t, i, 6)
}

func TestPipeline_MatchConsecutiveTimesOut(t *testing.T) {
	f := &fixedFilter{name: "never", verdict: Verdict{Passed: false, Reason: "no"}}
	p := NewPipeline(nil, f)

	start := time.Now()
	ok := p.MatchConsecutive(context.Background(), poolKeys(), time.Millisecond, 50*time.Millisecond, 1)
	require.False(t, ok)
	require.Less(t, time.Since(start), time.Second)
}

type seqFilter struct {
	results []bool
	idx     *int
}

func (f *seqFilter) Name() string { return "seq" }

func (f *seqFilter) Check(context.Context, *domain.PoolKeys) (Verdict, error) {
	i := *f.idx
	*f.idx = i + 1
	if i < len(f.results) && f.results[i] {
		return Verdict{Passed: true}, nil
	}
	return Verdict{Passed: false, Reason: "seq"}, nil
}

func TestBurnFilter(t *testing.T) {
	rpc := stub.NewRPCClient()
	keys := poolKeys()
	f := NewBurnFilter(rpc)

	rpc.TokenSupplies[keys.LPMint] = &solana.TokenAmount{Amount: "0", Decimals: 9}
	v, err := f.Check(context.Background(), keys)
	require.NoError(t, err)
	require.True(t, v.Passed)

	rpc.TokenSupplies[keys.LPMint] = &solana.TokenAmount{Amount: "1000", Decimals: 9}
	v, err = f.Check(context.Background(), keys)
	require.NoError(t, err)
	require.False(t, v.Passed)

	delete(rpc.TokenSupplies, keys.LPMint)
	_, err = f.Check(context.Background(), keys)
	require.Error(t, err, "unevaluable filter must surface an error")
}

func TestRenouncedFilter(t *testing.T) {
	rpc := stub.NewRPCClient()
	keys := poolKeys()

	cases := []struct {
		name            string
		authorityOption uint32
		freezeOption    uint32
		checkRenounced  bool
		checkFreezable  bool
		wantPass        bool
	}{
		{"renounced and unfreezable", 0, 0, true, true, true},
		{"mint authority live", 1, 0, true, true, false},
		{"freeze authority live", 0, 1, true, true, false},
		{"freezable but check off", 0, 1, true, false, true},
		{"mintable but check off", 1, 0, false, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rpc.SetAccount(keys.BaseMint, &solana.AccountInfo{
				Data: mintData(tc.authorityOption, tc.freezeOption, 1000, 9),
			})
			f := NewRenouncedFilter(rpc, tc.checkRenounced, tc.checkFreezable)
			v, err := f.Check(context.Background(), keys)
			require.NoError(t, err)
			require.Equal(t, tc.wantPass, v.Passed)
		})
	}
}

func TestPoolSizeFilter_BoundsInclusive(t *testing.T) {
	rpc := stub.NewRPCClient()
	keys := poolKeys()
	f := NewPoolSizeFilter(rpc, 10, 1000)

	cases := []struct {
		size     float64
		wantPass bool
	}{
		{10, true},
		{9.999, false},
		{1000, true},
		{1000.001, false},
		{500, true},
	}
	for _, tc := range cases {
		rpc.SetTokenBalance(keys.QuoteVault, &solana.TokenAmount{UIAmount: tc.size, Decimals: 9})
		v, err := f.Check(context.Background(), keys)
		require.NoError(t, err)
		require.Equal(t, tc.wantPass, v.Passed, "size %g", tc.size)
	}
}

func TestPoolSizeFilter_ZeroBoundDisables(t *testing.T) {
	rpc := stub.NewRPCClient()
	keys := poolKeys()
	rpc.SetTokenBalance(keys.QuoteVault, &solana.TokenAmount{UIAmount: 1e12, Decimals: 9})

	noMax := NewPoolSizeFilter(rpc, 10, 0)
	v, err := noMax.Check(context.Background(), keys)
	require.NoError(t, err)
	require.True(t, v.Passed)

	rpc.SetTokenBalance(keys.QuoteVault, &solana.TokenAmount{UIAmount: 0.0001, Decimals: 9})
	noMin := NewPoolSizeFilter(rpc, 0, 1000)
	v, err = noMin.Check(context.Background(), keys)
	require.NoError(t, err)
	require.True(t, v.Passed)
}

func TestHoldersFilter_Concentration(t *testing.T) {
	rpc := stub.NewRPCClient()
	keys := poolKeys()

	rpc.LargestAccounts[keys.BaseMint] = []solana.LargestAccount{
		{Address: pk(0x10), UIAmount: 600},
		{Address: pk(0x11), UIAmount: 300},
		{Address: pk(0x12), UIAmount: 100},
	}

	strict := NewHoldersFilter(rpc, HoldersConfig{TopHolderMaxPct: 50})
	v, err := strict.Check(context.Background(), keys)
	require.NoError(t, err)
	require.False(t, v.Passed)

	loose := NewHoldersFilter(rpc, HoldersConfig{TopHolderMaxPct: 70})
	v, err = loose.Check(context.Background(), keys)
	require.NoError(t, err)
	require.True(t, v.Passed)
}

func TestHoldersFilter_ExcludedOwnerSkipped(t *testing.T) {
	rpc := stub.NewRPCClient()
	keys := poolKeys()
	vaultOwner := pk(0x20)

	// Largest account is the pool vault: excluded from the ranking, so the
	// second account (30%) becomes the top holder.
	vaultTokenAccount := make([]byte, codec.TokenAccountSize)
	ownerRaw, _ := base58.Decode(vaultOwner)
	copy(vaultTokenAccount[32:], ownerRaw)

	rpc.LargestAccounts[keys.BaseMint] = []solana.LargestAccount{
		{Address: pk(0x10), UIAmount: 600},
		{Address: pk(0x11), UIAmount: 300},
		{Address: pk(0x12), UIAmount: 100},
	}
	rpc.SetAccount(pk(0x10), &solana.AccountInfo{Data: vaultTokenAccount})

	f := NewHoldersFilter(rpc, HoldersConfig{
		TopHolderMaxPct: 50,
		ExcludedOwners:  map[string]bool{vaultOwner: true},
	})
	v, err := f.Check(context.Background(), keys)
	require.NoError(t, err)
	require.True(t, v.Passed)
}

func TestHoldersFilter_AbnormalDistribution(t *testing.T) {
	rpc := stub.NewRPCClient()
	keys := poolKeys()

	rpc.LargestAccounts[keys.BaseMint] = []solana.LargestAccount{
		{Address: pk(0x10), UIAmount: 250},
		{Address: pk(0x11), UIAmount: 250},
		{Address: pk(0x12), UIAmount: 250},
		{Address: pk(0x13), UIAmount: 100},
	}

	f := NewHoldersFilter(rpc, HoldersConfig{AbnormalCount: 3})
	v, err := f.Check(context.Background(), keys)
	require.NoError(t, err)
	require.False(t, v.Passed)

	tolerant := NewHoldersFilter(rpc, HoldersConfig{AbnormalCount: 4})
	v, err = tolerant.Check(context.Background(), keys)
	require.NoError(t, err)
	require.True(t, v.Passed)
}

func TestMetadataFilter(t *testing.T) {
	rpc := stub.NewRPCClient()
	keys := poolKeys()

	socials := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"extensions":{"twitter":"https://x.com/token"}}`))
	}))
	defer socials.Close()

	pda, err := solana.MetadataAddress(keys.BaseMint)
	require.NoError(t, err)

	rpc.SetAccount(pda, &solana.AccountInfo{
		Data: metadataData(t, pk(0x30), keys.BaseMint, socials.URL, false),
	})

	f := NewMetadataFilter(rpc, nil, MetadataConfig{CheckMutable: true, CheckSocials: true})
	v, err := f.Check(context.Background(), keys)
	require.NoError(t, err)
	require.True(t, v.Passed)

	// Mutable metadata fails.
	rpc.SetAccount(pda, &solana.AccountInfo{
		Data: metadataData(t, pk(0x30), keys.BaseMint, socials.URL, true),
	})
	v, err = f.Check(context.Background(), keys)
	require.NoError(t, err)
	require.False(t, v.Passed)

	// Blacklisted update authority fails regardless of other checks.
	rpc.SetAccount(pda, &solana.AccountInfo{
		Data: metadataData(t, pk(0x31), keys.BaseMint, socials.URL, false),
	})
	denied := NewMetadataFilter(rpc, nil, MetadataConfig{
		BlacklistedAuthorities: map[string]bool{pk(0x31): true},
	})
	v, err = denied.Check(context.Background(), keys)
	require.NoError(t, err)
	require.False(t, v.Passed)
}

func TestMetadataFilter_NoSocials(t *testing.T) {
	rpc := stub.NewRPCClient()
	keys := poolKeys()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":"Token","extensions":{}}`))
	}))
	defer empty.Close()

	pda, err := solana.MetadataAddress(keys.BaseMint)
	require.NoError(t, err)
	rpc.SetAccount(pda, &solana.AccountInfo{
		Data: metadataData(t, pk(0x30), keys.BaseMint, empty.URL, false),
	})

	f := NewMetadataFilter(rpc, nil, MetadataConfig{CheckSocials: true})
	v, err := f.Check(context.Background(), keys)
	require.NoError(t, err)
	require.False(t, v.Passed)
}
