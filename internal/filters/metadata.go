package filters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"solana-sniper/internal/codec"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// MetadataConfig tunes the metadata checks.
type MetadataConfig struct {
	// CheckMutable rejects tokens whose metadata can still be changed.
	CheckMutable bool
	// CheckSocials rejects tokens whose off-chain metadata carries no
	// social links.
	CheckSocials bool
	// BlacklistedAuthorities rejects tokens whose update authority is on
	// this list.
	BlacklistedAuthorities map[string]bool
}

// MetadataFilter inspects the Metaplex metadata of the base mint: mutability,
// off-chain social links and a deny-list of update authorities.
type MetadataFilter struct {
	rpc  solana.RPCClient
	http *http.Client
	cfg  MetadataConfig
}

var _ Filter = (*MetadataFilter)(nil)

func NewMetadataFilter(rpc solana.RPCClient, httpClient *http.Client, cfg MetadataConfig) *MetadataFilter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MetadataFilter{rpc: rpc, http: httpClient, cfg: cfg}
}

func (f *MetadataFilter) Name() string { return "metadata" }

func (f *MetadataFilter) Check(ctx context.Context, keys *domain.PoolKeys) (Verdict, error) {
	pda, err := solana.MetadataAddress(keys.BaseMint)
	if err != nil {
		return Verdict{}, fmt.Errorf("derive metadata address: %w", err)
	}

	info, err := f.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		return Verdict{}, fmt.Errorf("fetch metadata: %w", err)
	}
	if info == nil {
		return Verdict{}, fmt.Errorf("metadata account %s not found", pda)
	}

	md, err := codec.DecodeTokenMetadata(info.Data)
	if err != nil {
		return Verdict{}, err
	}

	if f.cfg.BlacklistedAuthorities[md.UpdateAuthority] {
		return Verdict{Passed: false, Reason: "update authority " + md.UpdateAuthority + " is blacklisted"}, nil
	}

	var problems []string
	if f.cfg.CheckMutable && md.IsMutable {
		problems = append(problems, "metadata can be changed")
	}
	if f.cfg.CheckSocials {
		hasSocials, err := f.hasSocials(ctx, md.URI)
		if err != nil {
			return Verdict{}, fmt.Errorf("check socials: %w", err)
		}
		if !hasSocials {
			problems = append(problems, "has no socials")
		}
	}

	if len(problems) > 0 {
		return Verdict{Passed: false, Reason: strings.Join(problems, "; ")}, nil
	}
	return Verdict{Passed: true}, nil
}

// hasSocials fetches the off-chain metadata JSON and reports whether any
// social link field is populated, either top-level or under extensions.
func (f *MetadataFilter) hasSocials(ctx context.Context, uri string) (bool, error) {
	if uri == "" {
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return false, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("metadata uri returned %d", resp.StatusCode)
	}

	var doc struct {
		Twitter    string            `json:"twitter"`
		Telegram   string            `json:"telegram"`
		Website    string            `json:"website"`
		Extensions map[string]string `json:"extensions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return false, fmt.Errorf("decode metadata json: %w", err)
	}

	if doc.Twitter != "" || doc.Telegram != "" || doc.Website != "" {
		return true, nil
	}
	for _, v := range doc.Extensions {
		if v != "" {
			return true, nil
		}
	}
	return false, nil
}
