package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/sahilm/fuzzy"
)

const (
	DefaultPollInterval = 2 * time.Second
	chainIDTimeout      = 10 * time.Second
	chainIDCacheFile    = "chain-ids.json"
)

// NetworkResolver resolves the [networks] profiles of lunex.toml. Chain ids
// that are not configured are fetched once per RPC URL and cached.
type NetworkResolver struct {
	profiles  map[string]config.NetworkProfile
	cachePath string

	mu    sync.Mutex
	cache map[string]uint64 // rpc url -> chain id
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(cfg *config.RuntimeConfig) *NetworkResolver {
	r := &NetworkResolver{
		profiles: map[string]config.NetworkProfile{},
		cache:    map[string]uint64{},
	}
	if cfg.Project != nil && cfg.Project.Networks != nil {
		r.profiles = cfg.Project.Networks
	}
	if cfg.DataDir != "" {
		r.cachePath = filepath.Join(cfg.DataDir, "cache", chainIDCacheFile)
		r.loadCache()
	}
	return r
}

// GetNetworks returns the configured network names sorted
func (r *NetworkResolver) GetNetworks(ctx context.Context) []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile resolves a network without touching the endpoint. ChainID is
// zero unless it is configured or cached.
func (r *NetworkResolver) Profile(name string) (*config.Network, error) {
	p, ok := r.profiles[name]
	if !ok {
		return nil, domain.NewValidationError("network", "%q is not defined in %s%s", name, ProjectFile, r.suggest(name))
	}
	if p.RPCURL == "" {
		return nil, domain.NewValidationError("network", "%q has no rpc_url; is its environment variable set?", name)
	}

	interval := DefaultPollInterval
	if p.PollInterval != "" {
		d, err := time.ParseDuration(p.PollInterval)
		if err != nil || d <= 0 {
			return nil, domain.NewValidationError("network", "%q has invalid poll_interval %q", name, p.PollInterval)
		}
		interval = d
	}

	chainID := p.ChainID
	if chainID == 0 {
		r.mu.Lock()
		chainID = r.cache[p.RPCURL]
		r.mu.Unlock()
	}

	return &config.Network{
		Name:          name,
		RPCURL:        p.RPCURL,
		ChainID:       chainID,
		FinalityDepth: p.FinalityDepth,
		PollInterval:  interval,
		ExplorerURL:   explorerURL(p.Explorer, chainID),
		Mainnet:       p.Mainnet,
	}, nil
}

// ResolveNetwork resolves a network and makes sure its chain id is known,
// asking the endpoint when it is not configured.
func (r *NetworkResolver) ResolveNetwork(ctx context.Context, name string) (*config.Network, error) {
	network, err := r.Profile(name)
	if err != nil {
		return nil, err
	}
	if network.ChainID != 0 {
		return network, nil
	}

	chainID, err := fetchChainID(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain ID for network %s: %w", name, err)
	}
	r.updateCache(network.RPCURL, chainID)

	network.ChainID = chainID
	network.ExplorerURL = explorerURL(r.profiles[name].Explorer, chainID)
	return network, nil
}

func (r *NetworkResolver) suggest(name string) string {
	matches := fuzzy.Find(name, r.GetNetworks(context.Background()))
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf("; did you mean %s?", matches[0].Str)
}

// fetchChainID asks the endpoint for eth_chainId
func fetchChainID(ctx context.Context, rpcURL string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, chainIDTimeout)
	defer cancel()

	client, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return 0, &domain.ConnectionError{Endpoint: rpcURL, Err: err}
	}
	defer client.Close()

	var chainID hexutil.Uint64
	if err := client.CallContext(ctx, &chainID, "eth_chainId"); err != nil {
		return 0, &domain.ConnectionError{Endpoint: rpcURL, Err: err}
	}
	if chainID == 0 {
		return 0, fmt.Errorf("empty chain ID response")
	}
	return uint64(chainID), nil
}

// explorerURL prefers the configured explorer, then a known default
func explorerURL(configured string, chainID uint64) string {
	if configured != "" {
		return configured
	}
	switch chainID {
	case 1:
		return "https://etherscan.io"
	case 11155111:
		return "https://sepolia.etherscan.io"
	default:
		return ""
	}
}

// loadCache reads the chain id cache; a missing or broken cache starts empty
func (r *NetworkResolver) loadCache() {
	data, err := os.ReadFile(r.cachePath)
	if err != nil {
		return
	}
	var cached map[string]uint64
	if err := json.Unmarshal(data, &cached); err != nil {
		return
	}
	r.cache = cached
}

// updateCache records a chain id and saves the cache, ignoring write errors
func (r *NetworkResolver) updateCache(rpcURL string, chainID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache[rpcURL] = chainID
	if r.cachePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.cachePath), 0755); err != nil {
		return
	}
	data, err := json.MarshalIndent(r.cache, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(r.cachePath, data, 0644)
}
