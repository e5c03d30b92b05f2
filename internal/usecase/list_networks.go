package usecase

import (
	"context"
)

// ListNetworksResult contains the configured network profiles
type ListNetworksResult struct {
	Current  string          `json:"current,omitempty"`
	Networks []NetworkStatus `json:"networks"`
}

// NetworkStatus represents the status of a network profile
type NetworkStatus struct {
	Name     string `json:"name"`
	RPCURL   string `json:"rpcUrl,omitempty"`
	ChainID  uint64 `json:"chainId,omitempty"`
	Mainnet  bool   `json:"mainnet,omitempty"`
	Deployed int    `json:"deployed"`
	Error    error  `json:"-"`
}

// ListNetworks lists network profiles and how much of the protocol is
// recorded on each of them
type ListNetworks struct {
	resolver NetworkResolver
	store    RecordStore
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(resolver NetworkResolver, store RecordStore) *ListNetworks {
	return &ListNetworks{
		resolver: resolver,
		store:    store,
	}
}

// Run resolves every configured network. Resolution failures are reported
// per network instead of failing the listing.
func (uc *ListNetworks) Run(ctx context.Context, current string) (*ListNetworksResult, error) {
	names := uc.resolver.GetNetworks(ctx)

	networks := make([]NetworkStatus, 0, len(names))
	for _, name := range names {
		status := NetworkStatus{Name: name}

		info, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err
			networks = append(networks, status)
			continue
		}
		status.RPCURL = info.RPCURL
		status.ChainID = info.ChainID
		status.Mainnet = info.Mainnet

		if record, err := uc.store.Load(ctx, name); err == nil {
			status.Deployed = len(record.Addresses())
		}
		networks = append(networks, status)
	}

	return &ListNetworksResult{Current: current, Networks: networks}, nil
}
