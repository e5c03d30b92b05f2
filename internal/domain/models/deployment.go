package models

import (
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DeployedContract is one entry of the deployment record. Address is only
// set from a finalized instantiation without a dispatch error.
type DeployedContract struct {
	Name          string         `json:"name"`
	Artifact      string         `json:"artifact"`
	Address       common.Address `json:"address"`
	TransactionID common.Hash    `json:"transactionId"`
	BlockNumber   uint64         `json:"blockNumber,omitempty"`
	Finalized     bool           `json:"finalized"`
	DeployedAt    time.Time      `json:"deployedAt"`
}

// StepRecord tracks a completed integration or listing step.
type StepRecord struct {
	Key           string      `json:"key"`
	TransactionID common.Hash `json:"transactionId,omitempty"`
	Finalized     bool        `json:"finalized"`
	// AlreadySet is true when the on-chain value matched and no call was made.
	AlreadySet  bool      `json:"alreadySet,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// DeploymentRecord is the persistent, append-only map of deployed contracts
// for one network.
type DeploymentRecord struct {
	Network      string                       `json:"network"`
	ChainID      uint64                       `json:"chainId"`
	Contracts    map[string]*DeployedContract `json:"contracts"`
	Integrations map[string]*StepRecord       `json:"integrations,omitempty"`
	Listings     map[string]*StepRecord       `json:"listings,omitempty"`
	UpdatedAt    time.Time                    `json:"updatedAt"`
}

// NewDeploymentRecord creates an empty record for a network.
func NewDeploymentRecord(network string, chainID uint64) *DeploymentRecord {
	r := &DeploymentRecord{Network: network, ChainID: chainID}
	r.ensureMaps()
	return r
}

func (r *DeploymentRecord) ensureMaps() {
	if r.Contracts == nil {
		r.Contracts = make(map[string]*DeployedContract)
	}
	if r.Integrations == nil {
		r.Integrations = make(map[string]*StepRecord)
	}
	if r.Listings == nil {
		r.Listings = make(map[string]*StepRecord)
	}
}

// Normalize initializes nil maps after decoding.
func (r *DeploymentRecord) Normalize() {
	r.ensureMaps()
}

// IsFinalized reports whether the named contract has a finalized entry.
func (r *DeploymentRecord) IsFinalized(name string) bool {
	c, ok := r.Contracts[name]
	return ok && c.Finalized
}

// Append adds or replaces a pending entry. Finalized entries are never overwritten.
func (r *DeploymentRecord) Append(c *DeployedContract) bool {
	r.ensureMaps()
	if r.IsFinalized(c.Name) {
		return false
	}
	r.Contracts[c.Name] = c
	r.UpdatedAt = time.Now().UTC()
	return true
}

// Address returns the finalized address of the named contract.
func (r *DeploymentRecord) Address(name string) (common.Address, bool) {
	c, ok := r.Contracts[name]
	if !ok || !c.Finalized {
		return common.Address{}, false
	}
	return c.Address, true
}

// Addresses returns all finalized addresses keyed by contract name.
func (r *DeploymentRecord) Addresses() map[string]common.Address {
	out := make(map[string]common.Address, len(r.Contracts))
	for name, c := range r.Contracts {
		if c.Finalized {
			out[name] = c.Address
		}
	}
	return out
}

// Names returns the recorded contract names sorted.
func (r *DeploymentRecord) Names() []string {
	names := make([]string, 0, len(r.Contracts))
	for name := range r.Contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarkIntegration records a completed integration step.
func (r *DeploymentRecord) MarkIntegration(step *StepRecord) {
	r.ensureMaps()
	r.Integrations[step.Key] = step
	r.UpdatedAt = time.Now().UTC()
}

// MarkListing records a completed token listing.
func (r *DeploymentRecord) MarkListing(step *StepRecord) {
	r.ensureMaps()
	r.Listings[step.Key] = step
	r.UpdatedAt = time.Now().UTC()
}

// IntegrationDone reports whether the step already completed.
func (r *DeploymentRecord) IntegrationDone(key string) bool {
	s, ok := r.Integrations[key]
	return ok && s.Finalized
}

// ListingDone reports whether the token listing already completed.
func (r *DeploymentRecord) ListingDone(key string) bool {
	s, ok := r.Listings[key]
	return ok && s.Finalized
}
