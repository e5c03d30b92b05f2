package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	NetworkName string
	Network     *Network // nil if not specified
	SignerName  string

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool
	Timeout        time.Duration

	// Command-specific settings (only populated for relevant commands)
	DryRun           bool
	SkipVerification bool
	DeployFile       string
	VerifyFile       string

	// Resolved project file (lunex.toml)
	Project *ProjectConfig
}

// Network represents a resolved network profile
type Network struct {
	Name          string        `json:"name"`
	RPCURL        string        `json:"rpcUrl"`
	ChainID       uint64        `json:"chainId"`
	FinalityDepth uint64        `json:"finalityDepth,omitempty"`
	PollInterval  time.Duration `json:"pollInterval"`
	ExplorerURL   string        `json:"explorerUrl,omitempty"`
	Mainnet       bool          `json:"mainnet,omitempty"`
}
