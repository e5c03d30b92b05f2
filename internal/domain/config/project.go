package config

// ProjectConfig represents lunex.toml after environment expansion
type ProjectConfig struct {
	Networks   map[string]NetworkProfile `toml:"networks"`
	Signers    map[string]SignerConfig   `toml:"signers"`
	Record     RecordConfig              `toml:"record"`
	Artifacts  ArtifactsConfig           `toml:"artifacts"`
	Governance GovernanceConfig          `toml:"governance"`
	Metrics    MetricsConfig             `toml:"metrics"`
}

// NetworkProfile is a named network entry
type NetworkProfile struct {
	RPCURL  string `toml:"rpc_url"`
	ChainID uint64 `toml:"chain_id,omitempty"`
	// FinalityDepth of 0 uses the node's "finalized" block tag.
	FinalityDepth uint64 `toml:"finality_depth,omitempty"`
	PollInterval  string `toml:"poll_interval,omitempty"`
	Explorer      string `toml:"explorer,omitempty"`
	Mainnet       bool   `toml:"mainnet,omitempty"`
}

// SignerType is the kind of key material backing a signer
type SignerType string

const (
	SignerTypePrivateKey SignerType = "private_key"
)

// SignerConfig is a named signer entry
type SignerConfig struct {
	Type       SignerType `toml:"type,omitempty"`
	PrivateKey string     `toml:"private_key,omitempty"`
}

// RecordBackend selects where deployment records live
type RecordBackend string

const (
	RecordBackendFile     RecordBackend = "file"
	RecordBackendPostgres RecordBackend = "postgres"
)

// RecordConfig configures the deployment record store
type RecordConfig struct {
	Backend RecordBackend `toml:"backend,omitempty"`
	Dir     string        `toml:"dir,omitempty"`
	DSN     string        `toml:"dsn,omitempty"`
}

// ArtifactsConfig points at the compiled contract bundle
type ArtifactsConfig struct {
	Path string `toml:"path,omitempty"`
}

// GovernanceConfig holds client-side governance thresholds
type GovernanceConfig struct {
	// MinProposalPower is a base-unit integer string.
	MinProposalPower string `toml:"min_proposal_power,omitempty"`
}

// MetricsConfig configures the Prometheus textfile export
type MetricsConfig struct {
	Textfile string `toml:"textfile,omitempty"`
}
