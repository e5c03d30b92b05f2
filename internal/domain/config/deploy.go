package config

import "github.com/lunes-platform/lunex-cli/internal/domain/models"

// DeployConfig is the deployment configuration document
type DeployConfig struct {
	Contracts    []models.ContractSpec    `yaml:"contracts"`
	Integrations []models.IntegrationStep `yaml:"integrations,omitempty"`
	Listings     []models.TokenListing    `yaml:"listings,omitempty"`
}

// VerifyConfig is the expected on-chain configuration document
type VerifyConfig struct {
	Contracts map[string]ContractExpectation `yaml:"contracts" json:"contracts"`
	Links     []LinkExpectation              `yaml:"links,omitempty" json:"links,omitempty"`
}

// ContractExpectation lists the expected query results of one contract.
// Expected values may reference recorded addresses with "@name".
type ContractExpectation struct {
	Artifact   string            `yaml:"artifact,omitempty" json:"artifact,omitempty"`
	Address    string            `yaml:"address,omitempty" json:"address,omitempty"`
	Expect     map[string]string `yaml:"expect,omitempty" json:"expect,omitempty"`
	PauseQuery string            `yaml:"pause_query,omitempty" json:"pauseQuery,omitempty"`
	Smoke      string            `yaml:"smoke,omitempty" json:"smoke,omitempty"`
}

// LinkExpectation states that From.Query must return the address of To.
type LinkExpectation struct {
	From  string `yaml:"from" json:"from"`
	Query string `yaml:"query" json:"query"`
	To    string `yaml:"to" json:"to"`
}
