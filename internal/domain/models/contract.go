package models

import "strings"

// RefPrefix marks a constructor or setter argument that refers to the
// recorded address of another contract, e.g. "@factory".
const RefPrefix = "@"

// ResourceBudget caps the resources a deployment may consume. Zero means unlimited.
type ResourceBudget struct {
	MaxGas          uint64 `yaml:"max_gas,omitempty" json:"maxGas,omitempty"`
	MaxStorageBytes uint64 `yaml:"max_storage_bytes,omitempty" json:"maxStorageBytes,omitempty"`
}

// ContractSpec describes one contract to deploy.
type ContractSpec struct {
	Name            string         `yaml:"name" json:"name"`
	Artifact        string         `yaml:"artifact,omitempty" json:"artifact,omitempty"`
	ConstructorArgs []string       `yaml:"args,omitempty" json:"args,omitempty"`
	DependsOn       []string       `yaml:"depends_on,omitempty" json:"dependsOn,omitempty"`
	Budget          ResourceBudget `yaml:"budget,omitempty" json:"budget,omitempty"`
	Value           string         `yaml:"value,omitempty" json:"value,omitempty"`
}

// ArtifactName returns the compiled artifact used for the contract.
func (s ContractSpec) ArtifactName() string {
	if s.Artifact != "" {
		return s.Artifact
	}
	return s.Name
}

// References returns the contract names referenced by constructor arguments.
func (s ContractSpec) References() []string {
	return References(s.ConstructorArgs)
}

// DeploymentPlan is an ordered list of contracts where every dependency
// appears before its dependents.
type DeploymentPlan struct {
	Contracts []ContractSpec
}

// Names returns the contract names in plan order.
func (p *DeploymentPlan) Names() []string {
	names := make([]string, len(p.Contracts))
	for i, c := range p.Contracts {
		names[i] = c.Name
	}
	return names
}

// IntegrationStep is a post-deploy setter call that wires contracts together.
// When Getter is set the step is skipped if the getter already returns the
// first argument.
type IntegrationStep struct {
	Name     string   `yaml:"name,omitempty" json:"name,omitempty"`
	Contract string   `yaml:"contract" json:"contract"`
	Setter   string   `yaml:"setter" json:"setter"`
	Args     []string `yaml:"args,omitempty" json:"args,omitempty"`
	Getter   string   `yaml:"getter,omitempty" json:"getter,omitempty"`
}

// Key identifies the step in the deployment record.
func (s IntegrationStep) Key() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Contract + "." + s.Setter
}

// TokenListing is a token approved for trading by the admin listing path.
type TokenListing struct {
	Token  string `yaml:"token" json:"token"`
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// IsRef reports whether the argument references another contract.
func IsRef(arg string) bool {
	return strings.HasPrefix(arg, RefPrefix) && len(arg) > len(RefPrefix)
}

// RefName strips the reference prefix.
func RefName(arg string) string {
	return strings.TrimPrefix(arg, RefPrefix)
}

// References returns the referenced contract names in argument order.
func References(args []string) []string {
	var refs []string
	for _, a := range args {
		if IsRef(a) {
			refs = append(refs, RefName(a))
		}
	}
	return refs
}
