package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDeployConfig(t *testing.T) {
	path := writeDoc(t, `
contracts:
  - name: token
    artifact: wnative
  - name: router
    args: ["@factory", "@token"]
    depends_on: [factory, token]
    budget:
      max_gas: 3000000
  - name: factory
integrations:
  - contract: rewards
    setter: set_staking_contract
    args: ["@staking"]
    getter: staking_contract
listings:
  - token: "@token"
    reason: native wrapper
`)
	doc, err := LoadDeployConfig(path)
	require.NoError(t, err)
	require.Len(t, doc.Contracts, 3)
	assert.Equal(t, "wnative", doc.Contracts[0].Artifact)
	assert.Equal(t, []string{"factory", "token"}, doc.Contracts[1].DependsOn)
	assert.Equal(t, uint64(3000000), doc.Contracts[1].Budget.MaxGas)
	require.Len(t, doc.Integrations, 1)
	assert.Equal(t, "staking_contract", doc.Integrations[0].Getter)
	require.Len(t, doc.Listings, 1)
	assert.Equal(t, "@token", doc.Listings[0].Token)
}

func TestLoadDeployConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "empty", content: "", wantErr: "is empty"},
		{name: "no contracts", content: "contracts: []\n", wantErr: "declares no contracts"},
		{name: "unknown field", content: "contracts:\n  - name: a\n    gas: 1\n", wantErr: "field gas not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDeployConfig(writeDoc(t, tt.content))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := LoadDeployConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read")
}

func TestLoadVerifyConfig(t *testing.T) {
	doc, err := LoadVerifyConfig(writeDoc(t, `
contracts:
  staking:
    expect:
      owner: "@governance"
    pause_query: paused
    smoke: total_staked
links:
  - from: router
    query: factory
    to: factory
`))
	require.NoError(t, err)
	assert.Equal(t, "@governance", doc.Contracts["staking"].Expect["owner"])
	assert.Equal(t, "paused", doc.Contracts["staking"].PauseQuery)
	require.Len(t, doc.Links, 1)
	assert.Equal(t, "factory", doc.Links[0].To)
}

func TestLoadListings(t *testing.T) {
	listings, err := LoadListings(writeDoc(t, `
contracts:
  - name: token
listings:
  - token: "@token"
  - token: "0x00000000000000000000000000000000000000aa"
    reason: bridged stable
`))
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "bridged stable", listings[1].Reason)

	_, err = LoadListings(writeDoc(t, "listings: []\n"))
	assert.ErrorContains(t, err, "declares no listings")
}
