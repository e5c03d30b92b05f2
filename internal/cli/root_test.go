package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const cliProject = `
[networks.local]
rpc_url = "http://127.0.0.1:1"
chain_id = 31337

[networks.testnet]
rpc_url = "http://127.0.0.1:2"
chain_id = 5

[signers.deployer]
type = "private_key"
private_key = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
`

// newProject creates a project and makes it the working directory
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lunex.toml"), []byte(cliProject), 0644))
	t.Chdir(root)
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--non-interactive"))

	s := &session{}
	defer s.close()
	err := cmd.ExecuteContext(context.WithValue(context.Background(), sessionKey, s))
	return out.String(), err
}

func TestRootCmd_Commands(t *testing.T) {
	root := NewRootCmd()
	groups := map[string]string{}
	for _, c := range root.Commands() {
		groups[c.Name()] = c.GroupID
	}

	expected := map[string]string{
		"deploy":           "deployment",
		"verify":           "deployment",
		"list-token":       "deployment",
		"add-liquidity":    "deployment",
		"create-proposal":  "governance",
		"vote":             "governance",
		"check-proposal":   "governance",
		"execute-proposal": "governance",
		"networks":         "management",
		"config":           "management",
		"version":          "",
	}
	for name, group := range expected {
		got, ok := groups[name]
		if assert.True(t, ok, "missing command %s", name) {
			assert.Equal(t, group, got, name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lunex version dev")
}

func TestOutsideProject(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := execute(t, "networks")
	assert.ErrorContains(t, err, "not in a lunex project")
}

func TestConfigWorkflow(t *testing.T) {
	root := newProject(t)

	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "No .lunex/config.local.json file found")

	out, err = execute(t, "config", "set", "network", "local")
	require.NoError(t, err)
	assert.Contains(t, out, "Set network to: local")
	assert.FileExists(t, filepath.Join(root, ".lunex", "config.local.json"))

	_, err = execute(t, "config", "set", "signer", "deployer")
	require.NoError(t, err)

	out, err = execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "Network: local")
	assert.Contains(t, out, "Signer:  deployer")

	_, err = execute(t, "config", "set", "network", "mainnet")
	assert.ErrorContains(t, err, `"mainnet" is not defined`)

	_, err = execute(t, "config", "set", "signer", "nobody")
	assert.ErrorContains(t, err, `"nobody" is not configured`)

	_, err = execute(t, "config", "set", "namespace", "x")
	assert.ErrorContains(t, err, "unknown config key")

	out, err = execute(t, "config", "remove", "signer")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed signer (was: deployer)")
}

func TestNetworksCmd_JSON(t *testing.T) {
	newProject(t)
	_, err := execute(t, "config", "set", "network", "testnet")
	require.NoError(t, err)

	out, err := execute(t, "networks", "--json")
	require.NoError(t, err)

	var result struct {
		Current  string `json:"current"`
		Networks []struct {
			Name     string `json:"name"`
			ChainID  uint64 `json:"chainId"`
			Deployed int    `json:"deployed"`
		} `json:"networks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "testnet", result.Current)
	require.Len(t, result.Networks, 2)
	assert.Equal(t, "local", result.Networks[0].Name)
	assert.Equal(t, uint64(31337), result.Networks[0].ChainID)
	assert.Equal(t, uint64(5), result.Networks[1].ChainID)
}

func TestCommandValidation(t *testing.T) {
	newProject(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "deploy needs network and signer",
			args:    []string{"deploy", "local"},
			wantErr: "accepts 2 arg(s)",
		},
		{
			name:    "deploy unknown network",
			args:    []string{"deploy", "locl", "deployer"},
			wantErr: "did you mean local?",
		},
		{
			name:    "deploy without configuration file",
			args:    []string{"deploy", "local", "deployer"},
			wantErr: "deploy.yaml",
		},
		{
			name:    "vote needs a direction",
			args:    []string{"vote", "1", "-n", "local", "-s", "deployer"},
			wantErr: "at least one of the flags",
		},
		{
			name:    "vote both directions",
			args:    []string{"vote", "1", "--for", "--against"},
			wantErr: "were all set",
		},
		{
			name:    "vote without signer",
			args:    []string{"vote", "1", "--for", "-n", "local"},
			wantErr: "no signer selected",
		},
		{
			name:    "proposal id must be numeric",
			args:    []string{"check-proposal", "abc", "-n", "local"},
			wantErr: `"abc" is not a number`,
		},
		{
			name:    "check proposal without network",
			args:    []string{"check-proposal", "1"},
			wantErr: "no network selected",
		},
		{
			name:    "add liquidity bad token",
			args:    []string{"add-liquidity", "0x12", "1", "1", "-n", "local", "-s", "deployer"},
			wantErr: `"0x12" is not an address`,
		},
		{
			name:    "add liquidity zero amount",
			args:    []string{"add-liquidity", "0x00000000000000000000000000000000000000aa", "0", "1", "-n", "local", "-s", "deployer"},
			wantErr: "must be positive",
		},
		{
			name:    "list token missing file",
			args:    []string{"list-token", "listings.yaml", "-n", "local", "-s", "deployer"},
			wantErr: "failed to read",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestBindArgs(t *testing.T) {
	cmd := NewDeployCmd()
	cmd.Flags().String("network", "", "")
	cmd.Flags().String("signer", "", "")

	require.NoError(t, bindArgs(cmd, []string{"testnet", "deployer"}))
	network, _ := cmd.Flags().GetString("network")
	signer, _ := cmd.Flags().GetString("signer")
	assert.Equal(t, "testnet", network)
	assert.Equal(t, "deployer", signer)
	assert.True(t, cmd.Flags().Changed("network"))

	assert.Equal(t, []string{"network"}, splitAnnotation("network,"))
	assert.Empty(t, splitAnnotation(""))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"0", "0", true},
		{"1000000000000000000000", "1000000000000000000000", true},
		{"-1", "", false},
		{"1e18", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := parseAmount("amount", tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestSelectNetwork(t *testing.T) {
	t.Run("keeps selected network", func(t *testing.T) {
		root := newProject(t)
		v := viper.New()
		v.Set("network", "testnet")
		require.NoError(t, selectNetwork(v, root))
		assert.Equal(t, "testnet", v.GetString("network"))
	})

	t.Run("non-interactive leaves it unset", func(t *testing.T) {
		root := newProject(t)
		v := viper.New()
		v.Set("non_interactive", true)
		require.NoError(t, selectNetwork(v, root))
		assert.Empty(t, v.GetString("network"))
	})

	t.Run("single profile is picked without asking", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "lunex.toml"), []byte("[networks.local]\nrpc_url = \"http://127.0.0.1:1\"\n"), 0644))
		v := viper.New()
		require.NoError(t, selectNetwork(v, root))
		assert.Equal(t, "local", v.GetString("network"))
	})
}

func TestNeedsNetwork(t *testing.T) {
	root := NewRootCmd()
	for _, c := range root.Commands() {
		want := c.Name() != "networks" && c.Name() != "config" && c.Name() != "version"
		assert.Equal(t, want, needsNetwork(c), c.Name())
	}
}
