package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = `
[networks.local]
rpc_url = "${LUNEX_TEST_RPC}"
chain_id = 31337
finality_depth = 2
poll_interval = "500ms"

[networks.sepolia]
rpc_url = "https://sepolia.example"
mainnet = false

[signers.deployer]
type = "private_key"
private_key = "${LUNEX_TEST_KEY}"

[record]
backend = "file"
dir = "records"
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectFile), []byte(content), 0644))
	return root
}

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("network", "", "")
	cmd.Flags().String("signer", "", "")
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().Bool("non-interactive", false, "")
	return cmd
}

func TestProvider(t *testing.T) {
	t.Setenv("LUNEX_TEST_RPC", "http://127.0.0.1:8545")
	t.Setenv("LUNEX_TEST_KEY", "0xabc")
	root := writeProject(t, testProject)

	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("network", "local"))
	require.NoError(t, cmd.Flags().Set("dry-run", "true"))

	cfg, err := Provider(SetupViper(root, cmd))
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, DataDirName), cfg.DataDir)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)

	require.NotNil(t, cfg.Network)
	assert.Equal(t, "local", cfg.Network.Name)
	assert.Equal(t, "http://127.0.0.1:8545", cfg.Network.RPCURL)
	assert.Equal(t, uint64(31337), cfg.Network.ChainID)
	assert.Equal(t, uint64(2), cfg.Network.FinalityDepth)
	assert.Equal(t, 500*time.Millisecond, cfg.Network.PollInterval)

	assert.Equal(t, "0xabc", cfg.Project.Signers["deployer"].PrivateKey)
	assert.Equal(t, "records", cfg.Project.Record.Dir)
}

func TestProvider_LocalConfigDefaults(t *testing.T) {
	t.Setenv("LUNEX_TEST_RPC", "http://127.0.0.1:8545")
	root := writeProject(t, testProject)
	require.NoError(t, os.MkdirAll(filepath.Join(root, DataDirName), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, DataDirName, "config.local.json"),
		[]byte(`{"network":"sepolia","signer":"deployer"}`), 0644))

	t.Run("file supplies defaults", func(t *testing.T) {
		cfg, err := Provider(SetupViper(root, newTestCommand()))
		require.NoError(t, err)
		assert.Equal(t, "sepolia", cfg.NetworkName)
		assert.Equal(t, "deployer", cfg.SignerName)
		assert.Equal(t, DefaultPollInterval, cfg.Network.PollInterval)
	})

	t.Run("flag wins", func(t *testing.T) {
		cmd := newTestCommand()
		require.NoError(t, cmd.Flags().Set("network", "local"))
		cfg, err := Provider(SetupViper(root, cmd))
		require.NoError(t, err)
		assert.Equal(t, "local", cfg.NetworkName)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		t.Setenv("LUNEX_SIGNER", "other")
		cfg, err := Provider(SetupViper(root, newTestCommand()))
		require.NoError(t, err)
		assert.Equal(t, "other", cfg.SignerName)
	})
}

func TestProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		project string
		network string
		wantErr string
	}{
		{
			name:    "unknown network suggests",
			project: testProject,
			network: "sepola",
			wantErr: "did you mean sepolia?",
		},
		{
			name:    "unset rpc variable",
			project: testProject,
			network: "local",
			wantErr: "has no rpc_url",
		},
		{
			name:    "bad poll interval",
			project: "[networks.x]\nrpc_url = \"http://x\"\npoll_interval = \"soon\"\n",
			network: "x",
			wantErr: `invalid poll_interval "soon"`,
		},
		{
			name:    "unknown key",
			project: "[networks.x]\nrpc = \"http://x\"\n",
			wantErr: "unknown keys: networks.x.rpc",
		},
		{
			name:    "malformed toml",
			project: "[networks\n",
			wantErr: "failed to parse lunex.toml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LUNEX_TEST_RPC", "")
			root := writeProject(t, tt.project)
			cmd := newTestCommand()
			if tt.network != "" {
				require.NoError(t, cmd.Flags().Set("network", tt.network))
			}
			_, err := Provider(SetupViper(root, cmd))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := writeProject(t, "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := findProjectRootFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)

	_, err = findProjectRootFrom(t.TempDir())
	assert.ErrorContains(t, err, "not in a lunex project")
}

func TestLoadProject_EnvFiles(t *testing.T) {
	root := writeProject(t, "[signers.deployer]\nprivate_key = \"${LUNEX_DOTENV_KEY}\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env.local"), []byte("LUNEX_DOTENV_KEY=local\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("LUNEX_DOTENV_KEY=shared\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("LUNEX_DOTENV_KEY") })

	project, err := LoadProject(root)
	require.NoError(t, err)
	assert.Equal(t, "local", project.Signers["deployer"].PrivateKey)
}
