package record_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lunes-platform/lunex-cli/internal/adapters/repository/record"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("missing record is empty", func(t *testing.T) {
		store, err := record.NewFileRepository(t.TempDir(), "", testLogger())
		require.NoError(t, err)

		r, err := store.Load(ctx, "testnet")
		require.NoError(t, err)
		assert.Equal(t, "testnet", r.Network)
		assert.Empty(t, r.Contracts)
		assert.NotNil(t, r.Integrations)
	})

	t.Run("save and load", func(t *testing.T) {
		root := t.TempDir()
		store, err := record.NewFileRepository(root, "", testLogger())
		require.NoError(t, err)

		r := models.NewDeploymentRecord("testnet", 31337)
		r.Append(&models.DeployedContract{
			Name:          "factory",
			Artifact:      "factory",
			Address:       common.HexToAddress("0x1"),
			TransactionID: common.HexToHash("0xabc"),
			BlockNumber:   7,
			Finalized:     true,
		})
		r.MarkIntegration(&models.StepRecord{Key: "rewards.set_staking_contract", Finalized: true})
		require.NoError(t, store.Save(ctx, r))

		assert.FileExists(t, filepath.Join(root, record.DefaultRecordDir, "testnet.json"))
		assert.NoFileExists(t, filepath.Join(root, record.DefaultRecordDir, "testnet.json.tmp"))

		loaded, err := store.Load(ctx, "testnet")
		require.NoError(t, err)
		assert.Equal(t, uint64(31337), loaded.ChainID)
		assert.True(t, loaded.IsFinalized("factory"))
		assert.Equal(t, uint64(7), loaded.Contracts["factory"].BlockNumber)
		assert.True(t, loaded.IntegrationDone("rewards.set_staking_contract"))
		assert.False(t, loaded.UpdatedAt.IsZero())
	})

	t.Run("custom directory", func(t *testing.T) {
		root := t.TempDir()
		store, err := record.NewFileRepository(root, "records", testLogger())
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, models.NewDeploymentRecord("local", 1)))
		assert.FileExists(t, filepath.Join(root, "records", "local.json"))
	})

	t.Run("corrupt record", func(t *testing.T) {
		root := t.TempDir()
		store, err := record.NewFileRepository(root, "", testLogger())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(root, record.DefaultRecordDir, "local.json"), []byte("{"), 0644))

		_, err = store.Load(ctx, "local")
		assert.ErrorContains(t, err, "failed to parse record")
	})

	t.Run("unsafe network name", func(t *testing.T) {
		store, err := record.NewFileRepository(t.TempDir(), "", testLogger())
		require.NoError(t, err)

		_, err = store.Load(ctx, "../etc")
		var verr *domain.ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}

func TestFileRepository_Lock(t *testing.T) {
	ctx := context.Background()
	store, err := record.NewFileRepository(t.TempDir(), "", testLogger())
	require.NoError(t, err)

	unlock, err := store.Lock(ctx, "testnet")
	require.NoError(t, err)

	_, err = store.Lock(ctx, "testnet")
	assert.ErrorIs(t, err, domain.ErrRecordLocked)

	other, err := store.Lock(ctx, "mainnet")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := store.Lock(ctx, "testnet")
	require.NoError(t, err)
	again()
}

func TestNewRecordStore(t *testing.T) {
	tests := []struct {
		name    string
		record  config.RecordConfig
		wantErr string
	}{
		{name: "default is file"},
		{name: "explicit file", record: config.RecordConfig{Backend: config.RecordBackendFile, Dir: "out"}},
		{name: "postgres without dsn", record: config.RecordConfig{Backend: config.RecordBackendPostgres}, wantErr: "requires record.dsn"},
		{name: "unknown backend", record: config.RecordConfig{Backend: "s3"}, wantErr: `unknown record backend "s3"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.RuntimeConfig{ProjectRoot: t.TempDir(), Project: &config.ProjectConfig{Record: tt.record}}
			store, cleanup, err := record.NewRecordStore(cfg, testLogger())
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer cleanup()
			assert.IsType(t, &record.FileRepository{}, store)
		})
	}
}
