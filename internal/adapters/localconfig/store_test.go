package localconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	dataDir := filepath.Join(t.TempDir(), ".lunex")
	store := NewStore(&config.RuntimeConfig{DataDir: dataDir})

	assert.False(t, store.Exists())
	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, &config.LocalConfig{}, empty)

	require.NoError(t, store.Save(ctx, &config.LocalConfig{Network: "testnet"}))
	assert.True(t, store.Exists())
	assert.Equal(t, filepath.Join(dataDir, FileName), store.GetPath())

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "testnet", loaded.Network)

	require.NoError(t, os.WriteFile(store.GetPath(), []byte("nope"), 0644))
	_, err = store.Load(ctx)
	assert.ErrorContains(t, err, "failed to parse config file")
}
