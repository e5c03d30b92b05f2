package localconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// FileName is read by viper as well, so stored defaults apply to every command
const FileName = "config.local.json"

// Store implements usecase.LocalConfigStore on the file system
type Store struct {
	configPath string
}

// NewStore creates a new local config store in the data directory
func NewStore(cfg *config.RuntimeConfig) *Store {
	return &Store{configPath: filepath.Join(cfg.DataDir, FileName)}
}

// Exists checks if the config file exists
func (s *Store) Exists() bool {
	_, err := os.Stat(s.configPath)
	return err == nil
}

// Load reads the file, returning empty defaults when it is missing
func (s *Store) Load(ctx context.Context) (*config.LocalConfig, error) {
	data, err := os.ReadFile(s.configPath)
	if errors.Is(err, os.ErrNotExist) {
		return &config.LocalConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var local config.LocalConfig
	if err := json.Unmarshal(data, &local); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &local, nil
}

// Save writes the configuration to the file
func (s *Store) Save(ctx context.Context, local *config.LocalConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(local, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(s.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetPath returns the path to the config file
func (s *Store) GetPath() string {
	return s.configPath
}

var _ usecase.LocalConfigStore = (*Store)(nil)
