package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/samber/lo"
)

// LocalConfigStore persists per-checkout defaults
type LocalConfigStore interface {
	Exists() bool
	Load(ctx context.Context) (*config.LocalConfig, error)
	Save(ctx context.Context, cfg *config.LocalConfig) error
	GetPath() string
}

// ManageConfig shows and edits the local defaults used when a command
// omits its network or signer
type ManageConfig struct {
	store    LocalConfigStore
	resolver NetworkResolver
	signers  SignerSource
}

// NewManageConfig creates a new ManageConfig use case
func NewManageConfig(store LocalConfigStore, resolver NetworkResolver, signers SignerSource) *ManageConfig {
	return &ManageConfig{store: store, resolver: resolver, signers: signers}
}

// ConfigResult contains the local configuration after an operation
type ConfigResult struct {
	Config     *config.LocalConfig `json:"config"`
	ConfigPath string              `json:"configPath"`
	Exists     bool                `json:"exists"`
	Key        config.ConfigKey    `json:"key,omitempty"`
	Value      string              `json:"value,omitempty"`
}

// Show returns the current local configuration
func (uc *ManageConfig) Show(ctx context.Context) (*ConfigResult, error) {
	cfg, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &ConfigResult{Config: cfg, ConfigPath: uc.store.GetPath(), Exists: uc.store.Exists()}, nil
}

// Set validates and stores a default. Networks and signers must exist in
// the project file.
func (uc *ManageConfig) Set(ctx context.Context, rawKey, value string) (*ConfigResult, error) {
	key, err := parseKey(rawKey)
	if err != nil {
		return nil, err
	}

	switch key {
	case config.ConfigKeyNetwork:
		if !lo.Contains(uc.resolver.GetNetworks(ctx), value) {
			return nil, domain.NewValidationError("network", "%q is not defined in lunex.toml", value)
		}
	case config.ConfigKeySigner:
		if _, err := uc.signers.Signer(value); err != nil {
			return nil, err
		}
	}

	cfg, err := uc.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Set(key, value)
	if err := uc.store.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return &ConfigResult{Config: cfg, ConfigPath: uc.store.GetPath(), Exists: true, Key: key, Value: value}, nil
}

// Remove clears a default and returns the removed value
func (uc *ManageConfig) Remove(ctx context.Context, rawKey string) (*ConfigResult, error) {
	if !uc.store.Exists() {
		return nil, fmt.Errorf("no config file found at %s", uc.store.GetPath())
	}
	key, err := parseKey(rawKey)
	if err != nil {
		return nil, err
	}

	cfg, err := uc.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	removed := cfg.Get(key)
	cfg.Set(key, "")
	if err := uc.store.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return &ConfigResult{Config: cfg, ConfigPath: uc.store.GetPath(), Exists: true, Key: key, Value: removed}, nil
}

func parseKey(raw string) (config.ConfigKey, error) {
	key, ok := config.ParseConfigKey(raw)
	if !ok {
		valid := lo.Map(config.ValidConfigKeys(), func(k config.ConfigKey, _ int) string { return string(k) })
		return "", domain.NewValidationError("key", "unknown config key %q; available keys: %s", raw, strings.Join(valid, ", "))
	}
	return key, nil
}
