package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DataDirName holds local state below the project root
const DataDirName = ".lunex"

// Provider creates RuntimeConfig for Wire dependency injection. The selected
// network is resolved from the project file only; its endpoint is not
// contacted here.
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:      projectRoot,
		DataDir:          filepath.Join(projectRoot, DataDirName),
		NetworkName:      v.GetString("network"),
		SignerName:       v.GetString("signer"),
		Debug:            v.GetBool("debug"),
		NonInteractive:   v.GetBool("non_interactive"),
		JSON:             v.GetBool("json"),
		Timeout:          v.GetDuration("timeout"),
		DryRun:           v.GetBool("dry_run"),
		SkipVerification: v.GetBool("skip_verification"),
		DeployFile:       v.GetString("deploy_file"),
		VerifyFile:       v.GetString("verify_file"),
	}

	project, err := LoadProject(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	cfg.Project = project

	if cfg.NetworkName != "" {
		network, err := NewNetworkResolver(cfg).Profile(cfg.NetworkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", cfg.NetworkName, err)
		}
		cfg.Network = network
	}

	return cfg, nil
}

// FindProjectRoot walks up from the current directory to find lunex.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findProjectRootFrom(dir)
}

func findProjectRootFrom(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFile)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a lunex project (%s not found)", ProjectFile)
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance. Precedence is flags,
// then LUNEX_* environment variables, then .lunex/config.local.json, then
// defaults.
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, DataDirName))

	v.SetEnvPrefix("LUNEX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("timeout", "5m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	// Missing file is fine
	_ = v.ReadInConfig()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})

	return v
}
