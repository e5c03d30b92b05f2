package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
)

// ProjectFile marks the project root
const ProjectFile = "lunex.toml"

// loadEnvFiles loads .env.local then .env; variables already set in the
// environment are never overridden.
func loadEnvFiles(projectRoot string) {
	for _, name := range []string{".env.local", ".env"} {
		envFile := filepath.Join(projectRoot, name)
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
		}
	}
}

// LoadProject reads lunex.toml and expands ${VAR} references in every
// string value after the env files are loaded.
func LoadProject(projectRoot string) (*config.ProjectConfig, error) {
	loadEnvFiles(projectRoot)

	path := filepath.Join(projectRoot, ProjectFile)
	var project config.ProjectConfig
	md, err := toml.DecodeFile(path, &project)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFile, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, domain.NewValidationError(ProjectFile, "unknown keys: %s", strings.Join(keys, ", "))
	}

	expandProject(&project)
	return &project, nil
}

func expandProject(p *config.ProjectConfig) {
	for name, n := range p.Networks {
		n.RPCURL = os.ExpandEnv(n.RPCURL)
		n.Explorer = os.ExpandEnv(n.Explorer)
		p.Networks[name] = n
	}
	for name, s := range p.Signers {
		s.PrivateKey = os.ExpandEnv(s.PrivateKey)
		p.Signers[name] = s
	}
	p.Record.Dir = os.ExpandEnv(p.Record.Dir)
	p.Record.DSN = os.ExpandEnv(p.Record.DSN)
	p.Artifacts.Path = os.ExpandEnv(p.Artifacts.Path)
	p.Metrics.Textfile = os.ExpandEnv(p.Metrics.Textfile)
}
