package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// ConfigRenderer renders config-related output
type ConfigRenderer struct {
	out io.Writer
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer) *ConfigRenderer {
	return &ConfigRenderer{out: out}
}

// getRelativePath returns the relative path from current directory
func getRelativePath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	relPath, err := filepath.Rel(cwd, path)
	if err != nil {
		return path
	}
	return relPath
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

// RenderConfig renders the configuration display
func (r *ConfigRenderer) RenderConfig(result *usecase.ConfigResult) error {
	if !result.Exists {
		fmt.Fprintf(r.out, "❌ No .lunex/config.local.json file found\n")
		fmt.Fprintf(r.out, "⚠️  Without config, commands require explicit --network and --signer flags\n")
		return nil
	}

	fmt.Fprintln(r.out, "📋 Current config:")
	fmt.Fprintf(r.out, "Network: %s\n", orUnset(result.Config.Network))
	fmt.Fprintf(r.out, "Signer:  %s\n", orUnset(result.Config.Signer))
	fmt.Fprintf(r.out, "\n📁 config file: %s\n", getRelativePath(result.ConfigPath))
	return nil
}

// RenderSet renders the result of setting a configuration value
func (r *ConfigRenderer) RenderSet(result *usecase.ConfigResult) error {
	fmt.Fprintf(r.out, "✅ Set %s to: %s\n", result.Key, result.Value)
	fmt.Fprintf(r.out, "📁 config saved to: %s\n", getRelativePath(result.ConfigPath))
	return nil
}

// RenderRemove renders the result of removing a configuration value
func (r *ConfigRenderer) RenderRemove(result *usecase.ConfigResult) error {
	fmt.Fprintf(r.out, "✅ Removed %s (was: %s)\n", result.Key, orUnset(result.Value))
	fmt.Fprintf(r.out, "📁 config saved to: %s\n", getRelativePath(result.ConfigPath))
	return nil
}
