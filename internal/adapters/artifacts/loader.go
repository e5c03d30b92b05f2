package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/contracts"
	"github.com/samber/lo"
)

// DefaultPath is where the compiled bundle lives when [artifacts] is unset
const DefaultPath = "artifacts/lunex.json"

type artifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode string          `json:"bytecode"`
}

// Load parses a bundle of the form {name: {abi, bytecode}} and validates
// every interface before any of them is used.
func Load(path string) (*contracts.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifacts: %w", err)
	}

	var bundle map[string]artifact
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, domain.NewValidationError("artifacts", "%s: %v", path, err)
	}

	ifaces := make([]*contracts.Interface, 0, len(bundle))
	var errs []error
	names := lo.Keys(bundle)
	sort.Strings(names)
	for _, name := range names {
		a := bundle[name]
		if len(a.ABI) == 0 {
			errs = append(errs, domain.NewValidationError("artifacts", "%s has no abi", name))
			continue
		}
		iface, err := contracts.ParseInterface(name, a.ABI, common.FromHex(a.Bytecode))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ifaces = append(ifaces, iface)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return contracts.NewCatalog(ifaces...)
}

// NewCatalog loads the bundle configured for the project
func NewCatalog(cfg *config.RuntimeConfig, log *slog.Logger) (*contracts.Catalog, error) {
	path := DefaultPath
	if cfg.Project != nil && cfg.Project.Artifacts.Path != "" {
		path = cfg.Project.Artifacts.Path
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.ProjectRoot, path)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		// Commands that never touch contracts still start without a bundle.
		log.Debug("artifact bundle not found", "path", path)
		return contracts.NewCatalog()
	}

	catalog, err := Load(path)
	if err != nil {
		return nil, err
	}
	log.Debug("artifacts loaded", "path", path, "contracts", len(catalog.Names()))
	return catalog, nil
}
