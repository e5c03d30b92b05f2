package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

const (
	DefaultRecordDir = ".lunex/deployments"
	lockSuffix       = ".lock"
)

var networkNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// FileRepository stores one JSON record per network
type FileRepository struct {
	dir string
	mu  sync.RWMutex
	log *slog.Logger
}

// NewFileRepository creates a new file-backed record store under dir,
// relative paths being resolved against the project root.
func NewFileRepository(projectRoot, dir string, log *slog.Logger) (*FileRepository, error) {
	if dir == "" {
		dir = DefaultRecordDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectRoot, dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}
	return &FileRepository{dir: dir, log: log.With("component", "FileRepository")}, nil
}

func (r *FileRepository) path(network string) (string, error) {
	if !networkNamePattern.MatchString(network) {
		return "", domain.NewValidationError("network", "%q cannot be used as a record name", network)
	}
	return filepath.Join(r.dir, network+".json"), nil
}

// Load reads the record of a network; a missing file is an empty record.
func (r *FileRepository) Load(ctx context.Context, network string) (*models.DeploymentRecord, error) {
	path, err := r.path(network)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return models.NewDeploymentRecord(network, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var record models.DeploymentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse record %s: %w", path, err)
	}
	record.Normalize()
	if record.Network == "" {
		record.Network = network
	}
	return &record, nil
}

// Save writes the record atomically through a temp file and rename.
func (r *FileRepository) Save(ctx context.Context, record *models.DeploymentRecord) error {
	path, err := r.path(record.Network)
	if err != nil {
		return err
	}
	record.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace record: %w", err)
	}
	r.log.Debug("record saved", "network", record.Network, "contracts", len(record.Contracts))
	return nil
}

// Lock creates <record>.lock exclusively. A stale lock left by a crashed run
// must be removed by hand; its content names the owning process.
func (r *FileRepository) Lock(ctx context.Context, network string) (func(), error) {
	path, err := r.path(network)
	if err != nil {
		return nil, err
	}
	lockPath := path + lockSuffix

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, os.ErrExist) {
		owner, _ := os.ReadFile(lockPath)
		return nil, fmt.Errorf("%w: %s (held by pid %s)", domain.ErrRecordLocked, lockPath, string(owner))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock record: %w", err)
	}
	if err := writeLockOwner(f); err != nil {
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("failed to lock record: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := os.Remove(lockPath); err != nil {
				r.log.Warn("failed to release record lock", "path", lockPath, "error", err)
			}
		})
	}, nil
}

// writeLockOwner records the current pid in the lock file and closes it
var writeLockOwner = func(f *os.File) error {
	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var _ usecase.RecordStore = (*FileRepository)(nil)
