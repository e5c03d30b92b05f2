package record

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// NewRecordStore selects the backend named in the [record] section. The
// returned cleanup closes any database pool.
func NewRecordStore(cfg *config.RuntimeConfig, log *slog.Logger) (usecase.RecordStore, func(), error) {
	var rc config.RecordConfig
	if cfg.Project != nil {
		rc = cfg.Project.Record
	}

	switch rc.Backend {
	case "", config.RecordBackendFile:
		store, err := NewFileRepository(cfg.ProjectRoot, rc.Dir, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case config.RecordBackendPostgres:
		if rc.DSN == "" {
			return nil, nil, fmt.Errorf("record backend postgres requires record.dsn")
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		store, err := NewPostgresRepository(ctx, rc.DSN, log)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown record backend %q", rc.Backend)
	}
}
