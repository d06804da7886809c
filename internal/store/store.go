// Package store persists the last entered working set of each account so it
// can be restored later. It is a plain key-value store keyed by account name.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/consistency-planner/pkg/constants"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no snapshot exists for a name.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the persisted form of an account's inputs.
type Snapshot struct {
	Name         string    `json:"name" yaml:"name"`
	Program      string    `json:"program" yaml:"program"`
	AccountSize  float64   `json:"accountSize" yaml:"accountSize"`
	Profits      []float64 `json:"profits" yaml:"profits"`
	TargetPayout float64   `json:"targetPayout" yaml:"targetPayout"`
	PlannedDays  int       `json:"plannedDays" yaml:"plannedDays"`
	SavedAt      time.Time `json:"savedAt" yaml:"savedAt"`
}

// Store loads and saves snapshots.
type Store interface {
	Load(ctx context.Context, name string) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
	Delete(ctx context.Context, name string) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Path          string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// New opens the backend named in opts. An empty backend selects the file store.
func New(ctx context.Context, logger *zap.Logger, opts Options) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = constants.StoreBackendFile
	}

	var (
		s   Store
		err error
	)
	switch backend {
	case constants.StoreBackendFile:
		path := opts.Path
		if path == "" {
			path = constants.DefaultStorePath
		}
		s, err = NewFileStore(path)
	case constants.StoreBackendSQLite:
		dsn := opts.DSN
		if dsn == "" {
			dsn = opts.Path
		}
		s, err = NewSQLiteStore(ctx, dsn)
	case constants.StoreBackendRedis:
		prefix := opts.KeyPrefix
		if prefix == "" {
			prefix = constants.DefaultStoreKeyPrefix
		}
		s, err = NewRedisStore(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, prefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("snapshot store opened",
		zap.String("op", "store.New"),
		zap.String("backend", backend),
	)
	return s, nil
}

func normalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", errors.New("snapshot name cannot be empty")
	}
	return trimmed, nil
}

func stamp(snapshot Snapshot) (Snapshot, error) {
	name, err := normalizeName(snapshot.Name)
	if err != nil {
		return Snapshot{}, err
	}
	snapshot.Name = name
	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = time.Now().UTC()
	}
	snapshot.Profits = append([]float64(nil), snapshot.Profits...)
	return snapshot, nil
}
