package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// nameHashBytes is how much of the name digest goes into a file name.
const nameHashBytes = 8

// FileStore keeps one YAML document per snapshot in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Load reads the snapshot stored under name.
func (f *FileStore) Load(_ context.Context, name string) (Snapshot, error) {
	path, err := f.path(name)
	if err != nil {
		return Snapshot{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return snapshot, nil
}

// Save writes the snapshot, replacing any previous one with the same name.
func (f *FileStore) Save(_ context.Context, snapshot Snapshot) error {
	snapshot, err := stamp(snapshot)
	if err != nil {
		return err
	}
	path, err := f.path(snapshot.Name)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot %s: %w", path, err)
	}
	return nil
}

// Delete removes the snapshot. Deleting a missing snapshot returns ErrNotFound.
func (f *FileStore) Delete(_ context.Context, name string) error {
	path, err := f.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete snapshot %s: %w", path, err)
	}
	return nil
}

// Close is a no-op for the file store.
func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) path(name string) (string, error) {
	normalized, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.dir, fileName(normalized)+".yaml"), nil
}

// fileName maps a snapshot name onto a safe file name. The readable slug is
// lossy, so the hash of the exact name keeps distinct names apart.
func fileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	sum := sha256.Sum256([]byte(name))
	return b.String() + "-" + hex.EncodeToString(sum[:nameHashBytes])
}
