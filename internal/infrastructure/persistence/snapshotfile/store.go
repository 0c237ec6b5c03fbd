// Package snapshotfile keeps member snapshots as JSON files on local disk.
// It backs the local and personal_cloud storage locations; for the latter
// the directory is one a sync client already mirrors.
package snapshotfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/shared"
)

const fileSuffix = ".guild.json"

// Store implements guild.SnapshotRepository on a directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, shared.NewDomainError("snapshot", "Open", shared.ErrEmptyValue, "snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

// Path returns the file holding userID's snapshot.
func (s *Store) Path(userID string) string {
	return filepath.Join(s.dir, sanitize(userID)+fileSuffix)
}

// Load reads and decodes the snapshot.
func (s *Store) Load(ctx context.Context, userID string) (guild.State, error) {
	if err := ctx.Err(); err != nil {
		return guild.State{}, err
	}
	data, err := os.ReadFile(s.Path(userID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return guild.State{}, shared.WrapError("snapshot", "Load", shared.ErrNotFound, "no snapshot for "+userID, err)
		}
		return guild.State{}, fmt.Errorf("read snapshot: %w", err)
	}
	return guild.Decode(data)
}

// Save encodes the snapshot and replaces the file atomically.
func (s *Store) Save(ctx context.Context, userID string, st guild.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := guild.Encode(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(userID)); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot file if present.
func (s *Store) Delete(_ context.Context, userID string) error {
	err := os.Remove(s.Path(userID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// sanitize keeps ids usable as file names.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
