// Package filestore persists the access token as a single file per key inside a data folder.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	consoleerrors "github.com/jrsteele09/star-console/internal/errors"
	"github.com/jrsteele09/star-console/token"
)

var _ token.Persister = (*Store)(nil)

type Store struct {
	folder string
}

// New returns a Store rooted at folder, creating it if needed.
func New(folder string) (*Store, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, consoleerrors.Wrapf(err, "failed to create token folder %s", folder)
	}
	return &Store{folder: folder}, nil
}

func (s *Store) Load(key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", consoleerrors.ErrStorage, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes through a temp file and rename so a crash never leaves a truncated token behind.
func (s *Store) Save(key, value string) error {
	tmp, err := os.CreateTemp(s.folder, ".token-*")
	if err != nil {
		return fmt.Errorf("%w: %w", consoleerrors.ErrStorage, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", consoleerrors.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", consoleerrors.ErrStorage, err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("%w: %w", consoleerrors.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("%w: %w", consoleerrors.ErrStorage, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", consoleerrors.ErrStorage, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.folder, filepath.Base(key))
}
