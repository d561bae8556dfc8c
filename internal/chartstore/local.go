package chartstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// LocalStore хранит объекты в каталоге на диске.
type LocalStore struct {
	basePath string
}

// NewLocalStore создаёт каталог basePath, если его нет.
func NewLocalStore(basePath string) (*LocalStore, error) {
	const op = "chartstore.NewLocalStore"
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// Put записывает объект, перезаписывая существующий.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ string) error {
	const op = "chartstore.LocalStore.Put"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p, err := s.path(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get открывает объект на чтение.
func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	const op = "chartstore.LocalStore.Get"
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	p, err := s.path(key)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return f, ContentTypeByKey(key), nil
}

// Delete удаляет объект. Отсутствие объекта ошибкой не считается.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	const op = "chartstore.LocalStore.Delete"
	p, err := s.path(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
