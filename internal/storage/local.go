package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore is the object-store collaborator: opaque handles in, bytes out.
type BlobStore interface {
	Store(handle string, r io.Reader) error
	Open(handle string) (io.ReadCloser, error)
	Delete(handle string) error
}

// LocalStore keeps blobs on the local filesystem under a root directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (l *LocalStore) Store(handle string, r io.Reader) error {
	path, err := l.resolve(handle)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	return nil
}

func (l *LocalStore) Open(handle string) (io.ReadCloser, error) {
	path, err := l.resolve(handle)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes the blob; a missing file counts as success.
func (l *LocalStore) Delete(handle string) error {
	path, err := l.resolve(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (l *LocalStore) resolve(handle string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(handle))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob handle: %q", handle)
	}
	return filepath.Join(l.root, clean), nil
}
