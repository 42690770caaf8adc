package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DiskStore writes photos below BasePath and serves them under URLPrefix.
type DiskStore struct {
	BasePath  string
	URLPrefix string
	dirs      map[string]bool
	dirsMutex sync.Mutex
}

func NewDiskStore(basePath, urlPrefix string) *DiskStore {
	return &DiskStore{
		BasePath:  basePath,
		URLPrefix: strings.TrimSuffix(urlPrefix, "/"),
		dirs:      make(map[string]bool, 10),
	}
}

func (s *DiskStore) createDir(dir string) error {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()

	if ok := s.dirs[dir]; ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.dirs[dir] = true
	return nil
}

func (s *DiskStore) fullPath(key string) (string, error) {
	p := filepath.Join(s.BasePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.BasePath, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return p, nil
}

func (s *DiskStore) Save(ctx context.Context, key string, body io.Reader, contentType string) error {
	fileName, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := s.createDir(filepath.Dir(fileName)); err != nil {
		return fmt.Errorf("create photo dir: %w", err)
	}
	file, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("create photo file: %w", err)
	}
	_, err = io.Copy(file, body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(fileName)
		return fmt.Errorf("write photo %s: %w", key, err)
	}
	return nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	fileName, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fileName); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete photo %s: %w", key, err)
	}
	return nil
}

func (s *DiskStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return CleanURL(s.URLPrefix + "/" + key)
}
