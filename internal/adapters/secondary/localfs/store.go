package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

const (
	binaryPrefix = "images"
	metaPrefix   = "meta"
	binaryExt    = ".jpg"
	metaExt      = ".json"
)

// Store keeps artifact binaries and metadata side-cars on the local
// filesystem under a single root:
//
//	{root}/images/{year}/{month}/{day}/{id}.jpg
//	{root}/meta/{year}/{month}/{day}/{id}.json
//
// Locations returned to callers are root-relative, so they stay valid when
// the same tree is later served from an object store.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	for _, dir := range []string{binaryPrefix, metaPrefix} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create store root: %w", err)
		}
	}
	return &Store{root: root}, nil
}

var _ ports.ArtifactStore = (*Store)(nil)

func (s *Store) Put(ctx context.Context, key string, payload []byte) (string, error) {
	location := binaryPrefix + "/" + key + binaryExt
	if err := s.write(location, payload); err != nil {
		return "", err
	}
	return location, nil
}

func (s *Store) PutMetadata(ctx context.Context, key string, doc []byte) (string, error) {
	location := metaPrefix + "/" + key + metaExt
	if err := s.write(location, doc); err != nil {
		return "", err
	}
	return location, nil
}

func (s *Store) write(location string, data []byte) error {
	path := filepath.Join(s.root, filepath.FromSlash(location))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWriteFailure, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWriteFailure, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, location string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(location)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

func (s *Store) GetMetadata(ctx context.Context, location string) ([]byte, error) {
	return s.Get(ctx, location)
}

func (s *Store) Exists(ctx context.Context, location string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(location)))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) ListMetadata(ctx context.Context, fn func(doc []byte) error) error {
	metaRoot := filepath.Join(s.root, metaPrefix)
	return filepath.WalkDir(metaRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, metaExt) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		return fn(doc)
	})
}

func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrStoreUnavailable, s.root)
	}
	return nil
}
