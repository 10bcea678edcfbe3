package registryfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

// Registry is the file-backed model version ledger: one JSON array,
// append-only, ordered by insertion. A single writer mutex serializes every
// append, which makes version assignment race-free without any store-level
// primitive; writes go through a temp file and an atomic rename so a crash
// never leaves a truncated ledger behind.
type Registry struct {
	mu   sync.Mutex
	path string
}

func NewRegistry(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	r := &Registry{path: path}
	if _, err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

var _ ports.RegistryRepository = (*Registry)(nil)

func (r *Registry) load() ([]*domain.ModelVersion, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	var entries []*domain.ModelVersion
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", r.path, err)
	}
	return entries, nil
}

func (r *Registry) save(entries []*domain.ModelVersion) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".registry-*")
	if err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

func (r *Registry) Append(ctx context.Context, entry *domain.ModelVersion) (*domain.ModelVersion, error) {
	if entry.ModelName == "" {
		return nil, domain.ErrInvalidModelName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return nil, err
	}

	next := 1
	for _, e := range entries {
		if e.ModelName == entry.ModelName && e.Version >= next {
			next = e.Version + 1
		}
	}

	stored := *entry
	stored.ID = uuid.New()
	stored.Version = next
	stored.CreatedAt = time.Now().UTC()

	entries = append(entries, &stored)
	if err := r.save(entries); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *Registry) Latest(ctx context.Context, modelName string) (*domain.ModelVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return nil, err
	}
	var latest *domain.ModelVersion
	for _, e := range entries {
		if e.ModelName == modelName && (latest == nil || e.Version > latest.Version) {
			latest = e
		}
	}
	if latest == nil {
		return nil, domain.ErrModelNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *Registry) History(ctx context.Context, modelName string) ([]*domain.ModelVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return nil, err
	}
	var history []*domain.ModelVersion
	for _, e := range entries {
		if e.ModelName == modelName {
			clone := *e
			history = append(history, &clone)
		}
	}
	// Entries land in append order and versions only grow, so the slice is
	// already ascending; keep the guarantee explicit anyway.
	for i := 1; i < len(history); i++ {
		if history[i].Version < history[i-1].Version {
			return nil, fmt.Errorf("%w: registry order corrupted for %s", domain.ErrVersionConflict, modelName)
		}
	}
	return history, nil
}

func (r *Registry) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
