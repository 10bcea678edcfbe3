package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-trainer-service/internal/core/domain"
	"model-trainer-service/internal/core/ports/output"
)

type registryRepo struct {
	pool *pgxpool.Pool
}

func NewRegistryRepository(pool *pgxpool.Pool) ports.RegistryRepository {
	return &registryRepo{pool: pool}
}

func (r *registryRepo) Append(ctx context.Context, entry *domain.ModelVersion) (*domain.ModelVersion, error) {
	if entry.ModelName == "" {
		return nil, domain.ErrInvalidModelName
	}

	metricsJSON, err := json.Marshal(entry.Metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize appends per model name for the duration of the transaction;
	// the lock releases automatically on commit or rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, entry.ModelName); err != nil {
		return nil, fmt.Errorf("lock model namespace: %w", err)
	}

	stored := *entry
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now().UTC()

	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1 FROM model_versions WHERE model_name = $1
	`, entry.ModelName).Scan(&stored.Version)
	if err != nil {
		return nil, fmt.Errorf("next version for %s: %w", entry.ModelName, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO model_versions
			(id, model_name, version, created_at, dataset_size, train_size, val_size, metrics, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, stored.ID, stored.ModelName, stored.Version, stored.CreatedAt,
		stored.DatasetSize, stored.TrainSize, stored.ValSize, metricsJSON, stored.Notes)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// Unreachable under the advisory lock; seeing it means the
			// mutual-exclusion discipline was bypassed.
			return nil, domain.ErrVersionConflict
		}
		return nil, fmt.Errorf("append model version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return &stored, nil
}

func (r *registryRepo) Latest(ctx context.Context, modelName string) (*domain.ModelVersion, error) {
	query := `
		SELECT id, model_name, version, created_at, dataset_size, train_size, val_size, metrics, notes
		FROM model_versions
		WHERE model_name = $1
		ORDER BY version DESC
		LIMIT 1
	`
	v, err := scanModelVersion(r.pool.QueryRow(ctx, query, modelName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrModelNotFound
		}
		return nil, fmt.Errorf("latest version for %s: %w", modelName, err)
	}
	return v, nil
}

func (r *registryRepo) History(ctx context.Context, modelName string) ([]*domain.ModelVersion, error) {
	query := `
		SELECT id, model_name, version, created_at, dataset_size, train_size, val_size, metrics, notes
		FROM model_versions
		WHERE model_name = $1
		ORDER BY version ASC
	`
	rows, err := r.pool.Query(ctx, query, modelName)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", modelName, err)
	}
	defer rows.Close()

	var history []*domain.ModelVersion
	for rows.Next() {
		v, err := scanModelVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model version row: %w", err)
		}
		history = append(history, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model version rows: %w", err)
	}
	return history, nil
}

func (r *registryRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM model_versions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count model versions: %w", err)
	}
	return n, nil
}

func scanModelVersion(row pgx.Row) (*domain.ModelVersion, error) {
	v := &domain.ModelVersion{}
	var metricsJSON []byte

	err := row.Scan(
		&v.ID, &v.ModelName, &v.Version, &v.CreatedAt,
		&v.DatasetSize, &v.TrainSize, &v.ValSize, &metricsJSON, &v.Notes,
	)
	if err != nil {
		return nil, err
	}

	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &v.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	return v, nil
}
