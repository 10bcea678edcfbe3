package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-trainer-service/internal/core/domain"
	"model-trainer-service/internal/core/ports/output"
)

// ArtifactIndexRepo is the Postgres deduplication index. The same table
// carries the committed artifact records, so it also serves as the artifact
// query view; both ports share one lock domain.
type ArtifactIndexRepo struct {
	pool *pgxpool.Pool
}

func NewArtifactIndexRepository(pool *pgxpool.Pool) *ArtifactIndexRepo {
	return &ArtifactIndexRepo{pool: pool}
}

var (
	_ ports.DeduplicationIndex = (*ArtifactIndexRepo)(nil)
	_ ports.ArtifactRepository = (*ArtifactIndexRepo)(nil)
)

func (r *ArtifactIndexRepo) CheckAndReserve(ctx context.Context, contentHash string, lease time.Duration) (ports.Reservation, error) {
	expires := time.Now().UTC().Add(lease)

	// Atomic insert-if-absent: exactly one concurrent attempt wins the row.
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO artifact_index (content_hash, state, expires_at)
		VALUES ($1, 'pending', $2)
		ON CONFLICT (content_hash) DO NOTHING
	`, contentHash, expires)
	if err != nil {
		return ports.Reservation{}, fmt.Errorf("reserve content hash: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return ports.Reservation{Accepted: true}, nil
	}

	var state string
	var location *string
	err = r.pool.QueryRow(ctx, `
		SELECT state, location FROM artifact_index WHERE content_hash = $1
	`, contentHash).Scan(&state, &location)
	if errors.Is(err, pgx.ErrNoRows) {
		// The holder released between our insert and this read; claim again.
		return r.CheckAndReserve(ctx, contentHash, lease)
	}
	if err != nil {
		return ports.Reservation{}, fmt.Errorf("inspect existing reservation: %w", err)
	}

	if state == "committed" {
		loc := ""
		if location != nil {
			loc = *location
		}
		return ports.Reservation{ExistingLocation: loc}, nil
	}

	// Pending: take over only if the previous holder's lease ran out.
	tag, err = r.pool.Exec(ctx, `
		UPDATE artifact_index SET expires_at = $2
		WHERE content_hash = $1 AND state = 'pending' AND expires_at < NOW()
	`, contentHash, expires)
	if err != nil {
		return ports.Reservation{}, fmt.Errorf("reclaim expired reservation: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return ports.Reservation{Accepted: true}, nil
	}
	return ports.Reservation{}, nil
}

func (r *ArtifactIndexRepo) Commit(ctx context.Context, art *domain.Artifact) error {
	var attribution, sourceMeta []byte
	var err error
	if art.Attribution != nil {
		if attribution, err = json.Marshal(art.Attribution); err != nil {
			return fmt.Errorf("marshal attribution: %w", err)
		}
	}
	if art.SourceMetadata != nil {
		if sourceMeta, err = json.Marshal(art.SourceMetadata); err != nil {
			return fmt.Errorf("marshal source metadata: %w", err)
		}
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE artifact_index
		SET state = 'committed', expires_at = NULL,
			artifact_id = $2, source = $3, label = $4, label_confidence = $5,
			location = $6, created_at = $7, attribution = $8, source_metadata = $9
		WHERE content_hash = $1 AND state = 'pending'
	`, art.ContentHash, art.ID, art.Source, string(art.Label), art.LabelConfidence,
		art.Location, art.CreatedAt, attribution, sourceMeta)
	if err != nil {
		return fmt.Errorf("commit artifact %s: %w", art.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("commit %s: reservation lost", art.ContentHash)
	}
	return nil
}

func (r *ArtifactIndexRepo) Release(ctx context.Context, contentHash string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM artifact_index WHERE content_hash = $1 AND state = 'pending'
	`, contentHash)
	if err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	return nil
}

func (r *ArtifactIndexRepo) ReleaseExpired(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM artifact_index WHERE state = 'pending' AND expires_at < NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("release expired reservations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

const artifactColumns = `
	artifact_id, content_hash, source, label, label_confidence,
	created_at, location, attribution, source_metadata`

func (r *ArtifactIndexRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM artifact_index
		WHERE artifact_id = $1 AND state = 'committed'
	`, artifactColumns)
	art, err := scanArtifact(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("get artifact by id: %w", err)
	}
	return art, nil
}

func (r *ArtifactIndexRepo) GetByHash(ctx context.Context, contentHash string) (*domain.Artifact, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM artifact_index
		WHERE content_hash = $1 AND state = 'committed'
	`, artifactColumns)
	art, err := scanArtifact(r.pool.QueryRow(ctx, query, contentHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("get artifact by hash: %w", err)
	}
	return art, nil
}

func (r *ArtifactIndexRepo) List(ctx context.Context, filter ports.ArtifactFilter) ([]*domain.Artifact, error) {
	conditions := []string{"state = 'committed'"}
	args := []interface{}{}
	argPos := 1

	if filter.Label != nil {
		conditions = append(conditions, fmt.Sprintf("label = $%d", argPos))
		args = append(args, string(*filter.Label))
		argPos++
	}
	if filter.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", argPos))
		args = append(args, filter.Source)
		argPos++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT %s FROM artifact_index
		WHERE %s
		ORDER BY created_at ASC
		LIMIT $%d
	`, artifactColumns, strings.Join(conditions, " AND "), argPos)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*domain.Artifact
	for rows.Next() {
		art, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact row: %w", err)
		}
		artifacts = append(artifacts, art)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifact rows: %w", err)
	}
	return artifacts, nil
}

func (r *ArtifactIndexRepo) CountByLabel(ctx context.Context) (map[domain.Label]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT label, COUNT(*) FROM artifact_index
		WHERE state = 'committed'
		GROUP BY label
	`)
	if err != nil {
		return nil, fmt.Errorf("count artifacts by label: %w", err)
	}
	defer rows.Close()

	counts := map[domain.Label]int{}
	for rows.Next() {
		var label *string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan label count: %w", err)
		}
		l := domain.LabelNone
		if label != nil {
			l = domain.Label(*label)
		}
		counts[l] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate label counts: %w", err)
	}
	return counts, nil
}

func (r *ArtifactIndexRepo) UpdateLabel(ctx context.Context, id uuid.UUID, label domain.Label, confidence *float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE artifact_index SET label = $2, label_confidence = $3
		WHERE artifact_id = $1 AND state = 'committed'
	`, id, string(label), confidence)
	if err != nil {
		return fmt.Errorf("update artifact label: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrArtifactNotFound
	}
	return nil
}

func scanArtifact(row pgx.Row) (*domain.Artifact, error) {
	art := &domain.Artifact{}
	var label string
	var attribution, sourceMeta []byte

	err := row.Scan(
		&art.ID, &art.ContentHash, &art.Source, &label, &art.LabelConfidence,
		&art.CreatedAt, &art.Location, &attribution, &sourceMeta,
	)
	if err != nil {
		return nil, err
	}
	art.Label = domain.Label(label)

	if len(attribution) > 0 {
		if err := json.Unmarshal(attribution, &art.Attribution); err != nil {
			return nil, fmt.Errorf("unmarshal attribution: %w", err)
		}
	}
	if len(sourceMeta) > 0 {
		if err := json.Unmarshal(sourceMeta, &art.SourceMetadata); err != nil {
			return nil, fmt.Errorf("unmarshal source metadata: %w", err)
		}
	}
	return art, nil
}
