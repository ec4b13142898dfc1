package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sidstack/sidmemo-server/internal/model"
)

var _ model.MemoryStore = (*MemoryRepository)(nil)

type MemoryRepository struct {
	db *Connection
}

func NewMemoryRepository(db *Connection) *MemoryRepository {
	return &MemoryRepository{db: db}
}

const memoryColumns = `id, project_id, user_key, agent_key, run_key, content, metadata, categories, score, created_at, updated_at`

func scanMemory(row pgx.Row) (model.MemoryRecord, error) {
	var m model.MemoryRecord
	err := row.Scan(
		&m.ID, &m.ProjectID, &m.UserKey, &m.AgentKey, &m.RunKey,
		&m.Content, &m.Metadata, &m.Categories, &m.Score,
		&m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

func (r *MemoryRepository) Upsert(ctx context.Context, record model.MemoryRecord) (model.MemoryRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Metadata == nil {
		record.Metadata = []byte(`{}`)
	}
	if record.Categories == nil {
		record.Categories = []string{}
	}

	query := `
		INSERT INTO memories (` + memoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			content    = EXCLUDED.content,
			metadata   = EXCLUDED.metadata,
			categories = EXCLUDED.categories,
			score      = EXCLUDED.score,
			updated_at = NOW()
		RETURNING ` + memoryColumns

	row := r.db.QueryRow(ctx, query,
		record.ID, record.ProjectID, record.UserKey, record.AgentKey, record.RunKey,
		record.Content, record.Metadata, record.Categories, record.Score,
	)

	stored, err := scanMemory(row)
	if err != nil {
		return model.MemoryRecord{}, fmt.Errorf("failed to upsert memory: %w", err)
	}
	return stored, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, projectID, id uuid.UUID) (model.MemoryRecord, error) {
	query := `SELECT ` + memoryColumns + ` FROM memories WHERE project_id = $1 AND id = $2`

	m, err := scanMemory(r.db.QueryRow(ctx, query, projectID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MemoryRecord{}, model.ErrNotFound
		}
		return model.MemoryRecord{}, fmt.Errorf("failed to get memory: %w", err)
	}
	return m, nil
}

func (r *MemoryRepository) ListByProject(ctx context.Context, projectID uuid.UUID, userKey string, offset, limit int) ([]model.MemoryRecord, int, error) {
	where := ` WHERE project_id = $1 AND ($2 = '' OR user_key = $2)`

	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM memories`+where, projectID, userKey).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count memories: %w", err)
	}

	query := `SELECT ` + memoryColumns + ` FROM memories` + where + `
		ORDER BY created_at DESC OFFSET $3 LIMIT $4`

	rows, err := r.db.Query(ctx, query, projectID, userKey, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	var records []model.MemoryRecord
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan memory: %w", err)
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate memories: %w", err)
	}

	return records, total, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, projectID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM memories WHERE project_id = $1 AND id = $2`, projectID, id)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *MemoryRepository) DeleteByUserKey(ctx context.Context, projectID uuid.UUID, userKey string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM memories WHERE project_id = $1 AND user_key = $2`, projectID, userKey)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memories by user key: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM memories`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return total, nil
}

func (r *MemoryRepository) AppendHistory(ctx context.Context, h model.MemoryHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Metadata == nil {
		h.Metadata = []byte(`{}`)
	}

	const query = `
		INSERT INTO memory_history (id, memory_id, content, metadata, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`

	_, err := r.db.Exec(ctx, query, h.ID, h.MemoryID, h.Content, h.Metadata, h.ChangedBy)
	if err != nil {
		return fmt.Errorf("failed to append memory history: %w", err)
	}
	return nil
}

func (r *MemoryRepository) ListHistory(ctx context.Context, memoryID uuid.UUID) ([]model.MemoryHistory, error) {
	const query = `
		SELECT id, memory_id, content, metadata, changed_by, changed_at
		FROM memory_history
		WHERE memory_id = $1
		ORDER BY changed_at DESC`

	rows, err := r.db.Query(ctx, query, memoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory history: %w", err)
	}
	defer rows.Close()

	var history []model.MemoryHistory
	for rows.Next() {
		var h model.MemoryHistory
		err := rows.Scan(&h.ID, &h.MemoryID, &h.Content, &h.Metadata, &h.ChangedBy, &h.ChangedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory history: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memory history: %w", err)
	}

	return history, nil
}
