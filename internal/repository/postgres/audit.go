package postgres

import (
	"context"
	"fmt"

	"github.com/sidstack/sidmemo-server/internal/model"
)

var _ model.AuditStore = (*AuditRepository)(nil)

type AuditRepository struct {
	db *Connection
}

func NewAuditRepository(db *Connection) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry model.AuditEntry) error {
	const query = `
		INSERT INTO audit_logs (id, actor_id, actor_type, project_id, action, target_type, target_id, payload, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.ActorID, entry.ActorType, entry.ProjectID, entry.Action,
		entry.TargetType, entry.TargetID, entry.Payload, entry.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR project_id = $1)
	             AND ($2::uuid IS NULL OR actor_id = $2)
	             AND ($3 = '' OR action = $3)`

	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where,
		filter.ProjectID, filter.ActorID, filter.Action,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query := `
		SELECT id, actor_id, actor_type, project_id, action, target_type, target_id, payload, ip_address, created_at
		FROM audit_logs` + where + `
		ORDER BY created_at DESC OFFSET $4 LIMIT $5`

	rows, err := r.db.Query(ctx, query,
		filter.ProjectID, filter.ActorID, filter.Action, filter.Offset, filter.Limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		err := rows.Scan(
			&e.ID, &e.ActorID, &e.ActorType, &e.ProjectID, &e.Action,
			&e.TargetType, &e.TargetID, &e.Payload, &e.IPAddress, &e.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return entries, total, nil
}
