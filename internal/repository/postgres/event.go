package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/model"
)

var _ model.EventStore = (*EventRepository)(nil)

type EventRepository struct {
	db *Connection
}

func NewEventRepository(db *Connection) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event model.APIEvent) error {
	const query = `
		INSERT INTO api_events (project_id, user_id, api_key_id, method, path, action, status_code, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`

	_, err := r.db.Exec(ctx, query,
		event.ProjectID, event.UserID, event.ApiKeyID,
		event.Method, event.Path, event.Action, event.StatusCode, event.LatencyMS,
	)
	if err != nil {
		return fmt.Errorf("failed to create api event: %w", err)
	}
	return nil
}

func (r *EventRepository) Summarize(ctx context.Context, projectID uuid.UUID, since time.Time) (model.UsageSummary, error) {
	summary := model.UsageSummary{CountsByAction: make(map[string]int)}

	const totals = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status_code >= 400),
		       COALESCE(AVG(latency_ms), 0)
		FROM api_events
		WHERE project_id = $1 AND created_at >= $2`

	err := r.db.QueryRow(ctx, totals, projectID, since).Scan(
		&summary.TotalRequests, &summary.ErrorRequests, &summary.AvgLatencyMS,
	)
	if err != nil {
		return model.UsageSummary{}, fmt.Errorf("failed to summarize api events: %w", err)
	}

	const byAction = `
		SELECT action, COUNT(*)
		FROM api_events
		WHERE project_id = $1 AND created_at >= $2 AND action <> ''
		GROUP BY action`

	rows, err := r.db.Query(ctx, byAction, projectID, since)
	if err != nil {
		return model.UsageSummary{}, fmt.Errorf("failed to group api events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return model.UsageSummary{}, fmt.Errorf("failed to scan api event group: %w", err)
		}
		summary.CountsByAction[action] = count
	}
	if err := rows.Err(); err != nil {
		return model.UsageSummary{}, fmt.Errorf("failed to iterate api event groups: %w", err)
	}

	return summary, nil
}
