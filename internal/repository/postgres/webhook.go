package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sidstack/sidmemo-server/internal/model"
)

var _ model.WebhookStore = (*WebhookRepository)(nil)

type WebhookRepository struct {
	db *Connection
}

func NewWebhookRepository(db *Connection) *WebhookRepository {
	return &WebhookRepository{db: db}
}

const webhookColumns = `id, project_id, url, secret, events, is_active, last_triggered_at, last_status_code, created_at`

func scanWebhook(row pgx.Row) (model.Webhook, error) {
	var w model.Webhook
	err := row.Scan(
		&w.ID, &w.ProjectID, &w.URL, &w.Secret, &w.Events, &w.IsActive,
		&w.LastTriggeredAt, &w.LastStatusCode, &w.CreatedAt,
	)
	return w, err
}

func (r *WebhookRepository) Create(ctx context.Context, webhook model.Webhook) (model.Webhook, error) {
	query := `INSERT INTO webhooks (id, project_id, url, secret, events, is_active, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW())
			  RETURNING ` + webhookColumns

	saved, err := scanWebhook(r.db.QueryRow(ctx, query,
		webhook.ID, webhook.ProjectID, webhook.URL, webhook.Secret, webhook.Events, webhook.IsActive,
	))
	if err != nil {
		return model.Webhook{}, fmt.Errorf("failed to create webhook: %w", err)
	}

	return saved, nil
}

func (r *WebhookRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1`

	webhook, err := scanWebhook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Webhook{}, model.ErrNotFound
		}
		return model.Webhook{}, fmt.Errorf("failed to get webhook by id: %w", err)
	}

	return webhook, nil
}

func (r *WebhookRepository) listByProject(ctx context.Context, query string, projectID uuid.UUID) ([]model.Webhook, error) {
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []model.Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate webhooks: %w", err)
	}

	return webhooks, nil
}

func (r *WebhookRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE project_id = $1 ORDER BY created_at DESC`
	return r.listByProject(ctx, query, projectID)
}

func (r *WebhookRepository) ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]model.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE project_id = $1 AND is_active = TRUE ORDER BY created_at DESC`
	return r.listByProject(ctx, query, projectID)
}

func (r *WebhookRepository) Update(ctx context.Context, webhook model.Webhook) (model.Webhook, error) {
	query := `UPDATE webhooks SET url = $2, events = $3, is_active = $4
			  WHERE id = $1
			  RETURNING ` + webhookColumns

	saved, err := scanWebhook(r.db.QueryRow(ctx, query,
		webhook.ID, webhook.URL, webhook.Events, webhook.IsActive,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Webhook{}, model.ErrNotFound
		}
		return model.Webhook{}, fmt.Errorf("failed to update webhook: %w", err)
	}

	return saved, nil
}

func (r *WebhookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM webhooks WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *WebhookRepository) RecordResult(ctx context.Context, id uuid.UUID, triggeredAt time.Time, statusCode *int) error {
	const query = `UPDATE webhooks SET last_triggered_at = $2, last_status_code = $3 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, triggeredAt, statusCode); err != nil {
		return fmt.Errorf("failed to record webhook result: %w", err)
	}
	return nil
}
