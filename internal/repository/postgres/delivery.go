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

var _ model.DeliveryStore = (*DeliveryRepository)(nil)

type DeliveryRepository struct {
	db *Connection
}

func NewDeliveryRepository(db *Connection) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

const deliveryColumns = `id, webhook_id, event, payload, status_code, response_body, attempt_count, next_retry_at, delivered_at, created_at`

func scanDelivery(row pgx.Row) (model.WebhookDelivery, error) {
	var d model.WebhookDelivery
	err := row.Scan(
		&d.ID, &d.WebhookID, &d.Event, &d.Payload, &d.StatusCode, &d.ResponseBody,
		&d.AttemptCount, &d.NextRetryAt, &d.DeliveredAt, &d.CreatedAt,
	)
	return d, err
}

func (r *DeliveryRepository) Create(ctx context.Context, delivery model.WebhookDelivery) (model.WebhookDelivery, error) {
	query := `INSERT INTO webhook_deliveries
			  (id, webhook_id, event, payload, status_code, response_body, attempt_count, next_retry_at, delivered_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			  RETURNING ` + deliveryColumns

	saved, err := scanDelivery(r.db.QueryRow(ctx, query,
		delivery.ID, delivery.WebhookID, delivery.Event, delivery.Payload,
		delivery.StatusCode, delivery.ResponseBody, delivery.AttemptCount,
		delivery.NextRetryAt, delivery.DeliveredAt,
	))
	if err != nil {
		return model.WebhookDelivery{}, fmt.Errorf("failed to create delivery: %w", err)
	}

	return saved, nil
}

func (r *DeliveryRepository) Update(ctx context.Context, delivery model.WebhookDelivery) (model.WebhookDelivery, error) {
	query := `UPDATE webhook_deliveries
			  SET status_code = $2, response_body = $3, attempt_count = $4, next_retry_at = $5, delivered_at = $6
			  WHERE id = $1
			  RETURNING ` + deliveryColumns

	saved, err := scanDelivery(r.db.QueryRow(ctx, query,
		delivery.ID, delivery.StatusCode, delivery.ResponseBody,
		delivery.AttemptCount, delivery.NextRetryAt, delivery.DeliveredAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.WebhookDelivery{}, model.ErrNotFound
		}
		return model.WebhookDelivery{}, fmt.Errorf("failed to update delivery: %w", err)
	}

	return saved, nil
}

func (r *DeliveryRepository) ListByWebhook(ctx context.Context, webhookID uuid.UUID, limit int) ([]model.WebhookDelivery, error) {
	query := `SELECT ` + deliveryColumns + `
			  FROM webhook_deliveries WHERE webhook_id = $1
			  ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.Query(ctx, query, webhookID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	return collectDeliveries(rows)
}

func (r *DeliveryRepository) ListRetryable(ctx context.Context, now time.Time, maxAttempts int) ([]model.WebhookDelivery, error) {
	query := `SELECT ` + deliveryColumns + `
			  FROM webhook_deliveries
			  WHERE delivered_at IS NULL
			    AND attempt_count < $2
			    AND (next_retry_at IS NULL OR next_retry_at <= $1)
			  ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, now, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to list retryable deliveries: %w", err)
	}
	defer rows.Close()

	return collectDeliveries(rows)
}

func collectDeliveries(rows pgx.Rows) ([]model.WebhookDelivery, error) {
	var deliveries []model.WebhookDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deliveries: %w", err)
	}
	return deliveries, nil
}
