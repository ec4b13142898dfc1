package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
	"github.com/sidstack/sidmemo-server/internal/security"
)

// Delivery policy. A payload gets at most maxAttempts POSTs; failed attempts
// are rescheduled with exponential backoff by the sweep loop.
const (
	maxAttempts       = 3
	responseBodyLimit = 2000
	backoffBase       = time.Minute
)

const (
	headerSignature = "X-Webhook-Signature"
	headerEvent     = "X-Webhook-Event"
)

// EventTest is the synthetic event used to verify an endpoint. It bypasses
// the webhook's event filter.
const EventTest = "webhook.test"

// Webhooks manages per-project webhook subscriptions and delivers event
// payloads to them. Delivery is fire-and-forget from the caller's view: a
// dead endpoint never fails the operation that triggered the event.
type Webhooks struct {
	webhookStore  model.WebhookStore
	deliveryStore model.DeliveryStore
	client        *http.Client
	logger        *logger.Logger
}

func NewWebhooks(webhookStore model.WebhookStore, deliveryStore model.DeliveryStore, timeout time.Duration, logger *logger.Logger) *Webhooks {
	return &Webhooks{
		webhookStore:  webhookStore,
		deliveryStore: deliveryStore,
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

// Create registers a webhook with a server-generated signing secret. The
// secret is part of the returned row only at creation time; the handler
// layer decides when to surface it.
func (s *Webhooks) Create(ctx context.Context, projectID uuid.UUID, url string, events []string) (model.Webhook, error) {
	secret, err := security.GenerateSecret(security.WebhookSecretBytes)
	if err != nil {
		return model.Webhook{}, fmt.Errorf("failed to generate webhook secret: %w", err)
	}
	if len(events) == 0 {
		events = []string{model.EventWildcard}
	}

	webhook, err := s.webhookStore.Create(ctx, model.Webhook{
		ID:        uuid.New(),
		ProjectID: projectID,
		URL:       url,
		Secret:    secret,
		Events:    events,
		IsActive:  true,
	})
	if err != nil {
		return model.Webhook{}, fmt.Errorf("failed to create webhook: %w", err)
	}

	s.logger.Info("Webhook service: webhook created", "webhook_id", webhook.ID, "project_id", projectID)
	return webhook, nil
}

func (s *Webhooks) List(ctx context.Context, projectID uuid.UUID) ([]model.Webhook, error) {
	webhooks, err := s.webhookStore.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	return webhooks, nil
}

// Get returns a webhook after checking it belongs to the project.
func (s *Webhooks) Get(ctx context.Context, projectID, webhookID uuid.UUID) (model.Webhook, error) {
	webhook, err := s.webhookStore.GetByID(ctx, webhookID)
	if err != nil {
		return model.Webhook{}, fmt.Errorf("failed to get webhook: %w", err)
	}
	if webhook.ProjectID != projectID {
		return model.Webhook{}, model.ErrNotFound
	}
	return webhook, nil
}

// Update changes URL, event filter, or active flag. The signing secret is
// immutable.
func (s *Webhooks) Update(ctx context.Context, projectID, webhookID uuid.UUID, url *string, events []string, isActive *bool) (model.Webhook, error) {
	webhook, err := s.Get(ctx, projectID, webhookID)
	if err != nil {
		return model.Webhook{}, err
	}

	if url != nil {
		webhook.URL = *url
	}
	if events != nil {
		webhook.Events = events
	}
	if isActive != nil {
		webhook.IsActive = *isActive
	}

	updated, err := s.webhookStore.Update(ctx, webhook)
	if err != nil {
		return model.Webhook{}, fmt.Errorf("failed to update webhook: %w", err)
	}
	return updated, nil
}

// Delete removes a webhook and its delivery history.
func (s *Webhooks) Delete(ctx context.Context, projectID, webhookID uuid.UUID) error {
	if _, err := s.Get(ctx, projectID, webhookID); err != nil {
		return err
	}
	if err := s.webhookStore.Delete(ctx, webhookID); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

// ListDeliveries returns the webhook's most recent delivery attempts.
func (s *Webhooks) ListDeliveries(ctx context.Context, projectID, webhookID uuid.UUID, limit int) ([]model.WebhookDelivery, error) {
	if _, err := s.Get(ctx, projectID, webhookID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	deliveries, err := s.deliveryStore.ListByWebhook(ctx, webhookID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return deliveries, nil
}

// envelope is the wire shape of a delivered event. The signature covers the
// exact serialized bytes, so the payload is marshaled once per event and
// reused verbatim for retries.
type envelope struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Fire delivers an event to every active matching webhook of the project.
// Failures are recorded for retry and never propagated to the caller.
func (s *Webhooks) Fire(ctx context.Context, projectID uuid.UUID, event string, data any) {
	webhooks, err := s.webhookStore.ListActiveByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("Webhook service: failed to list webhooks",
			"project_id", projectID, "event", event, "error", err.Error())
		return
	}

	var payload []byte
	for _, webhook := range webhooks {
		if !webhook.Matches(event) {
			continue
		}
		if payload == nil {
			payload, err = json.Marshal(envelope{Event: event, Timestamp: time.Now().UTC(), Data: data})
			if err != nil {
				s.logger.Error("Webhook service: failed to marshal payload",
					"project_id", projectID, "event", event, "error", err.Error())
				return
			}
		}
		s.deliver(ctx, webhook, event, payload)
	}
}

// Test sends a synthetic event to one webhook regardless of its event
// filter and returns the recorded attempt.
func (s *Webhooks) Test(ctx context.Context, projectID, webhookID uuid.UUID) (model.WebhookDelivery, error) {
	webhook, err := s.Get(ctx, projectID, webhookID)
	if err != nil {
		return model.WebhookDelivery{}, err
	}

	payload, err := json.Marshal(envelope{
		Event:     EventTest,
		Timestamp: time.Now().UTC(),
		Data:      map[string]string{"webhook_id": webhook.ID.String()},
	})
	if err != nil {
		return model.WebhookDelivery{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return s.deliver(ctx, webhook, EventTest, payload), nil
}

// deliver performs the first attempt for a fresh payload and records it.
func (s *Webhooks) deliver(ctx context.Context, webhook model.Webhook, event string, payload []byte) model.WebhookDelivery {
	now := time.Now()
	statusCode, responseBody := s.post(ctx, webhook, event, payload)

	delivery := model.WebhookDelivery{
		ID:           uuid.New(),
		WebhookID:    webhook.ID,
		Event:        event,
		Payload:      payload,
		StatusCode:   statusCode,
		ResponseBody: responseBody,
		AttemptCount: 1,
	}
	if succeeded(statusCode) {
		delivery.DeliveredAt = &now
	} else {
		next := now.Add(backoff(1))
		delivery.NextRetryAt = &next
	}

	saved, err := s.deliveryStore.Create(ctx, delivery)
	if err != nil {
		s.logger.Error("Webhook service: failed to record delivery",
			"webhook_id", webhook.ID, "event", event, "error", err.Error())
		saved = delivery
	}

	if err := s.webhookStore.RecordResult(ctx, webhook.ID, now, statusCode); err != nil {
		s.logger.Error("Webhook service: failed to record webhook result",
			"webhook_id", webhook.ID, "error", err.Error())
	}

	return saved
}

// RetrySweep re-attempts every due undelivered payload and returns how many
// deliveries succeeded. Meant to run on a ticker; one failing row never
// stops the sweep.
func (s *Webhooks) RetrySweep(ctx context.Context) int {
	now := time.Now()
	deliveries, err := s.deliveryStore.ListRetryable(ctx, now, maxAttempts)
	if err != nil {
		s.logger.Error("Webhook service: failed to list retryable deliveries", "error", err.Error())
		return 0
	}

	delivered := 0

	for _, delivery := range deliveries {
		webhook, err := s.webhookStore.GetByID(ctx, delivery.WebhookID)
		if err != nil {
			s.logger.Error("Webhook service: failed to load webhook for retry",
				"delivery_id", delivery.ID, "error", err.Error())
			continue
		}
		if !webhook.IsActive {
			continue
		}

		attemptAt := time.Now()
		statusCode, responseBody := s.post(ctx, webhook, delivery.Event, delivery.Payload)

		delivery.StatusCode = statusCode
		delivery.ResponseBody = responseBody
		delivery.AttemptCount++
		delivery.NextRetryAt = nil
		delivery.DeliveredAt = nil
		if succeeded(statusCode) {
			delivery.DeliveredAt = &attemptAt
			delivered++
		} else if delivery.AttemptCount < maxAttempts {
			next := attemptAt.Add(backoff(delivery.AttemptCount))
			delivery.NextRetryAt = &next
		}

		if _, err := s.deliveryStore.Update(ctx, delivery); err != nil {
			s.logger.Error("Webhook service: failed to update delivery",
				"delivery_id", delivery.ID, "error", err.Error())
		}
		if err := s.webhookStore.RecordResult(ctx, webhook.ID, attemptAt, statusCode); err != nil {
			s.logger.Error("Webhook service: failed to record webhook result",
				"webhook_id", webhook.ID, "error", err.Error())
		}
	}

	return delivered
}

// post signs and sends the payload. A transport failure yields a nil status
// code with the error text as the recorded body; any HTTP response, success
// or not, yields its code and a truncated body.
func (s *Webhooks) post(ctx context.Context, webhook model.Webhook, event string, payload []byte) (*int, *string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(payload))
	if err != nil {
		s.logger.Error("Webhook service: failed to build request",
			"webhook_id", webhook.ID, "error", err.Error())
		return nil, truncated(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerEvent, event)
	req.Header.Set(headerSignature, Sign(webhook.Secret, payload))

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Info("Webhook service: delivery failed",
			"webhook_id", webhook.ID, "url", webhook.URL, "error", err.Error())
		return nil, truncated(err.Error())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	statusCode := resp.StatusCode
	return &statusCode, truncated(string(body))
}

func truncated(body string) *string {
	if len(body) > responseBodyLimit {
		body = body[:responseBodyLimit]
	}
	return &body
}

// Sign computes the hex HMAC-SHA256 signature of the payload bytes.
// Receivers must verify against the raw request body, not a re-serialized
// form.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func succeeded(statusCode *int) bool {
	return statusCode != nil && *statusCode >= 200 && *statusCode < 300
}

// backoff returns the delay before the next attempt after the given number
// of completed attempts: 1m, 4m, 16m, ...
func backoff(attempts int) time.Duration {
	d := backoffBase
	for i := 1; i < attempts; i++ {
		d *= 4
	}
	return d
}
