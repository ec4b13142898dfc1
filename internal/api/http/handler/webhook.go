package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// WebhookService defines webhook subscription and delivery operations.
type WebhookService interface {
	Create(ctx context.Context, projectID uuid.UUID, url string, events []string) (model.Webhook, error)
	List(ctx context.Context, projectID uuid.UUID) ([]model.Webhook, error)
	Get(ctx context.Context, projectID, webhookID uuid.UUID) (model.Webhook, error)
	Update(ctx context.Context, projectID, webhookID uuid.UUID, url *string, events []string, isActive *bool) (model.Webhook, error)
	Delete(ctx context.Context, projectID, webhookID uuid.UUID) error
	Test(ctx context.Context, projectID, webhookID uuid.UUID) (model.WebhookDelivery, error)
	ListDeliveries(ctx context.Context, projectID, webhookID uuid.UUID, limit int) ([]model.WebhookDelivery, error)
}

// Webhooks handles HTTP endpoints for webhook subscriptions.
type Webhooks struct {
	projectResolver
	webhooks WebhookService
	logger   *logger.Logger
}

// NewWebhooks creates a new Webhooks handler.
func NewWebhooks(webhooks WebhookService, access AccessResolver, contextManager model.ContextManager, logger *logger.Logger) *Webhooks {
	return &Webhooks{
		projectResolver: projectResolver{access: access, contextManager: contextManager},
		webhooks:        webhooks,
		logger:          logger,
	}
}

type createWebhookRequest struct {
	URL    string   `json:"url" validate:"required,url"`
	Events []string `json:"events"`
}

type createWebhookResponse struct {
	webhookResponse
	Secret string `json:"secret"`
}

// Create registers a webhook. The signing secret is returned once; an
// empty event list subscribes to everything.
func (h *Webhooks) Create(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	var req createWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	webhook, err := h.webhooks.Create(r.Context(), project.ID, req.URL, req.Events)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("Webhooks handler: webhook created",
		"project_id", project.ID,
		"webhook_id", webhook.ID)
	respondJSON(w, http.StatusCreated, createWebhookResponse{
		webhookResponse: toWebhookResponse(webhook),
		Secret:          webhook.Secret,
	})
}

// List returns the project's webhooks without secrets.
func (h *Webhooks) List(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleViewer)
	if err != nil {
		handleError(w, err)
		return
	}

	webhooks, err := h.webhooks.List(r.Context(), project.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]webhookResponse, 0, len(webhooks))
	for _, wh := range webhooks {
		out = append(out, toWebhookResponse(wh))
	}
	respondJSON(w, http.StatusOK, map[string]any{"webhooks": out})
}

// Get returns one webhook.
func (h *Webhooks) Get(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleViewer)
	if err != nil {
		handleError(w, err)
		return
	}

	webhookID, err := uuidParam(r, "webhookID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid webhook id")
		return
	}

	webhook, err := h.webhooks.Get(r.Context(), project.ID, webhookID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toWebhookResponse(webhook))
}

type updateWebhookRequest struct {
	URL      *string  `json:"url" validate:"omitempty,url"`
	Events   []string `json:"events"`
	IsActive *bool    `json:"is_active"`
}

// Update changes a webhook's URL, event list or active flag. The secret is
// immutable.
func (h *Webhooks) Update(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	webhookID, err := uuidParam(r, "webhookID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid webhook id")
		return
	}

	var req updateWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	webhook, err := h.webhooks.Update(r.Context(), project.ID, webhookID, req.URL, req.Events, req.IsActive)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toWebhookResponse(webhook))
}

// Delete removes a webhook and its delivery history.
func (h *Webhooks) Delete(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	webhookID, err := uuidParam(r, "webhookID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid webhook id")
		return
	}

	if err := h.webhooks.Delete(r.Context(), project.ID, webhookID); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Test sends a synthetic event to the webhook regardless of its event
// filter and returns the recorded delivery.
func (h *Webhooks) Test(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	webhookID, err := uuidParam(r, "webhookID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid webhook id")
		return
	}

	delivery, err := h.webhooks.Test(r.Context(), project.ID, webhookID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toDeliveryResponse(delivery))
}

// Deliveries lists the webhook's recent delivery attempts, newest first.
func (h *Webhooks) Deliveries(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleViewer)
	if err != nil {
		handleError(w, err)
		return
	}

	webhookID, err := uuidParam(r, "webhookID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid webhook id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	deliveries, err := h.webhooks.ListDeliveries(r.Context(), project.ID, webhookID, limit)
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]deliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		out = append(out, toDeliveryResponse(d))
	}
	respondJSON(w, http.StatusOK, map[string]any{"deliveries": out})
}
