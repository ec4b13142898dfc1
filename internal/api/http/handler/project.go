package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// ProjectService defines project lifecycle and configuration operations.
type ProjectService interface {
	Create(ctx context.Context, principal model.Principal, name, description string) (model.Project, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]model.ProjectWithRole, error)
	Update(ctx context.Context, principal model.Principal, project model.Project, name, description *string) (model.Project, error)
	Archive(ctx context.Context, principal model.Principal, project model.Project) error
	GetConfig(ctx context.Context, projectID uuid.UUID) (model.ProjectConfig, error)
	UpdateConfig(ctx context.Context, principal model.Principal, projectID uuid.UUID, llm, embedder, vectorStore, graphStore json.RawMessage) (model.ProjectConfig, error)
}

// UsageService summarizes recorded API events for a project.
type UsageService interface {
	Summary(ctx context.Context, projectID uuid.UUID, window time.Duration) (model.UsageSummary, error)
}

// AuditService lists recorded audit entries.
type AuditService interface {
	List(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, int, error)
}

// Projects handles HTTP endpoints for projects, their configuration, usage
// and audit history.
type Projects struct {
	projectResolver
	projects ProjectService
	usage    UsageService
	audit    AuditService
	logger   *logger.Logger
}

// NewProjects creates a new Projects handler.
func NewProjects(
	projects ProjectService,
	usage UsageService,
	audit AuditService,
	access AccessResolver,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Projects {
	return &Projects{
		projectResolver: projectResolver{access: access, contextManager: contextManager},
		projects:        projects,
		usage:           usage,
		audit:           audit,
		logger:          logger,
	}
}

type createProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// Create creates a project. The caller becomes its owner.
func (h *Projects) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(h.contextManager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.projects.Create(r.Context(), principal, req.Name, req.Description)
	if err != nil {
		h.logger.Debug("Projects handler: create failed",
			"name", req.Name,
			"error", err.Error())
		handleError(w, err)
		return
	}

	h.contextManager.SetProjectID(r.Context(), project.ID)
	respondJSON(w, http.StatusCreated, toProjectResponse(project, model.RoleOwner))
}

// List returns the projects the caller belongs to.
func (h *Projects) List(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(h.contextManager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	projects, err := h.projects.ListMine(r.Context(), principal.User.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p.Project, p.Role))
	}
	respondJSON(w, http.StatusOK, map[string]any{"projects": out})
}

// Get returns one project by slug.
func (h *Projects) Get(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(h.contextManager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	project, role, err := h.access.Resolve(r.Context(), principal.User, slugParam(r), model.RoleViewer)
	if err != nil {
		handleError(w, err)
		return
	}

	h.contextManager.SetProjectID(r.Context(), project.ID)
	respondJSON(w, http.StatusOK, toProjectResponse(project, role))
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Update changes project display fields. The slug is immutable.
func (h *Projects) Update(w http.ResponseWriter, r *http.Request) {
	project, principal, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	var req updateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.projects.Update(r.Context(), principal, project, req.Name, req.Description)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toProjectResponse(updated, model.Role("")))
}

// Archive soft-deletes a project; archived projects disappear from every
// listing and lookup.
func (h *Projects) Archive(w http.ResponseWriter, r *http.Request) {
	project, principal, err := h.resolveProject(r, model.RoleOwner)
	if err != nil {
		handleError(w, err)
		return
	}

	if err := h.projects.Archive(r.Context(), principal, project); err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("Projects handler: project archived",
		"project_id", project.ID,
		"user_id", principal.User.ID)
	respondJSON(w, http.StatusNoContent, nil)
}

// GetConfig returns the project's engine configuration. Config blocks can
// carry provider credentials, so reads require admin.
func (h *Projects) GetConfig(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	config, err := h.projects.GetConfig(r.Context(), project.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toConfigResponse(config))
}

type updateConfigRequest struct {
	LLMConfig         json.RawMessage `json:"llm_config"`
	EmbedderConfig    json.RawMessage `json:"embedder_config"`
	VectorStoreConfig json.RawMessage `json:"vector_store_config"`
	GraphStoreConfig  json.RawMessage `json:"graph_store_config"`
}

// UpdateConfig replaces the provided config blocks; omitted blocks keep
// their current value.
func (h *Projects) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	project, principal, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	var req updateConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	config, err := h.projects.UpdateConfig(r.Context(), principal, project.ID,
		req.LLMConfig, req.EmbedderConfig, req.VectorStoreConfig, req.GraphStoreConfig)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toConfigResponse(config))
}

type usageResponse struct {
	TotalRequests  int            `json:"total_requests"`
	ErrorRequests  int            `json:"error_requests"`
	AvgLatencyMS   float64        `json:"avg_latency_ms"`
	CountsByAction map[string]int `json:"counts_by_action"`
}

// Usage returns aggregated API usage over a trailing window of days
// (default 30, max 90).
func (h *Projects) Usage(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleViewer)
	if err != nil {
		handleError(w, err)
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 || days > 90 {
		days = 30
	}

	summary, err := h.usage.Summary(r.Context(), project.ID, time.Duration(days)*24*time.Hour)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, usageResponse{
		TotalRequests:  summary.TotalRequests,
		ErrorRequests:  summary.ErrorRequests,
		AvgLatencyMS:   summary.AvgLatencyMS,
		CountsByAction: summary.CountsByAction,
	})
}

// Audit lists the project's audit trail, newest first.
func (h *Projects) Audit(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	offset, limit := pageParams(r)
	entries, total, err := h.audit.List(r.Context(), model.AuditFilter{
		ProjectID: &project.ID,
		Action:    r.URL.Query().Get("action"),
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]auditResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditResponse(e))
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": out, "total": total})
}
