package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// MemoryService defines memory pass-through and snapshot operations.
type MemoryService interface {
	Add(ctx context.Context, project model.Project, req model.MemoryAddRequest) ([]model.MemoryRecord, error)
	Get(ctx context.Context, projectID, id uuid.UUID) (model.MemoryRecord, error)
	List(ctx context.Context, projectID uuid.UUID, userKey string, offset, limit int) ([]model.MemoryRecord, int, error)
	Search(ctx context.Context, project model.Project, query, userKey string, limit int) ([]model.MemorySearchResult, error)
	Update(ctx context.Context, principal model.Principal, project model.Project, id uuid.UUID, content string, metadata json.RawMessage) (model.MemoryRecord, error)
	Delete(ctx context.Context, project model.Project, id uuid.UUID) error
	DeleteAll(ctx context.Context, project model.Project, userKey string) (int, error)
	History(ctx context.Context, projectID, id uuid.UUID) ([]model.MemoryHistory, error)
	Export(ctx context.Context, principal model.Principal, project model.Project) (string, error)
	OpenExport(ctx context.Context, project model.Project, key string) (io.ReadCloser, error)
}

// Memories handles HTTP endpoints for memories within a project.
type Memories struct {
	projectResolver
	memories MemoryService
	logger   *logger.Logger
}

// NewMemories creates a new Memories handler.
func NewMemories(memories MemoryService, access AccessResolver, contextManager model.ContextManager, logger *logger.Logger) *Memories {
	return &Memories{
		projectResolver: projectResolver{access: access, contextManager: contextManager},
		memories:        memories,
		logger:          logger,
	}
}

type addMemoryRequest struct {
	Content  string          `json:"content" validate:"required"`
	UserKey  string          `json:"user_id" validate:"required"`
	AgentKey string          `json:"agent_id"`
	RunKey   string          `json:"run_id"`
	Metadata json.RawMessage `json:"metadata"`
}

// Add passes content to the engine, which extracts zero or more memories
// from it.
func (h *Memories) Add(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleMember)
	if err != nil {
		handleError(w, err)
		return
	}

	var req addMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.memories.Add(r.Context(), project, model.MemoryAddRequest{
		Content:  req.Content,
		UserKey:  req.UserKey,
		AgentKey: req.AgentKey,
		RunKey:   req.RunKey,
		Metadata: req.Metadata,
	})
	if err != nil {
		h.logger.Debug("Memories handler: add failed",
			"project_id", project.ID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	out := make([]memoryResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toMemoryResponse(rec))
	}
	respondJSON(w, http.StatusCreated, map[string]any{"results": out})
}

// Get returns one memory from the relational mirror.
func (h *Memories) Get(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleViewer)
	if err != nil {
		handleError(w, err)
		return
	}

	memoryID, err := uuidParam(r, "memoryID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid memory id")
		return
	}

	record, err := h.memories.Get(r.Context(), project.ID, memoryID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toMemoryResponse(record))
}

// List pages through the project's memories, optionally filtered by user
// key.
func (h *Memories) List(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleViewer)
	if err != nil {
		handleError(w, err)
		return
	}

	offset, limit := pageParams(r)
	records, total, err := h.memories.List(r.Context(), project.ID, r.URL.Query().Get("user_id"), offset, limit)
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]memoryResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toMemoryResponse(rec))
	}
	respondJSON(w, http.StatusOK, map[string]any{"memories": out, "total": total})
}

type searchMemoryRequest struct {
	Query   string `json:"query" validate:"required"`
	UserKey string `json:"user_id"`
	Limit   int    `json:"limit"`
}

// Search runs a semantic search through the engine.
func (h *Memories) Search(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleViewer)
	if err != nil {
		handleError(w, err)
		return
	}

	var req searchMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.memories.Search(r.Context(), project, req.Query, req.UserKey, req.Limit)
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]searchResultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, toSearchResultResponse(res))
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": out})
}

type updateMemoryRequest struct {
	Content  string          `json:"content" validate:"required"`
	Metadata json.RawMessage `json:"metadata"`
}

// Update rewrites a memory's content, keeping the previous revision in
// history.
func (h *Memories) Update(w http.ResponseWriter, r *http.Request) {
	project, principal, err := h.resolveProject(r, model.RoleMember)
	if err != nil {
		handleError(w, err)
		return
	}

	memoryID, err := uuidParam(r, "memoryID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid memory id")
		return
	}

	var req updateMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.memories.Update(r.Context(), principal, project, memoryID, req.Content, req.Metadata)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toMemoryResponse(record))
}

// Delete removes one memory from the engine and the mirror.
func (h *Memories) Delete(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleMember)
	if err != nil {
		handleError(w, err)
		return
	}

	memoryID, err := uuidParam(r, "memoryID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid memory id")
		return
	}

	if err := h.memories.Delete(r.Context(), project, memoryID); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// DeleteAll removes every memory for a user key.
func (h *Memories) DeleteAll(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	userKey := r.URL.Query().Get("user_id")
	if userKey == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	deleted, err := h.memories.DeleteAll(r.Context(), project, userKey)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("Memories handler: bulk delete completed",
		"project_id", project.ID,
		"user_key", userKey,
		"deleted", deleted)
	respondJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// History returns the revision trail of one memory, newest first.
func (h *Memories) History(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleViewer)
	if err != nil {
		handleError(w, err)
		return
	}

	memoryID, err := uuidParam(r, "memoryID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid memory id")
		return
	}

	history, err := h.memories.History(r.Context(), project.ID, memoryID)
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]historyResponse, 0, len(history))
	for _, rev := range history {
		out = append(out, toHistoryResponse(rev))
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": out})
}

// Export snapshots the project's memories to object storage and returns
// the snapshot key.
func (h *Memories) Export(w http.ResponseWriter, r *http.Request) {
	project, principal, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	key, err := h.memories.Export(r.Context(), principal, project)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// DownloadExport streams a previously created snapshot.
func (h *Memories) DownloadExport(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		respondError(w, http.StatusBadRequest, "key is required")
		return
	}

	reader, err := h.memories.OpenExport(r.Context(), project, key)
	if err != nil {
		handleError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/json")
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("Memories handler: snapshot streaming failed",
			"project_id", project.ID,
			"key", key,
			"error", err.Error())
	}
}
