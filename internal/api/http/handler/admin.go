package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
	"github.com/sidstack/sidmemo-server/internal/service"
)

// AdminService defines instance-wide administrative operations.
type AdminService interface {
	Stats(ctx context.Context) (service.InstanceStats, error)
	ListUsers(ctx context.Context, offset, limit int) ([]model.User, int, error)
	SetUserActive(ctx context.Context, principal model.Principal, userID uuid.UUID, active bool) (model.User, error)
}

// Admin handles HTTP endpoints restricted to superadmins.
type Admin struct {
	admin          AdminService
	audit          AuditService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAdmin creates a new Admin handler.
func NewAdmin(admin AdminService, audit AuditService, contextManager model.ContextManager, logger *logger.Logger) *Admin {
	return &Admin{
		admin:          admin,
		audit:          audit,
		contextManager: contextManager,
		logger:         logger,
	}
}

func (h *Admin) superadmin(r *http.Request) (model.Principal, error) {
	principal, err := currentPrincipal(h.contextManager, r)
	if err != nil {
		return model.Principal{}, err
	}
	if !principal.User.IsSuperadmin {
		return model.Principal{}, model.ErrForbidden
	}
	return principal, nil
}

type statsResponse struct {
	Users    int `json:"users"`
	Projects int `json:"projects"`
	Memories int `json:"memories"`
}

// Stats returns instance-wide counts.
func (h *Admin) Stats(w http.ResponseWriter, r *http.Request) {
	if _, err := h.superadmin(r); err != nil {
		handleError(w, err)
		return
	}

	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, statsResponse{
		Users:    stats.Users,
		Projects: stats.Projects,
		Memories: stats.Memories,
	})
}

// ListUsers pages through every registered account.
func (h *Admin) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := h.superadmin(r); err != nil {
		handleError(w, err)
		return
	}

	offset, limit := pageParams(r)
	users, total, err := h.admin.ListUsers(r.Context(), offset, limit)
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": out, "total": total})
}

type setUserActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SetUserActive enables or disables an account. Superadmins cannot disable
// themselves.
func (h *Admin) SetUserActive(w http.ResponseWriter, r *http.Request) {
	principal, err := h.superadmin(r)
	if err != nil {
		handleError(w, err)
		return
	}

	userID, err := uuidParam(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req setUserActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.admin.SetUserActive(r.Context(), principal, userID, *req.IsActive)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("Admin handler: user active flag changed",
		"user_id", userID,
		"is_active", *req.IsActive)
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// Audit lists the instance-wide audit trail, newest first.
func (h *Admin) Audit(w http.ResponseWriter, r *http.Request) {
	if _, err := h.superadmin(r); err != nil {
		handleError(w, err)
		return
	}

	offset, limit := pageParams(r)
	filter := model.AuditFilter{
		Action: r.URL.Query().Get("action"),
		Offset: offset,
		Limit:  limit,
	}
	if actor := r.URL.Query().Get("actor_id"); actor != "" {
		actorID, err := uuid.Parse(actor)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid actor id")
			return
		}
		filter.ActorID = &actorID
	}

	entries, total, err := h.audit.List(r.Context(), filter)
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
