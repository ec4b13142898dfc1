package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// MemberService defines project membership operations.
type MemberService interface {
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.MemberWithUser, error)
	AddMember(ctx context.Context, principal model.Principal, project model.Project, email string, role model.Role) (model.MemberWithUser, error)
	UpdateMemberRole(ctx context.Context, principal model.Principal, project model.Project, userID uuid.UUID, role model.Role) (model.ProjectMember, error)
	RemoveMember(ctx context.Context, principal model.Principal, project model.Project, userID uuid.UUID) error
}

// Members handles HTTP endpoints for project membership.
type Members struct {
	projectResolver
	members MemberService
	logger  *logger.Logger
}

// NewMembers creates a new Members handler.
func NewMembers(members MemberService, access AccessResolver, contextManager model.ContextManager, logger *logger.Logger) *Members {
	return &Members{
		projectResolver: projectResolver{access: access, contextManager: contextManager},
		members:         members,
		logger:          logger,
	}
}

// List returns the project's members, owner first.
func (h *Members) List(w http.ResponseWriter, r *http.Request) {
	project, _, err := h.resolveProject(r, model.RoleViewer)
	if err != nil {
		handleError(w, err)
		return
	}

	members, err := h.members.ListMembers(r.Context(), project.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	respondJSON(w, http.StatusOK, map[string]any{"members": out})
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

// Add invites an existing user into the project. The owner role cannot be
// granted.
func (h *Members) Add(w http.ResponseWriter, r *http.Request) {
	project, principal, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		handleError(w, err)
		return
	}

	member, err := h.members.AddMember(r.Context(), principal, project, req.Email, role)
	if err != nil {
		h.logger.Debug("Members handler: add failed",
			"project_id", project.ID,
			"email", req.Email,
			"error", err.Error())
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toMemberResponse(member))
}

type updateMemberRequest struct {
	Role string `json:"role" validate:"required"`
}

// UpdateRole changes a member's role. The owner's row is immutable.
func (h *Members) UpdateRole(w http.ResponseWriter, r *http.Request) {
	project, principal, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	userID, err := uuidParam(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		handleError(w, err)
		return
	}

	member, err := h.members.UpdateMemberRole(r.Context(), principal, project, userID, role)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": member.UserID,
		"role":    string(member.Role),
	})
}

// Remove removes a member. The owner cannot be removed.
func (h *Members) Remove(w http.ResponseWriter, r *http.Request) {
	project, principal, err := h.resolveProject(r, model.RoleAdmin)
	if err != nil {
		handleError(w, err)
		return
	}

	userID, err := uuidParam(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.members.RemoveMember(r.Context(), principal, project, userID); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
