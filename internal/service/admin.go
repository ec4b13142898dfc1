package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// Admin implements the superadmin surface: instance stats and account
// management. Authorization is checked by the handler layer.
type Admin struct {
	userStore    model.UserStore
	projectStore model.ProjectStore
	memoryStore  model.MemoryStore
	audit        *Audit
	logger       *logger.Logger
}

func NewAdmin(userStore model.UserStore, projectStore model.ProjectStore, memoryStore model.MemoryStore, audit *Audit, logger *logger.Logger) *Admin {
	return &Admin{
		userStore:    userStore,
		projectStore: projectStore,
		memoryStore:  memoryStore,
		audit:        audit,
		logger:       logger,
	}
}

// InstanceStats are whole-instance counters.
type InstanceStats struct {
	Users    int
	Projects int
	Memories int
}

// Stats counts users, projects, and mirrored memories.
func (s *Admin) Stats(ctx context.Context) (InstanceStats, error) {
	users, err := s.userStore.Count(ctx)
	if err != nil {
		return InstanceStats{}, fmt.Errorf("failed to count users: %w", err)
	}
	projects, err := s.projectStore.Count(ctx)
	if err != nil {
		return InstanceStats{}, fmt.Errorf("failed to count projects: %w", err)
	}
	memories, err := s.memoryStore.Count(ctx)
	if err != nil {
		return InstanceStats{}, fmt.Errorf("failed to count memories: %w", err)
	}

	return InstanceStats{Users: users, Projects: projects, Memories: memories}, nil
}

// ListUsers pages all accounts.
func (s *Admin) ListUsers(ctx context.Context, offset, limit int) ([]model.User, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	users, total, err := s.userStore.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// SetUserActive enables or disables an account. Superadmins cannot disable
// themselves.
func (s *Admin) SetUserActive(ctx context.Context, principal model.Principal, userID uuid.UUID, active bool) (model.User, error) {
	if userID == principal.User.ID && !active {
		return model.User{}, model.ErrInvalidInput
	}

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	user.IsActive = active
	updated, err := s.userStore.Update(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	action := "admin.user_disabled"
	if active {
		action = "admin.user_enabled"
	}
	s.audit.RecordAction(ctx, principal, nil, action, "user", userID.String(), nil)
	s.logger.Info("Admin service: user active flag changed", "user_id", userID, "active", active)
	return updated, nil
}
