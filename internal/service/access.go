package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// Access resolves a user's effective role in a project and gates operations
// by minimum role. Project existence is disclosed before membership: an
// unknown or archived slug yields ErrNotFound, while an existing project the
// user cannot touch yields ErrForbidden.
type Access struct {
	projectStore model.ProjectStore
	memberStore  model.MemberStore
	logger       *logger.Logger
}

func NewAccess(projectStore model.ProjectStore, memberStore model.MemberStore, logger *logger.Logger) *Access {
	return &Access{projectStore: projectStore, memberStore: memberStore, logger: logger}
}

// Resolve loads the project by slug and checks that the user holds at least
// minRole in it. Superadmins pass every check with an effective owner role.
func (a *Access) Resolve(ctx context.Context, user model.User, slug string, minRole model.Role) (model.Project, model.Role, error) {
	project, err := a.projectStore.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Project{}, "", model.ErrNotFound
		}
		return model.Project{}, "", fmt.Errorf("failed to get project by slug: %w", err)
	}
	if project.IsArchived {
		return model.Project{}, "", model.ErrNotFound
	}

	if user.IsSuperadmin {
		return project, model.RoleOwner, nil
	}

	member, err := a.memberStore.Get(ctx, project.ID, user.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.logger.Debug("Access service: user is not a member",
				"user_id", user.ID, "project_id", project.ID)
			return model.Project{}, "", model.ErrForbidden
		}
		return model.Project{}, "", fmt.Errorf("failed to get membership: %w", err)
	}

	if !member.Role.AtLeast(minRole) {
		a.logger.Debug("Access service: insufficient role",
			"user_id", user.ID, "project_id", project.ID,
			"role", member.Role, "required", minRole)
		return model.Project{}, "", model.ErrForbidden
	}

	return project, member.Role, nil
}
