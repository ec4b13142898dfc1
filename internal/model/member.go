package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is a project membership role from an ordered set.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// roleRanks is the total order used for access checks. Unknown roles rank 0.
var roleRanks = map[Role]int{
	RoleViewer: 1,
	RoleMember: 2,
	RoleAdmin:  3,
	RoleOwner:  4,
}

// Rank returns the integer rank of the role, 0 for unknown values.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether the role's rank satisfies the minimum.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}

// ParseRole validates a persisted role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return "", ErrInvalidInput
	}
	return r, nil
}

// MemberStore defines persistence operations for project memberships.
type MemberStore interface {
	// Create fails with ErrConflict when the (project, user) pair exists.
	Create(ctx context.Context, member ProjectMember) (ProjectMember, error)
	Get(ctx context.Context, projectID, userID uuid.UUID) (ProjectMember, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]MemberWithUser, error)
	UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role Role) (ProjectMember, error)
	Delete(ctx context.Context, projectID, userID uuid.UUID) error
}

// ProjectMember binds a user to a project under exactly one role.
// The creating user's owner row is immutable through member mutations.
type ProjectMember struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Role      Role
	InvitedBy *uuid.UUID
	CreatedAt time.Time
}

// MemberWithUser joins a membership with its user's display fields.
type MemberWithUser struct {
	ProjectMember
	Email string
	Name  string
}
