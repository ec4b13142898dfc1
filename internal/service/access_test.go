package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sidstack/sidmemo-server/internal/mocks"
	"github.com/sidstack/sidmemo-server/internal/model"
	"github.com/sidstack/sidmemo-server/internal/testutil"
)

func TestAccess_Resolve(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: uuid.New(), IsActive: true}
	project := model.Project{ID: uuid.New(), Slug: "acme"}

	t.Run("unknown slug is not found", func(t *testing.T) {
		projectStore := &mocks.ProjectStore{}
		projectStore.On("GetBySlug", mock.Anything, "ghost").Return(model.Project{}, model.ErrNotFound)

		a := NewAccess(projectStore, &mocks.MemberStore{}, testutil.MakeNoopLogger())
		_, _, err := a.Resolve(ctx, user, "ghost", model.RoleViewer)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("archived project is not found", func(t *testing.T) {
		archived := project
		archived.IsArchived = true
		projectStore := &mocks.ProjectStore{}
		projectStore.On("GetBySlug", mock.Anything, "acme").Return(archived, nil)

		a := NewAccess(projectStore, &mocks.MemberStore{}, testutil.MakeNoopLogger())
		_, _, err := a.Resolve(ctx, user, "acme", model.RoleViewer)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("non-member is forbidden", func(t *testing.T) {
		projectStore := &mocks.ProjectStore{}
		memberStore := &mocks.MemberStore{}
		projectStore.On("GetBySlug", mock.Anything, "acme").Return(project, nil)
		memberStore.On("Get", mock.Anything, project.ID, user.ID).Return(model.ProjectMember{}, model.ErrNotFound)

		a := NewAccess(projectStore, memberStore, testutil.MakeNoopLogger())
		_, _, err := a.Resolve(ctx, user, "acme", model.RoleViewer)
		assert.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("insufficient role is forbidden", func(t *testing.T) {
		projectStore := &mocks.ProjectStore{}
		memberStore := &mocks.MemberStore{}
		projectStore.On("GetBySlug", mock.Anything, "acme").Return(project, nil)
		memberStore.On("Get", mock.Anything, project.ID, user.ID).Return(model.ProjectMember{Role: model.RoleViewer}, nil)

		a := NewAccess(projectStore, memberStore, testutil.MakeNoopLogger())
		_, _, err := a.Resolve(ctx, user, "acme", model.RoleAdmin)
		assert.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("sufficient role passes", func(t *testing.T) {
		projectStore := &mocks.ProjectStore{}
		memberStore := &mocks.MemberStore{}
		projectStore.On("GetBySlug", mock.Anything, "acme").Return(project, nil)
		memberStore.On("Get", mock.Anything, project.ID, user.ID).Return(model.ProjectMember{Role: model.RoleAdmin}, nil)

		a := NewAccess(projectStore, memberStore, testutil.MakeNoopLogger())
		got, role, err := a.Resolve(ctx, user, "acme", model.RoleMember)
		require.NoError(t, err)
		assert.Equal(t, project.ID, got.ID)
		assert.Equal(t, model.RoleAdmin, role)
	})

	t.Run("superadmin bypasses membership", func(t *testing.T) {
		super := model.User{ID: uuid.New(), IsSuperadmin: true}
		projectStore := &mocks.ProjectStore{}
		memberStore := &mocks.MemberStore{}
		projectStore.On("GetBySlug", mock.Anything, "acme").Return(project, nil)

		a := NewAccess(projectStore, memberStore, testutil.MakeNoopLogger())
		_, role, err := a.Resolve(ctx, super, "acme", model.RoleOwner)
		require.NoError(t, err)
		assert.Equal(t, model.RoleOwner, role)
		memberStore.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRole_Ordering(t *testing.T) {
	assert.True(t, model.RoleOwner.AtLeast(model.RoleAdmin))
	assert.True(t, model.RoleAdmin.AtLeast(model.RoleAdmin))
	assert.False(t, model.RoleMember.AtLeast(model.RoleAdmin))
	assert.False(t, model.Role("intruder").AtLeast(model.RoleViewer))

	_, err := model.ParseRole("admin")
	assert.NoError(t, err)
	_, err = model.ParseRole("root")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
