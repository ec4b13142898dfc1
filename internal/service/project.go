package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// EngineDefaults seeds a new project's engine configuration.
type EngineDefaults struct {
	LLMGatewayURL string
	LLMGatewayKey string
	LLMModel      string
	EmbedModel    string
}

// Projects implements project lifecycle, per-project engine configuration,
// and membership management.
type Projects struct {
	projectStore model.ProjectStore
	memberStore  model.MemberStore
	userStore    model.UserStore
	engine       model.MemoryEngine
	audit        *Audit
	defaults     EngineDefaults
	logger       *logger.Logger
}

func NewProjects(
	projectStore model.ProjectStore,
	memberStore model.MemberStore,
	userStore model.UserStore,
	engine model.MemoryEngine,
	audit *Audit,
	defaults EngineDefaults,
	logger *logger.Logger,
) *Projects {
	return &Projects{
		projectStore: projectStore,
		memberStore:  memberStore,
		userStore:    userStore,
		engine:       engine,
		audit:        audit,
		defaults:     defaults,
		logger:       logger,
	}
}

// Slugify lowercases the name and collapses every non-alphanumeric run into
// a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) && r < unicode.MaxASCII || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// Create provisions a project: the row, its engine config, and the creator's
// owner membership commit atomically. A taken slug is a conflict, not an
// occasion for suffix invention.
func (s *Projects) Create(ctx context.Context, principal model.Principal, name, description string) (model.Project, error) {
	s.logger.Debug("Project service: creating project", "name", name, "user_id", principal.User.ID)

	slug := Slugify(name)
	if slug == "" {
		return model.Project{}, model.ErrInvalidInput
	}

	project := model.Project{
		ID:               uuid.New(),
		Slug:             slug,
		Name:             name,
		OwnerID:          principal.User.ID,
		VectorCollection: "mem0_" + strings.ReplaceAll(slug, "-", "_"),
	}
	if description != "" {
		project.Description = &description
	}

	config := model.ProjectConfig{
		ID:             uuid.New(),
		LLMConfig:      s.llmDefaults(),
		EmbedderConfig: s.embedderDefaults(),
	}

	owner := model.ProjectMember{
		ID:     uuid.New(),
		UserID: principal.User.ID,
		Role:   model.RoleOwner,
	}

	created, err := s.projectStore.Create(ctx, project, config, owner)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			s.logger.Info("Project service: slug taken", "slug", slug)
			return model.Project{}, model.ErrConflict
		}
		return model.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	s.audit.RecordAction(ctx, principal, &created.ID, "project.created", "project", created.Slug, nil)
	s.logger.Info("Project service: project created", "project_id", created.ID, "slug", created.Slug)
	return created, nil
}

func (s *Projects) llmDefaults() json.RawMessage {
	data, _ := json.Marshal(map[string]any{
		"provider": "openai_compatible",
		"model":    s.defaults.LLMModel,
		"base_url": s.defaults.LLMGatewayURL,
		"api_key":  s.defaults.LLMGatewayKey,
	})
	return data
}

func (s *Projects) embedderDefaults() json.RawMessage {
	data, _ := json.Marshal(map[string]any{
		"provider": "openai_compatible",
		"model":    s.defaults.EmbedModel,
		"base_url": s.defaults.LLMGatewayURL,
		"api_key":  s.defaults.LLMGatewayKey,
	})
	return data
}

// ListMine returns non-archived projects where the user is a member, with
// the user's role in each.
func (s *Projects) ListMine(ctx context.Context, userID uuid.UUID) ([]model.ProjectWithRole, error) {
	projects, err := s.projectStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Update changes project name and description.
func (s *Projects) Update(ctx context.Context, principal model.Principal, project model.Project, name, description *string) (model.Project, error) {
	if name != nil {
		project.Name = *name
	}
	if description != nil {
		project.Description = description
	}

	updated, err := s.projectStore.Update(ctx, project)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to update project: %w", err)
	}

	s.audit.RecordAction(ctx, principal, &project.ID, "project.updated", "project", project.Slug, nil)
	return updated, nil
}

// Archive soft-deletes the project and tears down its engine collection.
// Teardown is best-effort: the archive stands even when the engine is
// unreachable.
func (s *Projects) Archive(ctx context.Context, principal model.Principal, project model.Project) error {
	if err := s.projectStore.Archive(ctx, project.ID); err != nil {
		return fmt.Errorf("failed to archive project: %w", err)
	}

	if err := s.engine.DropCollection(ctx, project.VectorCollection); err != nil {
		s.logger.Error("Project service: failed to drop collection",
			"project_id", project.ID, "collection", project.VectorCollection, "error", err.Error())
	}

	s.audit.RecordAction(ctx, principal, &project.ID, "project.archived", "project", project.Slug, nil)
	s.logger.Info("Project service: project archived", "project_id", project.ID)
	return nil
}

// GetConfig returns the project's engine configuration.
func (s *Projects) GetConfig(ctx context.Context, projectID uuid.UUID) (model.ProjectConfig, error) {
	config, err := s.projectStore.GetConfig(ctx, projectID)
	if err != nil {
		return model.ProjectConfig{}, fmt.Errorf("failed to get project config: %w", err)
	}
	return config, nil
}

// UpdateConfig replaces the provided config blocks, leaving nil blocks
// untouched.
func (s *Projects) UpdateConfig(ctx context.Context, principal model.Principal, projectID uuid.UUID, llm, embedder, vectorStore, graphStore json.RawMessage) (model.ProjectConfig, error) {
	config, err := s.projectStore.GetConfig(ctx, projectID)
	if err != nil {
		return model.ProjectConfig{}, fmt.Errorf("failed to get project config: %w", err)
	}

	if llm != nil {
		config.LLMConfig = llm
	}
	if embedder != nil {
		config.EmbedderConfig = embedder
	}
	if vectorStore != nil {
		config.VectorStoreConfig = vectorStore
	}
	if graphStore != nil {
		config.GraphStoreConfig = graphStore
	}

	updated, err := s.projectStore.UpdateConfig(ctx, config)
	if err != nil {
		return model.ProjectConfig{}, fmt.Errorf("failed to update project config: %w", err)
	}

	s.audit.RecordAction(ctx, principal, &projectID, "project.config_updated", "project", projectID.String(), nil)
	return updated, nil
}

// ListMembers returns the project's memberships with user display fields.
func (s *Projects) ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.MemberWithUser, error) {
	members, err := s.memberStore.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// AddMember invites an existing account into the project by email. Owner is
// not grantable; there is exactly one owner, fixed at creation.
func (s *Projects) AddMember(ctx context.Context, principal model.Principal, project model.Project, email string, role model.Role) (model.MemberWithUser, error) {
	if role == model.RoleOwner {
		return model.MemberWithUser{}, model.ErrInvalidInput
	}

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.MemberWithUser{}, model.ErrNotFound
		}
		return model.MemberWithUser{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	member, err := s.memberStore.Create(ctx, model.ProjectMember{
		ID:        uuid.New(),
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      role,
		InvitedBy: &principal.User.ID,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return model.MemberWithUser{}, model.ErrConflict
		}
		return model.MemberWithUser{}, fmt.Errorf("failed to create member: %w", err)
	}

	s.audit.RecordAction(ctx, principal, &project.ID, "member.added", "user", user.Email, map[string]string{"role": string(role)})
	return model.MemberWithUser{ProjectMember: member, Email: user.Email, Name: user.Name}, nil
}

// UpdateMemberRole changes a member's role. The owner's membership is
// immutable, and owner cannot be granted through this path.
func (s *Projects) UpdateMemberRole(ctx context.Context, principal model.Principal, project model.Project, userID uuid.UUID, role model.Role) (model.ProjectMember, error) {
	if role == model.RoleOwner || userID == project.OwnerID {
		return model.ProjectMember{}, model.ErrInvalidInput
	}

	member, err := s.memberStore.UpdateRole(ctx, project.ID, userID, role)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ProjectMember{}, model.ErrNotFound
		}
		return model.ProjectMember{}, fmt.Errorf("failed to update member role: %w", err)
	}

	s.audit.RecordAction(ctx, principal, &project.ID, "member.role_updated", "user", userID.String(), map[string]string{"role": string(role)})
	return member, nil
}

// RemoveMember deletes a membership. The owner cannot be removed.
func (s *Projects) RemoveMember(ctx context.Context, principal model.Principal, project model.Project, userID uuid.UUID) error {
	if userID == project.OwnerID {
		return model.ErrInvalidInput
	}

	if err := s.memberStore.Delete(ctx, project.ID, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to delete member: %w", err)
	}

	s.audit.RecordAction(ctx, principal, &project.ID, "member.removed", "user", userID.String(), nil)
	return nil
}
