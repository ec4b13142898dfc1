package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidstack/sidmemo-server/internal/model"
	"github.com/sidstack/sidmemo-server/internal/testutil"
)

type projectServiceStub struct {
	createFn  func(principal model.Principal, name, description string) (model.Project, error)
	listFn    func(userID uuid.UUID) ([]model.ProjectWithRole, error)
	archiveFn func(project model.Project) error
}

func (s *projectServiceStub) Create(_ context.Context, principal model.Principal, name, description string) (model.Project, error) {
	return s.createFn(principal, name, description)
}

func (s *projectServiceStub) ListMine(_ context.Context, userID uuid.UUID) ([]model.ProjectWithRole, error) {
	return s.listFn(userID)
}

func (s *projectServiceStub) Update(_ context.Context, _ model.Principal, project model.Project, name, description *string) (model.Project, error) {
	if name != nil {
		project.Name = *name
	}
	if description != nil {
		project.Description = description
	}
	return project, nil
}

func (s *projectServiceStub) Archive(_ context.Context, _ model.Principal, project model.Project) error {
	return s.archiveFn(project)
}

func (s *projectServiceStub) GetConfig(_ context.Context, projectID uuid.UUID) (model.ProjectConfig, error) {
	return model.ProjectConfig{ProjectID: projectID, LLMConfig: json.RawMessage(`{"provider":"openai_compatible"}`)}, nil
}

func (s *projectServiceStub) UpdateConfig(_ context.Context, _ model.Principal, projectID uuid.UUID, llm, _, _, _ json.RawMessage) (model.ProjectConfig, error) {
	return model.ProjectConfig{ProjectID: projectID, LLMConfig: llm}, nil
}

type usageStub struct {
	window time.Duration
}

func (s *usageStub) Summary(_ context.Context, _ uuid.UUID, window time.Duration) (model.UsageSummary, error) {
	s.window = window
	return model.UsageSummary{TotalRequests: 10, ErrorRequests: 2, AvgLatencyMS: 12.5}, nil
}

type auditListStub struct {
	filter  model.AuditFilter
	entries []model.AuditEntry
}

func (s *auditListStub) List(_ context.Context, filter model.AuditFilter) ([]model.AuditEntry, int, error) {
	s.filter = filter
	return s.entries, len(s.entries), nil
}

func newProjectsHandler(svc ProjectService, usage UsageService, audit AuditService, access AccessResolver) (*Projects, model.ContextManager) {
	cm := newContextManager()
	return NewProjects(svc, usage, audit, access, cm, testutil.MakeNoopLogger()), cm
}

func TestProjects_Create(t *testing.T) {
	userID := uuid.New()
	stub := &projectServiceStub{
		createFn: func(principal model.Principal, name, description string) (model.Project, error) {
			assert.Equal(t, userID, principal.User.ID)
			return model.Project{ID: uuid.New(), Slug: "acme-prod", Name: name, OwnerID: userID}, nil
		},
	}
	h, cm := newProjectsHandler(stub, nil, nil, &accessStub{})

	body := `{"name":"Acme Prod"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(body))
	req = authed(cm, req, model.Principal{User: model.User{ID: userID}})
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "acme-prod", resp["slug"])
	assert.Equal(t, "owner", resp["role"])
}

func TestProjects_Create_SlugTaken(t *testing.T) {
	stub := &projectServiceStub{
		createFn: func(_ model.Principal, _, _ string) (model.Project, error) {
			return model.Project{}, model.ErrConflict
		},
	}
	h, cm := newProjectsHandler(stub, nil, nil, &accessStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(`{"name":"Acme"}`))
	req = authed(cm, req, model.Principal{User: model.User{ID: uuid.New()}})
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProjects_Get_UnknownSlug(t *testing.T) {
	h, cm := newProjectsHandler(&projectServiceStub{}, nil, nil, &accessStub{err: model.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/nope", nil)
	req = authed(cm, req, model.Principal{User: model.User{ID: uuid.New()}})
	req = withSlug(req, "nope")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	// Unknown and invisible projects both read as absent.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjects_Archive_RequiresOwner(t *testing.T) {
	access := &accessStub{project: model.Project{ID: uuid.New(), Slug: "acme"}, role: model.RoleAdmin}
	h, cm := newProjectsHandler(&projectServiceStub{}, nil, nil, access)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/projects/acme", nil)
	req = authed(cm, req, model.Principal{User: model.User{ID: uuid.New()}})
	req = withSlug(req, "acme")
	rec := httptest.NewRecorder()
	h.Archive(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, model.RoleOwner, access.minRole)
}

func TestProjects_Archive(t *testing.T) {
	project := model.Project{ID: uuid.New(), Slug: "acme"}
	archived := false
	stub := &projectServiceStub{
		archiveFn: func(got model.Project) error {
			assert.Equal(t, project.ID, got.ID)
			archived = true
			return nil
		},
	}
	access := &accessStub{project: project, role: model.RoleOwner}
	h, cm := newProjectsHandler(stub, nil, nil, access)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/projects/acme", nil)
	req = authed(cm, req, model.Principal{User: model.User{ID: uuid.New()}})
	req = withSlug(req, "acme")
	rec := httptest.NewRecorder()
	h.Archive(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, archived)
}

func TestProjects_Usage_DefaultWindow(t *testing.T) {
	usage := &usageStub{}
	access := &accessStub{project: model.Project{ID: uuid.New(), Slug: "acme"}, role: model.RoleViewer}
	h, cm := newProjectsHandler(&projectServiceStub{}, usage, nil, access)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/acme/usage", nil)
	req = authed(cm, req, model.Principal{User: model.User{ID: uuid.New()}})
	req = withSlug(req, "acme")
	rec := httptest.NewRecorder()
	h.Usage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30*24*time.Hour, usage.window)

	var resp usageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.TotalRequests)
	assert.Equal(t, 2, resp.ErrorRequests)
}

func TestProjects_Audit_ScopedToProject(t *testing.T) {
	projectID := uuid.New()
	audit := &auditListStub{entries: []model.AuditEntry{{ID: uuid.New(), Action: "project.created", ActorType: "user"}}}
	access := &accessStub{project: model.Project{ID: projectID, Slug: "acme"}, role: model.RoleAdmin}
	h, cm := newProjectsHandler(&projectServiceStub{}, nil, audit, access)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/acme/audit?action=project.created", nil)
	req = authed(cm, req, model.Principal{User: model.User{ID: uuid.New()}})
	req = withSlug(req, "acme")
	rec := httptest.NewRecorder()
	h.Audit(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, audit.filter.ProjectID)
	assert.Equal(t, projectID, *audit.filter.ProjectID)
	assert.Equal(t, "project.created", audit.filter.Action)
}
