package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/sidstack/sidmemo-server/internal/api/http/context"
	"github.com/sidstack/sidmemo-server/internal/mocks"
	"github.com/sidstack/sidmemo-server/internal/model"
	"github.com/sidstack/sidmemo-server/internal/security"
	"github.com/sidstack/sidmemo-server/internal/service"
	"github.com/sidstack/sidmemo-server/internal/testutil"
	"github.com/sidstack/sidmemo-server/internal/token"
)

type pingerStub struct{ err error }

func (p pingerStub) Ping(_ context.Context) error { return p.err }

func buildRouter(userStore *mocks.UserStore, refreshStore *mocks.RefreshTokenStore, eventStore *mocks.EventStore) http.Handler {
	lg := testutil.MakeNoopLogger()
	cm := httpctx.NewManager()

	tokens := service.NewTokenService(token.NewJWT("test-secret", 15*time.Minute), refreshStore, 720*time.Hour, lg)
	authService := service.NewAuth(userStore, &mocks.ApiKeyStore{}, tokens, security.NewBcryptHasher(4), lg)

	projectStore := &mocks.ProjectStore{}
	memberStore := &mocks.MemberStore{}
	accessService := service.NewAccess(projectStore, memberStore, lg)
	audit := service.NewAudit(&mocks.AuditStore{}, lg)
	engine := &mocks.MemoryEngine{}
	projectService := service.NewProjects(projectStore, memberStore, userStore, engine, audit, service.EngineDefaults{}, lg)
	webhookService := service.NewWebhooks(&mocks.WebhookStore{}, &mocks.DeliveryStore{}, time.Second, lg)
	memoryService := service.NewMemories(engine, &mocks.MemoryStore{}, &mocks.Storage{}, webhookService, audit, lg)
	adminService := service.NewAdmin(userStore, projectStore, &mocks.MemoryStore{}, audit, lg)
	analytics := service.NewAnalytics(eventStore, lg)

	r := New(authService, accessService, projectService, memoryService, webhookService,
		adminService, analytics, audit, pingerStub{}, pingerStub{}, cm, lg)
	return r.Register()
}

func TestRouter_Health(t *testing.T) {
	mux := buildRouter(&mocks.UserStore{}, &mocks.RefreshTokenStore{}, &mocks.EventStore{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnauthenticatedRejected(t *testing.T) {
	eventStore := &mocks.EventStore{}
	eventStore.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	mux := buildRouter(&mocks.UserStore{}, &mocks.RefreshTokenStore{}, eventStore)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RegisterFlow(t *testing.T) {
	userStore := &mocks.UserStore{}
	refreshStore := &mocks.RefreshTokenStore{}
	eventStore := &mocks.EventStore{}
	eventStore.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	userStore.On("GetByEmail", mock.Anything, "first@b.com").Return(model.User{}, model.ErrNotFound)
	userStore.On("Count", mock.Anything).Return(0, nil)
	userStore.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.IsSuperadmin && u.IsActive
	})).Return(model.User{Email: "first@b.com", IsSuperadmin: true, IsActive: true}, nil)
	refreshStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	mux := buildRouter(userStore, refreshStore, eventStore)

	body := `{"email":"first@b.com","name":"First","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token"`)
	assert.Contains(t, rec.Body.String(), `"is_superadmin":true`)
	userStore.AssertExpectations(t)
}

func TestRouter_RegisterValidation(t *testing.T) {
	eventStore := &mocks.EventStore{}
	eventStore.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	mux := buildRouter(&mocks.UserStore{}, &mocks.RefreshTokenStore{}, eventStore)

	body := `{"email":"not-an-email","name":"x","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
