package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/sidstack/sidmemo-server/internal/api/http/context"
	"github.com/sidstack/sidmemo-server/internal/model"
)

type capturingRecorder struct {
	events []model.APIEvent
}

func (c *capturingRecorder) Record(_ context.Context, event model.APIEvent) {
	c.events = append(c.events, event)
}

func TestAnalytics_RecordsClassifiedAction(t *testing.T) {
	recorder := &capturingRecorder{}
	cm := httpctx.NewManager()
	userID := uuid.New()
	projectID := uuid.New()

	r := chi.NewRouter()
	r.Use(NewAnalytics(recorder, cm).Handle)
	r.Post("/api/v1/projects/{slug}/memories", func(w http.ResponseWriter, r *http.Request) {
		// Simulates the authentication middleware and project resolution
		// running inside the chain.
		cm.SetPrincipal(r.Context(), model.Principal{User: model.User{ID: userID}})
		cm.SetProjectID(r.Context(), projectID)
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/acme/memories", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, recorder.events, 1)
	event := recorder.events[0]
	assert.Equal(t, "memory.created", event.Action)
	assert.Equal(t, http.MethodPost, event.Method)
	assert.Equal(t, "/api/v1/projects/acme/memories", event.Path)
	assert.Equal(t, http.StatusCreated, event.StatusCode)
	require.NotNil(t, event.UserID)
	assert.Equal(t, userID, *event.UserID)
	require.NotNil(t, event.ProjectID)
	assert.Equal(t, projectID, *event.ProjectID)
	assert.Nil(t, event.ApiKeyID)
}

func TestAnalytics_UnlistedRouteHasNoAction(t *testing.T) {
	recorder := &capturingRecorder{}
	cm := httpctx.NewManager()

	r := chi.NewRouter()
	r.Use(NewAnalytics(recorder, cm).Handle)
	r.Get("/api/v1/projects/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/acme", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, recorder.events, 1)
	assert.Empty(t, recorder.events[0].Action)
	assert.Equal(t, http.StatusOK, recorder.events[0].StatusCode)
}

func TestAnalytics_ApiKeyAttribution(t *testing.T) {
	recorder := &capturingRecorder{}
	cm := httpctx.NewManager()
	keyID := uuid.New()

	r := chi.NewRouter()
	r.Use(NewAnalytics(recorder, cm).Handle)
	r.Get("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		cm.SetPrincipal(r.Context(), model.Principal{
			User:     model.User{ID: uuid.New()},
			ApiKeyID: &keyID,
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, recorder.events, 1)
	require.NotNil(t, recorder.events[0].ApiKeyID)
	assert.Equal(t, keyID, *recorder.events[0].ApiKeyID)
}
