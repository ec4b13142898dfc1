package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sidstack/sidmemo-server/internal/model"
)

// Recorder accepts usage events. Implementations must not block on failure.
type Recorder interface {
	Record(ctx context.Context, event model.APIEvent)
}

// Analytics records one usage event per request, attributed to the
// authenticated principal and, when resolved, the project.
type Analytics struct {
	recorder       Recorder
	contextManager model.ContextManager
}

// NewAnalytics creates a new Analytics middleware.
func NewAnalytics(recorder Recorder, contextManager model.ContextManager) *Analytics {
	return &Analytics{recorder: recorder, contextManager: contextManager}
}

// actionTable names the user-meaningful actions. Requests not listed here
// are still recorded, just without an action label.
var actionTable = map[string]string{
	"POST /api/v1/projects":                                  "project.created",
	"DELETE /api/v1/projects/{slug}":                         "project.archived",
	"POST /api/v1/projects/{slug}/members":                   "member.added",
	"DELETE /api/v1/projects/{slug}/members/{userID}":        "member.removed",
	"POST /api/v1/projects/{slug}/webhooks":                  "webhook.created",
	"POST /api/v1/projects/{slug}/webhooks/{webhookID}/test": "webhook.tested",
	"DELETE /api/v1/projects/{slug}/webhooks/{webhookID}":    "webhook.deleted",
	"POST /api/v1/projects/{slug}/memories":                  "memory.created",
	"POST /api/v1/projects/{slug}/memories/search":           "memory.searched",
	"PUT /api/v1/projects/{slug}/memories/{memoryID}":        "memory.updated",
	"DELETE /api/v1/projects/{slug}/memories/{memoryID}":     "memory.deleted",
	"DELETE /api/v1/projects/{slug}/memories":                "memory.bulk_deleted",
	"POST /api/v1/projects/{slug}/memories/export":           "memory.exported",
}

// Handle records the request after it completes. Recording never affects the
// response.
func (a *Analytics) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(a.contextManager.Inject(r.Context()))

		next.ServeHTTP(recorder, r)

		event := model.APIEvent{
			Method:     r.Method,
			Path:       r.URL.Path,
			StatusCode: recorder.status,
			LatencyMS:  int(time.Since(start).Milliseconds()),
		}

		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			// Nested chi routers report collection routes with a trailing
			// slash.
			pattern := strings.TrimSuffix(routeCtx.RoutePattern(), "/")
			event.Action = actionTable[r.Method+" "+pattern]
		}
		if principal, ok := a.contextManager.GetPrincipal(r.Context()); ok {
			event.UserID = &principal.User.ID
			event.ApiKeyID = principal.ApiKeyID
		}
		if projectID, ok := a.contextManager.GetProjectID(r.Context()); ok {
			event.ProjectID = &projectID
		}

		a.recorder.Record(r.Context(), event)
	})
}
