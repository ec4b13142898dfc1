// Package router wires handlers and middleware into the HTTP mux.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sidstack/sidmemo-server/internal/api/http/handler"
	"github.com/sidstack/sidmemo-server/internal/api/http/middleware"
	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
	"github.com/sidstack/sidmemo-server/internal/service"
)

// Router assembles the HTTP routing tree for the control plane.
type Router struct {
	authService    *service.Auth
	accessService  *service.Access
	projectService *service.Projects
	memoryService  *service.Memories
	webhookService *service.Webhooks
	adminService   *service.Admin
	analytics      *service.Analytics
	audit          *service.Audit
	database       handler.Pinger
	engine         handler.Pinger
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	authService *service.Auth,
	accessService *service.Access,
	projectService *service.Projects,
	memoryService *service.Memories,
	webhookService *service.Webhooks,
	adminService *service.Admin,
	analytics *service.Analytics,
	audit *service.Audit,
	database handler.Pinger,
	engine handler.Pinger,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		accessService:  accessService,
		projectService: projectService,
		memoryService:  memoryService,
		webhookService: webhookService,
		adminService:   adminService,
		analytics:      analytics,
		audit:          audit,
		database:       database,
		engine:         engine,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register builds the routing tree with logging, analytics and
// authentication middleware.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	analytics := middleware.NewAnalytics(r.analytics, r.contextManager)
	authenticate := middleware.NewAuthenticate(r.authService, r.contextManager, r.logger)

	authHandler := handler.NewAuth(r.authService, r.contextManager, r.logger)
	projectHandler := handler.NewProjects(r.projectService, r.analytics, r.audit, r.accessService, r.contextManager, r.logger)
	memberHandler := handler.NewMembers(r.projectService, r.accessService, r.contextManager, r.logger)
	webhookHandler := handler.NewWebhooks(r.webhookService, r.accessService, r.contextManager, r.logger)
	memoryHandler := handler.NewMemories(r.memoryService, r.accessService, r.contextManager, r.logger)
	adminHandler := handler.NewAdmin(r.adminService, r.audit, r.contextManager, r.logger)
	healthHandler := handler.NewHealth(r.database, r.engine, r.logger)

	mux := chi.NewRouter()
	mux.Use(logging.Handle)

	mux.Get("/healthz", healthHandler.Live)
	mux.Get("/readyz", healthHandler.Ready)

	mux.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(analytics.Handle)

		v1.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", authHandler.Register)
			auth.Post("/login", authHandler.Login)
			auth.Post("/refresh", authHandler.Refresh)
			auth.Post("/logout", authHandler.Logout)

			auth.Group(func(private chi.Router) {
				private.Use(authenticate.Handle)
				private.Get("/me", authHandler.Me)
				private.Put("/me", authHandler.UpdateMe)
				private.Post("/keys", authHandler.CreateApiKey)
				private.Get("/keys", authHandler.ListApiKeys)
				private.Delete("/keys/{keyID}", authHandler.DeleteApiKey)
			})
		})

		v1.Group(func(private chi.Router) {
			private.Use(authenticate.Handle)

			private.Route("/projects", func(projects chi.Router) {
				projects.Post("/", projectHandler.Create)
				projects.Get("/", projectHandler.List)

				projects.Route("/{slug}", func(project chi.Router) {
					project.Get("/", projectHandler.Get)
					project.Put("/", projectHandler.Update)
					project.Delete("/", projectHandler.Archive)
					project.Get("/config", projectHandler.GetConfig)
					project.Put("/config", projectHandler.UpdateConfig)
					project.Get("/usage", projectHandler.Usage)
					project.Get("/audit", projectHandler.Audit)

					project.Route("/members", func(members chi.Router) {
						members.Get("/", memberHandler.List)
						members.Post("/", memberHandler.Add)
						members.Put("/{userID}", memberHandler.UpdateRole)
						members.Delete("/{userID}", memberHandler.Remove)
					})

					project.Route("/webhooks", func(webhooks chi.Router) {
						webhooks.Get("/", webhookHandler.List)
						webhooks.Post("/", webhookHandler.Create)
						webhooks.Get("/{webhookID}", webhookHandler.Get)
						webhooks.Put("/{webhookID}", webhookHandler.Update)
						webhooks.Delete("/{webhookID}", webhookHandler.Delete)
						webhooks.Post("/{webhookID}/test", webhookHandler.Test)
						webhooks.Get("/{webhookID}/deliveries", webhookHandler.Deliveries)
					})

					project.Route("/memories", func(memories chi.Router) {
						memories.Post("/", memoryHandler.Add)
						memories.Get("/", memoryHandler.List)
						memories.Delete("/", memoryHandler.DeleteAll)
						memories.Post("/search", memoryHandler.Search)
						memories.Post("/export", memoryHandler.Export)
						memories.Get("/export", memoryHandler.DownloadExport)
						memories.Get("/{memoryID}", memoryHandler.Get)
						memories.Put("/{memoryID}", memoryHandler.Update)
						memories.Delete("/{memoryID}", memoryHandler.Delete)
						memories.Get("/{memoryID}/history", memoryHandler.History)
					})
				})
			})

			private.Route("/admin", func(admin chi.Router) {
				admin.Get("/stats", adminHandler.Stats)
				admin.Get("/users", adminHandler.ListUsers)
				admin.Put("/users/{userID}/active", adminHandler.SetUserActive)
				admin.Get("/audit", adminHandler.Audit)
			})
		})
	})

	return mux
}
