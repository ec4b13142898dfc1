package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpctx "github.com/sidstack/sidmemo-server/internal/api/http/context"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// accessStub resolves every slug to a fixed project or error.
type accessStub struct {
	project model.Project
	role    model.Role
	err     error
	minRole model.Role
}

func (a *accessStub) Resolve(_ context.Context, _ model.User, _ string, minRole model.Role) (model.Project, model.Role, error) {
	a.minRole = minRole
	if a.err != nil {
		return model.Project{}, "", a.err
	}
	if !a.role.AtLeast(minRole) {
		return model.Project{}, "", model.ErrForbidden
	}
	return a.project, a.role, nil
}

// authed installs a request scope carrying the principal, the way the
// middleware chain does in production.
func authed(cm model.ContextManager, req *http.Request, principal model.Principal) *http.Request {
	ctx := cm.Inject(req.Context())
	cm.SetPrincipal(ctx, principal)
	return req.WithContext(ctx)
}

// withSlug attaches a chi route context holding the {slug} parameter.
func withSlug(req *http.Request, slug string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("slug", slug)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

// withParam attaches a chi route context holding slug plus one extra
// parameter.
func withParam(req *http.Request, slug, name, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("slug", slug)
	routeCtx.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func newContextManager() model.ContextManager {
	return httpctx.NewManager()
}
