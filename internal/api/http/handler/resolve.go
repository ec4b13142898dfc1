package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/model"
)

func slugParam(r *http.Request) string {
	return chi.URLParam(r, "slug")
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// pageParams reads offset/limit query parameters. Services clamp limits to
// their own defaults.
func pageParams(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return offset, limit
}

// AccessResolver checks that a user may see a project and holds the
// required role in it.
type AccessResolver interface {
	Resolve(ctx context.Context, user model.User, slug string, minRole model.Role) (model.Project, model.Role, error)
}

// currentPrincipal reads the authenticated principal from the request
// context.
func currentPrincipal(cm model.ContextManager, r *http.Request) (model.Principal, error) {
	principal, ok := cm.GetPrincipal(r.Context())
	if !ok {
		return model.Principal{}, model.ErrUnauthorized
	}
	return principal, nil
}

// projectResolver resolves the {slug} route parameter into a project the
// principal may act on, and records the project for request attribution.
type projectResolver struct {
	access         AccessResolver
	contextManager model.ContextManager
}

func (p *projectResolver) resolveProject(r *http.Request, minRole model.Role) (model.Project, model.Principal, error) {
	principal, err := currentPrincipal(p.contextManager, r)
	if err != nil {
		return model.Project{}, model.Principal{}, err
	}

	project, _, err := p.access.Resolve(r.Context(), principal.User, slugParam(r), minRole)
	if err != nil {
		return model.Project{}, model.Principal{}, err
	}

	p.contextManager.SetProjectID(r.Context(), project.ID)
	return project, principal, nil
}
