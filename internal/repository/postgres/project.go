package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sidstack/sidmemo-server/internal/model"
)

var _ model.ProjectStore = (*ProjectRepository)(nil)

type ProjectRepository struct {
	db *Connection
}

func NewProjectRepository(db *Connection) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, slug, name, description, owner_id, vector_collection, graph_database, is_archived, created_at, updated_at`

func scanProject(row pgx.Row) (model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID, &p.Slug, &p.Name, &p.Description, &p.OwnerID,
		&p.VectorCollection, &p.GraphDatabase, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// Create inserts the project, its default config, and the creator's owner
// membership in one transaction. A failure partway rolls back all three.
func (r *ProjectRepository) Create(ctx context.Context, project model.Project, config model.ProjectConfig, owner model.ProjectMember) (model.Project, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO projects (id, slug, name, description, owner_id, vector_collection, graph_database, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			  RETURNING ` + projectColumns

	saved, err := scanProject(tx.QueryRow(ctx, query,
		project.ID, project.Slug, project.Name, project.Description, project.OwnerID,
		project.VectorCollection, project.GraphDatabase,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Project{}, model.ErrConflict
		}
		return model.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_configs (id, project_id, llm_config, embedder_config, vector_store_config, graph_store_config, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		config.ID, saved.ID, config.LLMConfig, config.EmbedderConfig,
		config.VectorStoreConfig, config.GraphStoreConfig,
	)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to create project config: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_members (id, project_id, user_id, role, invited_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		owner.ID, saved.ID, owner.UserID, owner.Role, owner.InvitedBy,
	)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to create owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Project{}, fmt.Errorf("failed to commit project creation: %w", err)
	}

	return saved, nil
}

func (r *ProjectRepository) GetBySlug(ctx context.Context, slug string) (model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE slug = $1`

	project, err := scanProject(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Project{}, model.ErrNotFound
		}
		return model.Project{}, fmt.Errorf("failed to get project by slug: %w", err)
	}

	return project, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Project{}, model.ErrNotFound
		}
		return model.Project{}, fmt.Errorf("failed to get project by id: %w", err)
	}

	return project, nil
}

func (r *ProjectRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ProjectWithRole, error) {
	query := `
		SELECT p.id, p.slug, p.name, p.description, p.owner_id, p.vector_collection,
		       p.graph_database, p.is_archived, p.created_at, p.updated_at, m.role
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = $1 AND p.is_archived = FALSE
		ORDER BY p.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var result []model.ProjectWithRole
	for rows.Next() {
		var pr model.ProjectWithRole
		p := &pr.Project
		err := rows.Scan(
			&p.ID, &p.Slug, &p.Name, &p.Description, &p.OwnerID, &p.VectorCollection,
			&p.GraphDatabase, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt, &pr.Role,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		result = append(result, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return result, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project model.Project) (model.Project, error) {
	query := `UPDATE projects SET name = $2, description = $3, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + projectColumns

	saved, err := scanProject(r.db.QueryRow(ctx, query, project.ID, project.Name, project.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Project{}, model.ErrNotFound
		}
		return model.Project{}, fmt.Errorf("failed to update project: %w", err)
	}

	return saved, nil
}

func (r *ProjectRepository) Archive(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE projects SET is_archived = TRUE, updated_at = NOW() WHERE id = $1 AND is_archived = FALSE`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to archive project: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE is_archived = FALSE`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

func (r *ProjectRepository) GetConfig(ctx context.Context, projectID uuid.UUID) (model.ProjectConfig, error) {
	const query = `
		SELECT id, project_id, llm_config, embedder_config, vector_store_config, graph_store_config, updated_at
		FROM project_configs WHERE project_id = $1`

	var c model.ProjectConfig
	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&c.ID, &c.ProjectID, &c.LLMConfig, &c.EmbedderConfig,
		&c.VectorStoreConfig, &c.GraphStoreConfig, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProjectConfig{}, model.ErrNotFound
		}
		return model.ProjectConfig{}, fmt.Errorf("failed to get project config: %w", err)
	}
	return c, nil
}

func (r *ProjectRepository) UpdateConfig(ctx context.Context, config model.ProjectConfig) (model.ProjectConfig, error) {
	const query = `
		UPDATE project_configs
		SET llm_config = $2, embedder_config = $3, vector_store_config = $4, graph_store_config = $5, updated_at = NOW()
		WHERE project_id = $1
		RETURNING id, project_id, llm_config, embedder_config, vector_store_config, graph_store_config, updated_at`

	var c model.ProjectConfig
	err := r.db.QueryRow(ctx, query,
		config.ProjectID, config.LLMConfig, config.EmbedderConfig,
		config.VectorStoreConfig, config.GraphStoreConfig,
	).Scan(
		&c.ID, &c.ProjectID, &c.LLMConfig, &c.EmbedderConfig,
		&c.VectorStoreConfig, &c.GraphStoreConfig, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProjectConfig{}, model.ErrNotFound
		}
		return model.ProjectConfig{}, fmt.Errorf("failed to update project config: %w", err)
	}
	return c, nil
}
