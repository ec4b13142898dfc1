package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sidstack/sidmemo-server/internal/model"
)

var _ model.MemberStore = (*MemberRepository)(nil)

type MemberRepository struct {
	db *Connection
}

func NewMemberRepository(db *Connection) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `id, project_id, user_id, role, invited_by, created_at`

func scanMember(row pgx.Row) (model.ProjectMember, error) {
	var m model.ProjectMember
	err := row.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.InvitedBy, &m.CreatedAt)
	return m, err
}

func (r *MemberRepository) Create(ctx context.Context, member model.ProjectMember) (model.ProjectMember, error) {
	query := `INSERT INTO project_members (id, project_id, user_id, role, invited_by, created_at)
			  VALUES ($1, $2, $3, $4, $5, NOW())
			  RETURNING ` + memberColumns

	saved, err := scanMember(r.db.QueryRow(ctx, query,
		member.ID, member.ProjectID, member.UserID, member.Role, member.InvitedBy,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.ProjectMember{}, model.ErrConflict
		}
		return model.ProjectMember{}, fmt.Errorf("failed to create membership: %w", err)
	}

	return saved, nil
}

func (r *MemberRepository) Get(ctx context.Context, projectID, userID uuid.UUID) (model.ProjectMember, error) {
	query := `SELECT ` + memberColumns + ` FROM project_members WHERE project_id = $1 AND user_id = $2`

	member, err := scanMember(r.db.QueryRow(ctx, query, projectID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProjectMember{}, model.ErrNotFound
		}
		return model.ProjectMember{}, fmt.Errorf("failed to get membership: %w", err)
	}

	return member, nil
}

func (r *MemberRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.MemberWithUser, error) {
	const query = `
		SELECT m.id, m.project_id, m.user_id, m.role, m.invited_by, m.created_at, u.email, u.name
		FROM project_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.project_id = $1
		ORDER BY m.created_at`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []model.MemberWithUser
	for rows.Next() {
		var m model.MemberWithUser
		err := rows.Scan(
			&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.InvitedBy, &m.CreatedAt,
			&m.Email, &m.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

func (r *MemberRepository) UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role model.Role) (model.ProjectMember, error) {
	query := `UPDATE project_members SET role = $3
			  WHERE project_id = $1 AND user_id = $2
			  RETURNING ` + memberColumns

	member, err := scanMember(r.db.QueryRow(ctx, query, projectID, userID, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProjectMember{}, model.ErrNotFound
		}
		return model.ProjectMember{}, fmt.Errorf("failed to update membership role: %w", err)
	}

	return member, nil
}

func (r *MemberRepository) Delete(ctx context.Context, projectID, userID uuid.UUID) error {
	const query = `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`

	cmd, err := r.db.Exec(ctx, query, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
