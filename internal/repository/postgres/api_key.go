package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sidstack/sidmemo-server/internal/model"
)

var _ model.ApiKeyStore = (*ApiKeyRepository)(nil)

type ApiKeyRepository struct {
	db *Connection
}

func NewApiKeyRepository(db *Connection) *ApiKeyRepository {
	return &ApiKeyRepository{db: db}
}

const apiKeyColumns = `id, user_id, name, key_hash, key_prefix, scopes, last_used_at, expires_at, created_at`

func scanApiKey(row pgx.Row) (model.ApiKey, error) {
	var k model.ApiKey
	err := row.Scan(
		&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
		&k.LastUsedAt, &k.ExpiresAt, &k.CreatedAt,
	)
	return k, err
}

func (r *ApiKeyRepository) Create(ctx context.Context, key model.ApiKey) (model.ApiKey, error) {
	query := `INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, scopes, expires_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			  RETURNING ` + apiKeyColumns

	if key.Scopes == nil {
		key.Scopes = []string{}
	}

	saved, err := scanApiKey(r.db.QueryRow(ctx, query,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.ExpiresAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.ApiKey{}, model.ErrConflict
		}
		return model.ApiKey{}, fmt.Errorf("failed to create api key: %w", err)
	}

	return saved, nil
}

func (r *ApiKeyRepository) GetByDigest(ctx context.Context, digest string) (model.ApiKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = $1`

	key, err := scanApiKey(r.db.QueryRow(ctx, query, digest))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ApiKey{}, model.ErrNotFound
		}
		return model.ApiKey{}, fmt.Errorf("failed to get api key by digest: %w", err)
	}

	return key, nil
}

func (r *ApiKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ApiKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.ApiKey
	for rows.Next() {
		k, err := scanApiKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate api keys: %w", err)
	}

	return keys, nil
}

func (r *ApiKeyRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	const query = `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`

	cmd, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ApiKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	const query = `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}
