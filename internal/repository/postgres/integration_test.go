//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sidstack/sidmemo-server/internal/model"
	repo "github.com/sidstack/sidmemo-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "sidmemo_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/sidmemo_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func createUser(t *testing.T, ur *repo.UserRepository, email string) model.User {
	t.Helper()
	u, err := ur.Create(context.Background(), model.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		IsActive:     true,
	})
	require.NoError(t, err)
	return u
}

func createProject(t *testing.T, pr *repo.ProjectRepository, owner model.User, slug string) model.Project {
	t.Helper()
	p, err := pr.Create(context.Background(),
		model.Project{
			ID:               uuid.New(),
			Slug:             slug,
			Name:             "Project " + slug,
			OwnerID:          owner.ID,
			VectorCollection: "mem0_" + slug,
		},
		model.ProjectConfig{ID: uuid.New()},
		model.ProjectMember{ID: uuid.New(), UserID: owner.ID, Role: model.RoleOwner},
	)
	require.NoError(t, err)
	return p
}

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ur := repo.NewUserRepository(conn)
	pr := repo.NewProjectRepository(conn)

	t.Run("user_repository", func(t *testing.T) {
		u := createUser(t, ur, "user@example.com")

		byEmail, err := ur.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)

		byID, err := ur.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, byID.Email)

		_, err = ur.Create(ctx, model.User{ID: uuid.New(), Email: u.Email, PasswordHash: "x", IsActive: true})
		require.ErrorIs(t, err, model.ErrConflict)

		byID.Name = "Renamed"
		updated, err := ur.Update(ctx, byID)
		require.NoError(t, err)
		require.Equal(t, "Renamed", updated.Name)

		_, err = ur.GetByEmail(ctx, "missing@example.com")
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("api_key_repository", func(t *testing.T) {
		kr := repo.NewApiKeyRepository(conn)
		u := createUser(t, ur, "keys@example.com")

		key, err := kr.Create(ctx, model.ApiKey{
			ID:        uuid.New(),
			UserID:    u.ID,
			Name:      "ci",
			KeyHash:   "digest-1",
			KeyPrefix: "smk_abcd1234",
		})
		require.NoError(t, err)
		require.NotNil(t, key.Scopes)

		byDigest, err := kr.GetByDigest(ctx, "digest-1")
		require.NoError(t, err)
		require.Equal(t, key.ID, byDigest.ID)

		require.NoError(t, kr.TouchLastUsed(ctx, key.ID, time.Now()))

		list, err := kr.ListByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.NotNil(t, list[0].LastUsedAt)

		require.NoError(t, kr.Delete(ctx, key.ID, u.ID))
		require.ErrorIs(t, kr.Delete(ctx, key.ID, u.ID), model.ErrNotFound)
	})

	t.Run("refresh_token_repository", func(t *testing.T) {
		rr := repo.NewRefreshTokenRepository(conn)
		u := createUser(t, ur, "refresh@example.com")

		tok := model.RefreshToken{
			ID:        uuid.New(),
			UserID:    u.ID,
			TokenHash: "refresh-digest-1",
			ExpiresAt: time.Now().Add(24 * time.Hour),
		}
		require.NoError(t, rr.Create(ctx, tok))

		got, err := rr.GetByDigest(ctx, tok.TokenHash)
		require.NoError(t, err)
		require.Nil(t, got.RevokedAt)

		revoked, err := rr.Revoke(ctx, tok.TokenHash, time.Now())
		require.NoError(t, err)
		require.True(t, revoked)

		again, err := rr.Revoke(ctx, tok.TokenHash, time.Now())
		require.NoError(t, err)
		require.False(t, again)
	})

	t.Run("project_repository", func(t *testing.T) {
		owner := createUser(t, ur, "owner@example.com")
		p := createProject(t, pr, owner, "acme")

		bySlug, err := pr.GetBySlug(ctx, "acme")
		require.NoError(t, err)
		require.Equal(t, p.ID, bySlug.ID)

		_, err = pr.Create(ctx,
			model.Project{ID: uuid.New(), Slug: "acme", Name: "Dup", OwnerID: owner.ID, VectorCollection: "mem0_dup"},
			model.ProjectConfig{ID: uuid.New()},
			model.ProjectMember{ID: uuid.New(), UserID: owner.ID, Role: model.RoleOwner},
		)
		require.ErrorIs(t, err, model.ErrConflict)

		withRole, err := pr.ListByUser(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, withRole, 1)
		require.Equal(t, model.RoleOwner, withRole[0].Role)

		cfg, err := pr.GetConfig(ctx, p.ID)
		require.NoError(t, err)
		cfg.LLMConfig = []byte(`{"model":"gpt-4o-mini"}`)
		updatedCfg, err := pr.UpdateConfig(ctx, cfg)
		require.NoError(t, err)
		require.JSONEq(t, `{"model":"gpt-4o-mini"}`, string(updatedCfg.LLMConfig))

		require.NoError(t, pr.Archive(ctx, p.ID))
		require.ErrorIs(t, pr.Archive(ctx, uuid.New()), model.ErrNotFound)

		afterArchive, err := pr.ListByUser(ctx, owner.ID)
		require.NoError(t, err)
		require.Empty(t, afterArchive)
	})

	t.Run("member_repository", func(t *testing.T) {
		mr := repo.NewMemberRepository(conn)
		owner := createUser(t, ur, "members-owner@example.com")
		invitee := createUser(t, ur, "members-invitee@example.com")
		p := createProject(t, pr, owner, "members")

		m, err := mr.Create(ctx, model.ProjectMember{
			ID:        uuid.New(),
			ProjectID: p.ID,
			UserID:    invitee.ID,
			Role:      model.RoleViewer,
			InvitedBy: &owner.ID,
		})
		require.NoError(t, err)

		_, err = mr.Create(ctx, model.ProjectMember{ID: uuid.New(), ProjectID: p.ID, UserID: invitee.ID, Role: model.RoleMember})
		require.ErrorIs(t, err, model.ErrConflict)

		list, err := mr.ListByProject(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, owner.Email, list[0].Email)

		promoted, err := mr.UpdateRole(ctx, p.ID, invitee.ID, model.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, model.RoleAdmin, promoted.Role)

		require.NoError(t, mr.Delete(ctx, p.ID, invitee.ID))
		_, err = mr.Get(ctx, p.ID, m.UserID)
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("memory_repository", func(t *testing.T) {
		mr := repo.NewMemoryRepository(conn)
		owner := createUser(t, ur, "memories@example.com")
		p := createProject(t, pr, owner, "memories")

		rec, err := mr.Upsert(ctx, model.MemoryRecord{
			ProjectID: p.ID,
			UserKey:   "alice",
			Content:   "prefers dark mode",
		})
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, rec.ID)

		rec.Content = "prefers light mode"
		updated, err := mr.Upsert(ctx, rec)
		require.NoError(t, err)
		require.Equal(t, rec.ID, updated.ID)
		require.Equal(t, "prefers light mode", updated.Content)

		require.NoError(t, mr.AppendHistory(ctx, model.MemoryHistory{
			MemoryID: rec.ID,
			Content:  "prefers dark mode",
		}))
		history, err := mr.ListHistory(ctx, rec.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)

		records, total, err := mr.ListByProject(ctx, p.ID, "alice", 0, 10)
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Len(t, records, 1)

		deleted, err := mr.DeleteByUserKey(ctx, p.ID, "alice")
		require.NoError(t, err)
		require.Equal(t, 1, deleted)
	})

	t.Run("audit_and_events", func(t *testing.T) {
		ar := repo.NewAuditRepository(conn)
		er := repo.NewEventRepository(conn)
		owner := createUser(t, ur, "audit@example.com")
		p := createProject(t, pr, owner, "audit")

		require.NoError(t, ar.Create(ctx, model.AuditEntry{
			ID:        uuid.New(),
			ActorID:   &owner.ID,
			ActorType: "user",
			ProjectID: &p.ID,
			Action:    "project.created",
		}))

		entries, total, err := ar.List(ctx, model.AuditFilter{ProjectID: &p.ID, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, "project.created", entries[0].Action)

		require.NoError(t, er.Create(ctx, model.APIEvent{
			ProjectID:  &p.ID,
			UserID:     &owner.ID,
			Method:     "POST",
			Path:       "/api/v1/memories",
			Action:     "memory.created",
			StatusCode: 200,
			LatencyMS:  12,
		}))
		require.NoError(t, er.Create(ctx, model.APIEvent{
			ProjectID:  &p.ID,
			UserID:     &owner.ID,
			Method:     "GET",
			Path:       "/api/v1/memories/x",
			StatusCode: 404,
			LatencyMS:  3,
		}))

		summary, err := er.Summarize(ctx, p.ID, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		require.Equal(t, 2, summary.TotalRequests)
		require.Equal(t, 1, summary.ErrorRequests)
		require.Equal(t, 1, summary.CountsByAction["memory.created"])
	})
}

func TestDeliveryRepository_RetryEligibility(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ur := repo.NewUserRepository(conn)
	pr := repo.NewProjectRepository(conn)
	wr := repo.NewWebhookRepository(conn)
	dr := repo.NewDeliveryRepository(conn)

	owner := createUser(t, ur, "hooks@example.com")
	p := createProject(t, pr, owner, "hooks")

	hook, err := wr.Create(ctx, model.Webhook{
		ID:        uuid.New(),
		ProjectID: p.ID,
		URL:       "https://example.com/hook",
		Secret:    "whsec",
		Events:    []string{"memory.created"},
		IsActive:  true,
	})
	require.NoError(t, err)

	now := time.Now()
	code := 500
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	deliveredAt := now

	failed, err := dr.Create(ctx, model.WebhookDelivery{
		ID:           uuid.New(),
		WebhookID:    hook.ID,
		Event:        "memory.created",
		Payload:      []byte(`{"event":"memory.created"}`),
		StatusCode:   &code,
		AttemptCount: 1,
		NextRetryAt:  &past,
	})
	require.NoError(t, err)

	_, err = dr.Create(ctx, model.WebhookDelivery{
		ID:           uuid.New(),
		WebhookID:    hook.ID,
		Event:        "memory.created",
		Payload:      []byte(`{}`),
		AttemptCount: 1,
		NextRetryAt:  &future,
	})
	require.NoError(t, err)

	_, err = dr.Create(ctx, model.WebhookDelivery{
		ID:           uuid.New(),
		WebhookID:    hook.ID,
		Event:        "memory.created",
		Payload:      []byte(`{}`),
		AttemptCount: 3,
		NextRetryAt:  &past,
	})
	require.NoError(t, err)

	_, err = dr.Create(ctx, model.WebhookDelivery{
		ID:           uuid.New(),
		WebhookID:    hook.ID,
		Event:        "memory.created",
		Payload:      []byte(`{}`),
		AttemptCount: 1,
		DeliveredAt:  &deliveredAt,
	})
	require.NoError(t, err)

	retryable, err := dr.ListRetryable(ctx, now, 3)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	require.Equal(t, failed.ID, retryable[0].ID)

	ok := 200
	retryable[0].StatusCode = &ok
	retryable[0].AttemptCount = 2
	retryable[0].NextRetryAt = nil
	retryable[0].DeliveredAt = &now
	updated, err := dr.Update(ctx, retryable[0])
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveredAt)

	none, err := dr.ListRetryable(ctx, now.Add(2*time.Hour), 3)
	require.NoError(t, err)
	for _, d := range none {
		require.NotEqual(t, failed.ID, d.ID)
	}

	require.NoError(t, wr.RecordResult(ctx, hook.ID, now, &ok))
	got, err := wr.GetByID(ctx, hook.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastTriggeredAt)
	require.Equal(t, 200, *got.LastStatusCode)

	history, err := dr.ListByWebhook(ctx, hook.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 4)

	require.NoError(t, wr.Delete(ctx, hook.ID))
	_, err = wr.GetByID(ctx, hook.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}
