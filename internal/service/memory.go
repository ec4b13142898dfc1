package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// Memory events delivered to project webhooks.
const (
	EventMemoryCreated = "memory.created"
	EventMemoryUpdated = "memory.updated"
	EventMemoryDeleted = "memory.deleted"
)

// Memories passes memory operations through to the engine, mirrors results
// into the relational store, and fires project webhooks. The engine owns the
// data; the mirror exists for listing, history, and exports.
type Memories struct {
	engine      model.MemoryEngine
	memoryStore model.MemoryStore
	storage     model.Storage
	webhooks    *Webhooks
	audit       *Audit
	logger      *logger.Logger
}

func NewMemories(
	engine model.MemoryEngine,
	memoryStore model.MemoryStore,
	storage model.Storage,
	webhooks *Webhooks,
	audit *Audit,
	logger *logger.Logger,
) *Memories {
	return &Memories{
		engine:      engine,
		memoryStore: memoryStore,
		storage:     storage,
		webhooks:    webhooks,
		audit:       audit,
		logger:      logger,
	}
}

// memoryEvent is the webhook payload for memory events.
type memoryEvent struct {
	MemoryID uuid.UUID `json:"memory_id"`
	UserKey  string    `json:"user_id"`
	Content  string    `json:"memory,omitempty"`
}

// Add sends content to the engine for extraction. The engine decides how
// many memories the content yields; each one is mirrored and announced.
func (s *Memories) Add(ctx context.Context, project model.Project, req model.MemoryAddRequest) ([]model.MemoryRecord, error) {
	s.logger.Debug("Memory service: adding memory", "project_id", project.ID, "user_key", req.UserKey)

	records, err := s.engine.Add(ctx, project.VectorCollection, req)
	if err != nil {
		return nil, fmt.Errorf("failed to add memory: %w", err)
	}

	for i, record := range records {
		record.ProjectID = project.ID
		stored, err := s.memoryStore.Upsert(ctx, record)
		if err != nil {
			s.logger.Error("Memory service: failed to mirror memory",
				"project_id", project.ID, "memory_id", record.ID, "error", err.Error())
			continue
		}
		records[i] = stored

		s.webhooks.Fire(ctx, project.ID, EventMemoryCreated, memoryEvent{
			MemoryID: stored.ID,
			UserKey:  stored.UserKey,
			Content:  stored.Content,
		})
	}

	return records, nil
}

// Get returns one memory from the mirror.
func (s *Memories) Get(ctx context.Context, projectID, id uuid.UUID) (model.MemoryRecord, error) {
	record, err := s.memoryStore.GetByID(ctx, projectID, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.MemoryRecord{}, model.ErrNotFound
		}
		return model.MemoryRecord{}, fmt.Errorf("failed to get memory: %w", err)
	}
	return record, nil
}

// List pages the project's mirrored memories, optionally filtered by user
// key.
func (s *Memories) List(ctx context.Context, projectID uuid.UUID, userKey string, offset, limit int) ([]model.MemoryRecord, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	records, total, err := s.memoryStore.ListByProject(ctx, projectID, userKey, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list memories: %w", err)
	}
	return records, total, nil
}

// Search runs a semantic query through the engine.
func (s *Memories) Search(ctx context.Context, project model.Project, query, userKey string, limit int) ([]model.MemorySearchResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	results, err := s.engine.Search(ctx, project.VectorCollection, query, userKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search memories: %w", err)
	}
	return results, nil
}

// Update rewrites a memory's content in the engine, keeps the previous
// revision in history, and refreshes the mirror.
func (s *Memories) Update(ctx context.Context, principal model.Principal, project model.Project, id uuid.UUID, content string, metadata json.RawMessage) (model.MemoryRecord, error) {
	previous, err := s.memoryStore.GetByID(ctx, project.ID, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.MemoryRecord{}, model.ErrNotFound
		}
		return model.MemoryRecord{}, fmt.Errorf("failed to get memory: %w", err)
	}

	updated, err := s.engine.Update(ctx, project.VectorCollection, id, content, metadata)
	if err != nil {
		return model.MemoryRecord{}, fmt.Errorf("failed to update memory: %w", err)
	}

	if err := s.memoryStore.AppendHistory(ctx, model.MemoryHistory{
		ID:        uuid.New(),
		MemoryID:  id,
		Content:   previous.Content,
		Metadata:  previous.Metadata,
		ChangedBy: &principal.User.ID,
	}); err != nil {
		s.logger.Error("Memory service: failed to append history",
			"memory_id", id, "error", err.Error())
	}

	updated.ProjectID = project.ID
	stored, err := s.memoryStore.Upsert(ctx, updated)
	if err != nil {
		s.logger.Error("Memory service: failed to mirror memory",
			"memory_id", id, "error", err.Error())
		stored = updated
	}

	s.webhooks.Fire(ctx, project.ID, EventMemoryUpdated, memoryEvent{
		MemoryID: stored.ID,
		UserKey:  stored.UserKey,
		Content:  stored.Content,
	})

	return stored, nil
}

// Delete removes a memory from the engine and the mirror.
func (s *Memories) Delete(ctx context.Context, project model.Project, id uuid.UUID) error {
	record, err := s.memoryStore.GetByID(ctx, project.ID, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to get memory: %w", err)
	}

	if err := s.engine.Delete(ctx, project.VectorCollection, id); err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to delete memory: %w", err)
	}

	if err := s.memoryStore.Delete(ctx, project.ID, id); err != nil && !errors.Is(err, model.ErrNotFound) {
		s.logger.Error("Memory service: failed to delete mirror row",
			"memory_id", id, "error", err.Error())
	}

	s.webhooks.Fire(ctx, project.ID, EventMemoryDeleted, memoryEvent{
		MemoryID: id,
		UserKey:  record.UserKey,
	})

	return nil
}

// DeleteAll removes every memory of a user key and returns the count.
func (s *Memories) DeleteAll(ctx context.Context, project model.Project, userKey string) (int, error) {
	deleted, err := s.engine.DeleteAll(ctx, project.VectorCollection, userKey)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memories: %w", err)
	}

	mirrored, err := s.memoryStore.DeleteByUserKey(ctx, project.ID, userKey)
	if err != nil {
		s.logger.Error("Memory service: failed to delete mirror rows",
			"project_id", project.ID, "user_key", userKey, "error", err.Error())
	} else if mirrored > deleted {
		deleted = mirrored
	}

	s.webhooks.Fire(ctx, project.ID, EventMemoryDeleted, memoryEvent{UserKey: userKey})
	return deleted, nil
}

// History returns a memory's recorded revisions, newest first.
func (s *Memories) History(ctx context.Context, projectID, id uuid.UUID) ([]model.MemoryHistory, error) {
	if _, err := s.memoryStore.GetByID(ctx, projectID, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}

	history, err := s.memoryStore.ListHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory history: %w", err)
	}
	return history, nil
}

// exportSnapshot is the JSON document written to object storage.
type exportSnapshot struct {
	Project    string               `json:"project"`
	ExportedAt time.Time            `json:"exported_at"`
	Total      int                  `json:"total"`
	Memories   []model.MemoryRecord `json:"memories"`
}

// Export snapshots the project's mirrored memories into object storage and
// returns the object key.
func (s *Memories) Export(ctx context.Context, principal model.Principal, project model.Project) (string, error) {
	var all []model.MemoryRecord
	offset := 0
	for {
		page, total, err := s.memoryStore.ListByProject(ctx, project.ID, "", offset, 500)
		if err != nil {
			return "", fmt.Errorf("failed to list memories: %w", err)
		}
		all = append(all, page...)
		offset += len(page)
		if len(page) == 0 || offset >= total {
			break
		}
	}

	now := time.Now().UTC()
	snapshot := exportSnapshot{
		Project:    project.Slug,
		ExportedAt: now,
		Total:      len(all),
		Memories:   all,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", project.Slug, now.Format("20060102T150405Z"))
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	s.audit.RecordAction(ctx, principal, &project.ID, "memory.exported", "export", key, nil)
	s.logger.Info("Memory service: export written", "project_id", project.ID, "key", key, "total", len(all))
	return key, nil
}

// OpenExport streams a previously written snapshot. The project scope is
// enforced by key prefix.
func (s *Memories) OpenExport(ctx context.Context, project model.Project, key string) (io.ReadCloser, error) {
	prefix := "exports/" + project.Slug + "/"
	if !strings.HasPrefix(key, prefix) {
		return nil, model.ErrNotFound
	}

	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to stat export: %w", err)
	}
	if !exists {
		return nil, model.ErrNotFound
	}

	rc, err := s.storage.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download export: %w", err)
	}
	return rc, nil
}
