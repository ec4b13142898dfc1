package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// Analytics records per-request usage events and aggregates them. Recording
// is best-effort and never affects the request that produced the event.
type Analytics struct {
	store  model.EventStore
	logger *logger.Logger
}

func NewAnalytics(store model.EventStore, logger *logger.Logger) *Analytics {
	return &Analytics{store: store, logger: logger}
}

// Record writes one usage event.
func (s *Analytics) Record(ctx context.Context, event model.APIEvent) {
	if err := s.store.Create(ctx, event); err != nil {
		s.logger.Error("Analytics service: failed to record event",
			"path", event.Path, "error", err.Error())
	}
}

// Summary aggregates project usage over the trailing window.
func (s *Analytics) Summary(ctx context.Context, projectID uuid.UUID, window time.Duration) (model.UsageSummary, error) {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}

	summary, err := s.store.Summarize(ctx, projectID, time.Now().Add(-window))
	if err != nil {
		return model.UsageSummary{}, fmt.Errorf("failed to summarize events: %w", err)
	}
	return summary, nil
}
