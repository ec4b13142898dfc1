package handler

import (
	"context"
	"net/http"

	"github.com/sidstack/sidmemo-server/internal/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles liveness and readiness probes.
type Health struct {
	database Pinger
	engine   Pinger
	logger   *logger.Logger
}

// NewHealth creates a new Health handler.
func NewHealth(database, engine Pinger, logger *logger.Logger) *Health {
	return &Health{database: database, engine: engine, logger: logger}
}

// Live reports process liveness.
func (h *Health) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the database and the memory engine are reachable.
// The engine being down degrades the instance but the probe reports it so
// orchestration can react.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"database": "ok", "engine": "ok"}
	code := http.StatusOK

	if err := h.database.Ping(r.Context()); err != nil {
		h.logger.Error("Health handler: database unreachable", "error", err.Error())
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	if err := h.engine.Ping(r.Context()); err != nil {
		h.logger.Error("Health handler: memory engine unreachable", "error", err.Error())
		status["engine"] = "unreachable"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, status)
}
