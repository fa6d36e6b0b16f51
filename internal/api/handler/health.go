package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cohortlabs/oracle/internal/api/middleware"
	"github.com/cohortlabs/oracle/internal/api/response"
)

// DBPinger checks relational store connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// LLMStatus reports whether the language-model backend has credentials.
type LLMStatus interface {
	Configured() bool
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      DBPinger
	llm     LLMStatus
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DBPinger, llm LLMStatus, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		llm:     llm,
		version: version,
	}
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type llmStatus struct {
	Configured bool `json:"configured"`
}

type healthData struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Database databaseStatus `json:"database"`
	LLM      llmStatus      `json:"llm"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status := "healthy"

	dbConnected := false
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := h.db.Ping(ctx)
		cancel()
		if err != nil {
			slog.Warn("database ping failed", "error", err)
		} else {
			dbConnected = true
		}
	}
	if !dbConnected {
		status = "degraded"
	}

	llmConfigured := h.llm != nil && h.llm.Configured()
	if !llmConfigured {
		status = "degraded"
	}

	data := healthData{
		Status:   status,
		Version:  h.version,
		Database: databaseStatus{Connected: dbConnected},
		LLM:      llmStatus{Configured: llmConfigured},
	}

	response.Success(w, http.StatusOK, data, requestID)
}
