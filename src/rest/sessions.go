package rest

import (
	"encoding/json"
	"net/http"

	"stock-data-service/src/logger"
	"stock-data-service/src/models"
)

// SessionLister reports the streaming sessions currently open.
type SessionLister interface {
	Sessions() []*models.MSessionStatus
}

// -----------------------------------------------------------------------------

// SessionsHandler serves GET /sessions.
type SessionsHandler struct {
	Name   string
	lister SessionLister
	logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSessionsHandler(lister SessionLister, logger *logger.Logger) *SessionsHandler {
	return &SessionsHandler{
		Name:   "SessionsHandler",
		lister: lister,
		logger: logger,
	}
}

// -----------------------------------------------------------------------------

// ServeHTTP writes the open sessions as JSON, oldest first.
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessions := h.lister.Sessions()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"count": len(sessions), "sessions": sessions}); err != nil {
		h.logger.Error("%s : failed to encode sessions: %v", h.Name, err)
	}
}
