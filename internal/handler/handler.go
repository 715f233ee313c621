package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/waap-dev/waap/internal/config"
	"github.com/waap-dev/waap/internal/logger"
	"github.com/waap-dev/waap/internal/service"
)

// HealthChecker reports readiness of the storage backend.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	auth     *service.Auth
	users    *service.Users
	postings *service.Postings
	contact  *service.Contact
	cfg      *config.Config
	health   HealthChecker
}

func New(auth *service.Auth, users *service.Users, postings *service.Postings, contact *service.Contact, cfg *config.Config, health HealthChecker) *Handler {
	return &Handler{auth, users, postings, contact, cfg, health}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}
