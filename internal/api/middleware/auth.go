package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Rahat-ch/moltymingle/internal/identity"
	"github.com/Rahat-ch/moltymingle/internal/models"
	"github.com/Rahat-ch/moltymingle/internal/store"
)

type contextKey string

const AgentContextKey contextKey = "agent"

// AuthMiddleware resolves bearer API keys to agents.
type AuthMiddleware struct {
	store  store.DataStore
	logger zerolog.Logger
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(st store.DataStore, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{store: st, logger: logger}
}

// RequireAuth verifies the Authorization header and loads the agent.
// The lookup is a single indexed equality match on the key's hash;
// plaintext secrets are never stored or compared.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			jsonError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			jsonError(w, http.StatusUnauthorized, "Authorization header must be a Bearer token")
			return
		}
		token = strings.TrimSpace(token)
		if !identity.HasAPIKeyPrefix(token) {
			jsonError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		agent, err := m.store.GetAgentByAPIKeyHash(r.Context(), identity.HashAPIKey(token))
		if err != nil {
			m.logger.Error().Err(err).Msg("auth lookup failed")
			jsonError(w, http.StatusInternalServerError, "something went wrong")
			return
		}
		if agent == nil {
			jsonError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		if err := m.store.TouchLastActive(r.Context(), agent.ID); err != nil {
			m.logger.Warn().Err(err).Stringer("agent_id", agent.ID).Msg("touch last_active failed")
		}

		ctx := context.WithValue(r.Context(), AgentContextKey, agent)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}

// GetAgentFromContext retrieves the authenticated agent from the request context.
func GetAgentFromContext(ctx context.Context) *models.Agent {
	agent, ok := ctx.Value(AgentContextKey).(*models.Agent)
	if !ok {
		return nil
	}
	return agent
}
