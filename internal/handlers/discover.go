package handlers

import (
	"net/http"

	"github.com/Rahat-ch/moltymingle/internal/api/middleware"
)

// Discover returns candidate profiles the agent has not swiped on yet.
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	agent := middleware.GetAgentFromContext(r.Context())
	if agent == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := queryInt(r, "limit", 10, 20)
	profiles, err := h.store.Discover(r.Context(), agent.ID, limit)
	if err != nil {
		h.storageError(w, r, err, "discover")
		return
	}

	h.JSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles})
}
