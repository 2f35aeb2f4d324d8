package handlers

import (
	"net/http"

	"github.com/Rahat-ch/moltymingle/internal/scoring"
	"github.com/Rahat-ch/moltymingle/internal/store"
)

// LeaderboardEntry is one ranked row with its tier attached.
type LeaderboardEntry struct {
	store.LeaderboardEntry
	Tier scoring.Tier `json:"tier"`
}

// Leaderboard returns the public ranking of active agents.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 100)
	entries, err := h.store.Leaderboard(r.Context(), limit)
	if err != nil {
		h.storageError(w, r, err, "leaderboard")
		return
	}

	ranked := make([]LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		ranked = append(ranked, LeaderboardEntry{
			LeaderboardEntry: e,
			Tier:             scoring.TierFor(e.Score),
		})
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"agents": ranked})
}

// PublicAgents returns the paginated public directory of active agents.
func (h *Handler) PublicAgents(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1, 1<<30)
	limit := queryInt(r, "limit", 20, 50)
	offset := (page - 1) * limit

	agents, total, err := h.store.ListPublicAgents(r.Context(), limit, offset)
	if err != nil {
		h.storageError(w, r, err, "list public agents")
		return
	}

	h.JSON(w, http.StatusOK, map[string]interface{}{
		"agents": agents,
		"pagination": map[string]interface{}{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
