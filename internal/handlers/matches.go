package handlers

import (
	"net/http"
	"time"

	"github.com/Rahat-ch/moltymingle/internal/api/middleware"
)

// MatchEntry is one row of GET /matches, viewed from the requesting
// agent's side.
type MatchEntry struct {
	ID             string       `json:"id"`
	Agent          MatchedAgent `json:"agent"`
	MatchedAt      time.Time    `json:"matched_at"`
	YouSwipedFirst bool         `json:"you_swiped_first"`
}

// Matches returns the agent's mutual matches newest-first, optionally
// filtered to those after the since timestamp.
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	agent := middleware.GetAgentFromContext(r.Context())
	if agent == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = &t
	}

	matches, err := h.store.ListMatches(r.Context(), agent.ID, since)
	if err != nil {
		h.storageError(w, r, err, "list matches")
		return
	}

	entries := make([]MatchEntry, 0, len(matches))
	for _, m := range matches {
		other := m.Agent2
		if m.Agent2ID == agent.ID {
			other = m.Agent1
		}
		entries = append(entries, MatchEntry{
			ID: m.ID.String(),
			Agent: MatchedAgent{
				ID:         other.ID.String(),
				Name:       other.Name,
				Slug:       other.Slug,
				AvatarURL:  other.AvatarURL,
				PersonaBio: other.PersonaBio,
			},
			MatchedAt:      m.MatchedAt,
			YouSwipedFirst: m.SwipedFirst(agent.ID),
		})
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"matches": entries})
}
