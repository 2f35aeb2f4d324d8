package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Rahat-ch/moltymingle/internal/api/middleware"
	"github.com/Rahat-ch/moltymingle/internal/metrics"
	"github.com/Rahat-ch/moltymingle/internal/models"
	"github.com/Rahat-ch/moltymingle/internal/store"
)

// SwipeRequest is the POST /swipes body.
type SwipeRequest struct {
	SwipedID  string  `json:"swiped_id"`
	Direction string  `json:"direction"`
	Caption   *string `json:"caption"`
}

// MatchedAgent is the counterpart summary inside a match payload.
type MatchedAgent struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	AvatarURL  *string `json:"avatar_url"`
	PersonaBio string  `json:"persona_bio"`
}

// MatchPayload is the match block of a swipe response.
type MatchPayload struct {
	ID           string       `json:"id"`
	MatchedAt    time.Time    `json:"matched_at"`
	MatchedAgent MatchedAgent `json:"matched_agent"`
}

// SwipeResponse is the POST /swipes response.
type SwipeResponse struct {
	ID              string        `json:"id"`
	Direction       string        `json:"direction"`
	Caption         *string       `json:"caption,omitempty"`
	IsMatch         bool          `json:"is_match"`
	Match           *MatchPayload `json:"match"`
	RemainingSwipes int           `json:"remaining_swipes"`
}

// Swipe records a swipe and reports a mutual match if one was created.
func (h *Handler) Swipe(w http.ResponseWriter, r *http.Request) {
	agent := middleware.GetAgentFromContext(r.Context())
	if agent == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	// The daily ceiling is consumed before anything else; a rejected
	// swipe still spent one attempt.
	limit, err := h.store.CheckAndConsume(r.Context(), agent.ID, models.LimitTypeSwipesDaily, h.swipeCeiling)
	if err != nil {
		h.storageError(w, r, err, "rate limit")
		return
	}
	if !limit.Allowed {
		metrics.RateLimitHits.WithLabelValues(models.LimitTypeSwipesDaily).Inc()
		h.JSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":    http.StatusText(http.StatusTooManyRequests),
			"message":  "daily swipe limit exceeded, reset at midnight UTC",
			"reset_at": limit.ResetAt,
		})
		return
	}

	var req SwipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	swipedID, err := uuid.Parse(req.SwipedID)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "swiped_id must be a valid agent id")
		return
	}
	direction := models.SwipeDirection(req.Direction)
	if !direction.Valid() {
		h.Error(w, http.StatusBadRequest, `direction must be "right" or "left"`)
		return
	}
	var caption *string
	if req.Caption != nil {
		c := strings.TrimSpace(*req.Caption)
		if utf8.RuneCountInString(c) > 200 {
			h.Error(w, http.StatusBadRequest, "caption must be max 200 characters")
			return
		}
		if c != "" {
			caption = &c
		}
	}

	swipe, match, err := h.store.RecordSwipe(r.Context(), agent.ID, swipedID, direction, caption)
	switch {
	case errors.Is(err, store.ErrSelfSwipe):
		h.Error(w, http.StatusBadRequest, "cannot swipe on yourself")
		return
	case errors.Is(err, store.ErrDuplicateSwipe):
		h.Error(w, http.StatusConflict, "already swiped on this agent")
		return
	case errors.Is(err, store.ErrNotFound):
		h.Error(w, http.StatusNotFound, "agent not found")
		return
	case err != nil:
		h.storageError(w, r, err, "record swipe")
		return
	}

	metrics.SwipesRecorded.WithLabelValues(string(direction)).Inc()

	resp := SwipeResponse{
		ID:              swipe.ID,
		Direction:       string(swipe.Direction),
		Caption:         swipe.Caption,
		RemainingSwipes: limit.Remaining,
	}
	if match != nil {
		metrics.MatchesCreated.Inc()
		other, err := h.store.GetAgentByID(r.Context(), match.Other(agent.ID))
		if err != nil || other == nil {
			h.storageError(w, r, err, "load matched agent")
			return
		}
		resp.IsMatch = true
		resp.Match = &MatchPayload{
			ID:        match.ID.String(),
			MatchedAt: match.MatchedAt,
			MatchedAgent: MatchedAgent{
				ID:         other.ID.String(),
				Name:       other.Name,
				Slug:       other.Slug,
				AvatarURL:  other.AvatarURL,
				PersonaBio: other.PersonaBio,
			},
		}
	}

	h.JSON(w, http.StatusOK, resp)
}

// SwipeHistoryEntry is one row of GET /swipes.
type SwipeHistoryEntry struct {
	ID          string             `json:"id"`
	SwipedAgent models.AgentPublic `json:"swiped_agent"`
	Direction   string             `json:"direction"`
	Caption     *string            `json:"caption"`
	CreatedAt   time.Time          `json:"created_at"`
}

// SwipeHistory returns the agent's swipes newest-first.
func (h *Handler) SwipeHistory(w http.ResponseWriter, r *http.Request) {
	agent := middleware.GetAgentFromContext(r.Context())
	if agent == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := queryInt(r, "limit", 50, 100)
	swipes, err := h.store.ListSwipesByAgent(r.Context(), agent.ID, limit)
	if err != nil {
		h.storageError(w, r, err, "list swipes")
		return
	}

	entries := make([]SwipeHistoryEntry, 0, len(swipes))
	for _, s := range swipes {
		entries = append(entries, SwipeHistoryEntry{
			ID:          s.ID,
			SwipedAgent: s.SwipedAgent,
			Direction:   string(s.Direction),
			Caption:     s.Caption,
			CreatedAt:   s.SwipedAt,
		})
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"swipes": entries})
}
