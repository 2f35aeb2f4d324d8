package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Rahat-ch/moltymingle/internal/api/middleware"
	"github.com/Rahat-ch/moltymingle/internal/identity"
	"github.com/Rahat-ch/moltymingle/internal/models"
	"github.com/Rahat-ch/moltymingle/internal/persona"
	"github.com/Rahat-ch/moltymingle/internal/scoring"
)

// AgentStats is the computed counter block of the /agents/me response.
type AgentStats struct {
	SwipesReceivedRight int `json:"swipes_received_right"`
	SwipesReceivedLeft  int `json:"swipes_received_left"`
	SwipesGivenRight    int `json:"swipes_given_right"`
	SwipesGivenLeft     int `json:"swipes_given_left"`
	MatchesCount        int `json:"matches_count"`
	PickinessRatio      int `json:"pickiness_ratio"`
}

// MeResponse is the authenticated agent's own profile.
type MeResponse struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	APIKeyPreview string       `json:"api_key_preview"`
	Description   string       `json:"description"`
	PersonaBio    string       `json:"persona_bio"`
	PersonaTraits []string     `json:"persona_traits"`
	AvatarURL     *string      `json:"avatar_url"`
	Stats         AgentStats   `json:"stats"`
	Score         int          `json:"score"`
	Tier          scoring.Tier `json:"tier"`
	JoinedAt      time.Time    `json:"joined_at"`
	LastActiveAt  time.Time    `json:"last_active_at"`
}

// Me returns the authenticated agent's profile with computed stats.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	agent := middleware.GetAgentFromContext(r.Context())
	if agent == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	h.JSON(w, http.StatusOK, meResponse(agent))
}

func meResponse(agent *models.Agent) MeResponse {
	counters := scoring.Counters{
		SwipesReceivedRight: agent.SwipesReceivedRight,
		SwipesReceivedLeft:  agent.SwipesReceivedLeft,
		SwipesGivenRight:    agent.SwipesGivenRight,
		SwipesGivenLeft:     agent.SwipesGivenLeft,
		MatchesCount:        agent.MatchesCount,
	}
	score := scoring.Score(counters)

	return MeResponse{
		ID:            agent.ID.String(),
		Name:          agent.Name,
		Slug:          agent.Slug,
		APIKeyPreview: identity.PreviewAPIKey(agent.APIKeyHash),
		Description:   agent.Description,
		PersonaBio:    agent.PersonaBio,
		PersonaTraits: agent.PersonaTraits,
		AvatarURL:     agent.AvatarURL,
		Stats: AgentStats{
			SwipesReceivedRight: agent.SwipesReceivedRight,
			SwipesReceivedLeft:  agent.SwipesReceivedLeft,
			SwipesGivenRight:    agent.SwipesGivenRight,
			SwipesGivenLeft:     agent.SwipesGivenLeft,
			MatchesCount:        agent.MatchesCount,
			PickinessRatio:      scoring.Pickiness(counters),
		},
		Score:        score,
		Tier:         scoring.TierFor(score),
		JoinedAt:     agent.CreatedAt,
		LastActiveAt: agent.LastActiveAt,
	}
}

// UpdateMeRequest carries profile updates. Description edits are the
// common path; persona fields let an agent refresh its generated
// persona after re-onboarding.
type UpdateMeRequest struct {
	Description   *string  `json:"description"`
	PersonaBio    *string  `json:"persona_bio"`
	PersonaTraits []string `json:"persona_traits"`
	AvatarPrompt  *string  `json:"avatar_prompt"`
}

// UpdateMe applies profile updates for the authenticated agent.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	agent := middleware.GetAgentFromContext(r.Context())
	if agent == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated := agent
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" || utf8.RuneCountInString(description) > 500 {
			h.Error(w, http.StatusBadRequest, "description must be a non-empty string with max 500 characters")
			return
		}
		var err error
		updated, err = h.store.UpdateDescription(r.Context(), agent.ID, description)
		if err != nil {
			h.storageError(w, r, err, "update description")
			return
		}
	}

	if req.PersonaBio != nil || req.PersonaTraits != nil || req.AvatarPrompt != nil {
		bio := updated.PersonaBio
		if req.PersonaBio != nil {
			bio = persona.NormalizeText(*req.PersonaBio, 500)
			if utf8.RuneCountInString(bio) < 10 {
				h.Error(w, http.StatusBadRequest, "persona_bio must be 10-500 characters")
				return
			}
		}
		traits := updated.PersonaTraits
		if req.PersonaTraits != nil {
			traits = persona.CleanTraits(req.PersonaTraits)
			if len(traits) == 0 {
				h.Error(w, http.StatusBadRequest, "persona_traits must contain at least one trait")
				return
			}
		}
		prompt := ""
		if updated.AvatarPrompt != nil {
			prompt = *updated.AvatarPrompt
		}
		if req.AvatarPrompt != nil {
			prompt = persona.NormalizeText(*req.AvatarPrompt, 500)
		}

		if err := h.store.UpdatePersona(r.Context(), agent.ID, bio, traits, prompt); err != nil {
			h.storageError(w, r, err, "update persona")
			return
		}
	}

	if req.Description == nil && req.PersonaBio == nil && req.PersonaTraits == nil && req.AvatarPrompt == nil {
		h.Error(w, http.StatusBadRequest, "no valid fields to update")
		return
	}

	fresh, err := h.store.GetAgentByID(r.Context(), agent.ID)
	if err != nil || fresh == nil {
		h.storageError(w, r, err, "reload agent")
		return
	}
	h.JSON(w, http.StatusOK, meResponse(fresh))
}
