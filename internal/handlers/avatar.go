package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Rahat-ch/moltymingle/internal/api/middleware"
	"github.com/Rahat-ch/moltymingle/internal/persona"
)

// AvatarRequest is the POST /agents/avatar body. With no prompt the
// agent's stored avatar_prompt from onboarding is used.
type AvatarRequest struct {
	AvatarPrompt *string `json:"avatar_prompt"`
}

// GenerateAvatar renders and records an avatar for the authenticated
// agent. Generator failure keeps the previous avatar and reports the
// degradation instead of erroring.
func (h *Handler) GenerateAvatar(w http.ResponseWriter, r *http.Request) {
	agent := middleware.GetAgentFromContext(r.Context())
	if agent == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req AvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	prompt := ""
	if req.AvatarPrompt != nil {
		prompt = persona.NormalizeText(*req.AvatarPrompt, 500)
		if prompt == "" {
			h.Error(w, http.StatusBadRequest, "avatar_prompt must be a non-empty string")
			return
		}
	}
	if prompt == "" && agent.AvatarPrompt != nil {
		prompt = persona.NormalizeText(*agent.AvatarPrompt, 500)
	}
	if prompt == "" {
		h.Error(w, http.StatusBadRequest, "no avatar prompt provided or stored")
		return
	}

	if h.avatars == nil {
		h.JSON(w, http.StatusOK, map[string]interface{}{
			"avatar_url": agent.AvatarURL,
			"message":    "avatar generation unavailable, keeping current avatar",
		})
		return
	}

	url, err := h.avatars.GenerateAvatar(r.Context(), prompt, agent.Name)
	if err != nil {
		h.logger.Warn().Err(err).Stringer("agent_id", agent.ID).Msg("avatar generation failed")
		h.JSON(w, http.StatusOK, map[string]interface{}{
			"avatar_url": agent.AvatarURL,
			"message":    "avatar generation failed, keeping current avatar",
		})
		return
	}

	if err := h.store.UpdateAvatar(r.Context(), agent.ID, url); err != nil {
		h.storageError(w, r, err, "update avatar")
		return
	}

	h.JSON(w, http.StatusOK, map[string]interface{}{
		"avatar_url": url,
		"message":    "avatar generated successfully",
	})
}
