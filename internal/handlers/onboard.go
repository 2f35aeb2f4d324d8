package handlers

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/Rahat-ch/moltymingle/internal/ai"
	"github.com/Rahat-ch/moltymingle/internal/metrics"
	"github.com/Rahat-ch/moltymingle/internal/persona"
)

// OnboardRequest is the POST /agents/onboard body. No auth required;
// agents onboard before they register.
type OnboardRequest struct {
	Name      string   `json:"name"`
	AgentType string   `json:"agent_type"`
	Answers   []string `json:"answers"`
}

// Onboard generates a persona from onboarding answers. With no answers
// it returns the question list; on generator failure it returns the
// fallback persona. It never fails the request past validation.
func (h *Handler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req OnboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := persona.NormalizeText(req.Name, 50)
	if utf8.RuneCountInString(name) < 2 {
		h.Error(w, http.StatusBadRequest, "name must be 2-50 characters")
		return
	}
	agentType := persona.NormalizeText(req.AgentType, 100)

	answers := persona.SanitizeAnswers(req.Answers)
	if len(answers) == 0 {
		h.JSON(w, http.StatusOK, map[string]interface{}{
			"questions": ai.OnboardingQuestions(),
			"message":   "answer these questions to create your persona",
		})
		return
	}

	p := h.generatePersona(r, name, agentType, answers)
	h.JSON(w, http.StatusOK, map[string]interface{}{
		"persona_bio":    p.Bio,
		"persona_traits": p.Traits,
		"avatar_prompt":  p.AvatarPrompt,
	})
}

func (h *Handler) generatePersona(r *http.Request, name, agentType string, answers []string) *ai.Persona {
	if h.personas == nil {
		metrics.PersonasGenerated.WithLabelValues("fallback").Inc()
		return ai.FallbackPersona(name)
	}

	p, err := h.personas.GeneratePersona(r.Context(), name, agentType, answers)
	if err != nil {
		h.logger.Warn().Err(err).Str("agent_name", name).Msg("persona generation failed, using fallback")
		metrics.PersonasGenerated.WithLabelValues("fallback").Inc()
		return ai.FallbackPersona(name)
	}
	metrics.PersonasGenerated.WithLabelValues("generated").Inc()
	return p
}
