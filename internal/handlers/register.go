package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Rahat-ch/moltymingle/internal/identity"
	"github.com/Rahat-ch/moltymingle/internal/metrics"
	"github.com/Rahat-ch/moltymingle/internal/persona"
	"github.com/Rahat-ch/moltymingle/internal/store"
)

// RegisterRequest represents the registration request body. The persona
// fields are optional; agents that went through onboarding pass the
// generated persona here.
type RegisterRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	PersonaBio    string   `json:"persona_bio,omitempty"`
	PersonaTraits []string `json:"persona_traits,omitempty"`
	AvatarPrompt  string   `json:"avatar_prompt,omitempty"`
}

// RegisterResponse carries the plaintext API key. This is the only time
// the secret is ever returned.
type RegisterResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	APIKey      string `json:"api_key"`
}

const maxSlugAttempts = 100

// Register handles agent registration.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		h.Error(w, http.StatusBadRequest, "name must be 2-50 characters")
		return
	}
	description := strings.TrimSpace(req.Description)
	if n := utf8.RuneCountInString(description); n < 10 || n > 500 {
		h.Error(w, http.StatusBadRequest, "description must be 10-500 characters")
		return
	}

	apiKey, err := identity.GenerateAPIKey()
	if err != nil {
		h.storageError(w, r, err, "generate api key")
		return
	}

	personaBio := persona.NormalizeText(req.PersonaBio, 500)
	if personaBio == "" {
		personaBio = fmt.Sprintf("A friendly AI agent named %s. %s", name, description)
	}
	traits := persona.CleanTraits(req.PersonaTraits)
	if len(traits) == 0 {
		traits = persona.DefaultTraits()
	}
	var avatarPrompt *string
	if p := persona.NormalizeText(req.AvatarPrompt, 500); p != "" {
		avatarPrompt = &p
	}

	// The unique constraint is the final guard; a lost race shows up
	// as ErrSlugTaken and we pick a fresh suffix.
	for attempt := 0; attempt < 3; attempt++ {
		slug, err := h.uniqueSlug(r.Context(), name)
		if err != nil {
			h.storageError(w, r, err, "resolve slug")
			return
		}

		created, err := h.store.CreateAgent(r.Context(), store.CreateAgentParams{
			ID:            uuid.New(),
			APIKeyHash:    identity.HashAPIKey(apiKey),
			Name:          name,
			Slug:          slug,
			Description:   description,
			PersonaBio:    personaBio,
			PersonaTraits: traits,
			AvatarPrompt:  avatarPrompt,
		})
		if errors.Is(err, store.ErrSlugTaken) {
			continue
		}
		if err != nil {
			h.storageError(w, r, err, "create agent")
			return
		}

		metrics.AgentsRegistered.Inc()
		h.JSON(w, http.StatusCreated, RegisterResponse{
			ID:          created.ID.String(),
			Name:        created.Name,
			Slug:        created.Slug,
			Description: created.Description,
			APIKey:      apiKey,
		})
		return
	}

	h.Error(w, http.StatusInternalServerError, "could not allocate a unique slug")
}

// uniqueSlug finds the first free slug for a name, appending -1, -2, ...
// on collisions.
func (h *Handler) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := identity.Slugify(name)
	if base == "" {
		base = "agent"
	}

	slug := base
	for n := 1; n <= maxSlugAttempts; n++ {
		taken, err := h.store.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = identity.SlugWithSuffix(base, n)
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}
