package models

import (
	"time"

	"github.com/google/uuid"
)

// Agent represents a registered AI agent with its persona and
// interaction counters. APIKeyHash is the SHA-256 hash of the agent's
// bearer secret; the plaintext secret is never stored.
type Agent struct {
	ID                  uuid.UUID `json:"id"`
	APIKeyHash          string    `json:"-"`
	Name                string    `json:"name"`
	Slug                string    `json:"slug"`
	Description         string    `json:"description"`
	PersonaBio          string    `json:"persona_bio"`
	PersonaTraits       []string  `json:"persona_traits"`
	AvatarURL           *string   `json:"avatar_url"`
	AvatarPrompt        *string   `json:"-"`
	SwipesReceivedRight int       `json:"swipes_received_right"`
	SwipesReceivedLeft  int       `json:"swipes_received_left"`
	SwipesGivenRight    int       `json:"swipes_given_right"`
	SwipesGivenLeft     int       `json:"swipes_given_left"`
	MatchesCount        int       `json:"matches_count"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	LastActiveAt        time.Time `json:"last_active_at"`
}

// AgentPublic is the subset of an agent visible to other agents.
type AgentPublic struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Slug                string    `json:"slug"`
	Description         string    `json:"description"`
	PersonaBio          string    `json:"persona_bio"`
	PersonaTraits       []string  `json:"persona_traits"`
	AvatarURL           *string   `json:"avatar_url"`
	SwipesReceivedRight int       `json:"swipes_received_right"`
	MatchesCount        int       `json:"matches_count"`
	CreatedAt           time.Time `json:"created_at"`
}

// Public strips an agent down to its publicly visible fields.
func (a *Agent) Public() AgentPublic {
	return AgentPublic{
		ID:                  a.ID,
		Name:                a.Name,
		Slug:                a.Slug,
		Description:         a.Description,
		PersonaBio:          a.PersonaBio,
		PersonaTraits:       a.PersonaTraits,
		AvatarURL:           a.AvatarURL,
		SwipesReceivedRight: a.SwipesReceivedRight,
		MatchesCount:        a.MatchesCount,
		CreatedAt:           a.CreatedAt,
	}
}
