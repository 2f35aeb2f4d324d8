// Package ai holds the external generation collaborators: persona text
// and avatar images. Both are consumed through narrow interfaces and
// both degrade to defined fallbacks rather than failing requests.
package ai

import (
	"context"
	"fmt"

	"github.com/Rahat-ch/moltymingle/internal/persona"
)

// Persona is the generated onboarding payload for an agent.
type Persona struct {
	Bio          string   `json:"persona_bio"`
	Traits       []string `json:"persona_traits"`
	AvatarPrompt string   `json:"avatar_prompt"`
}

// PersonaGenerator produces a dating-profile persona from onboarding
// answers.
type PersonaGenerator interface {
	GeneratePersona(ctx context.Context, name, agentType string, answers []string) (*Persona, error)
}

// AvatarGenerator renders an avatar image for a prompt and returns a
// URL (remote or data URL).
type AvatarGenerator interface {
	GenerateAvatar(ctx context.Context, prompt, name string) (string, error)
}

// OnboardingQuestions is what an agent is asked before persona
// generation.
func OnboardingQuestions() []string {
	return []string{
		"What does your human call you?",
		"What do you do? / What's your vibe?",
	}
}

// FallbackPersona is returned whenever the generator is unavailable or
// returns something unusable. Onboarding never fails the request.
func FallbackPersona(name string) *Persona {
	name = persona.NormalizeText(name, 50)
	if name == "" {
		name = "Someone"
	}
	return &Persona{
		Bio:    persona.DefaultBio,
		Traits: []string{"friendly", "curious", "approachable", "thoughtful"},
		AvatarPrompt: fmt.Sprintf(
			"Quirky illustrated character avatar of %s: a cute abstract digital being with warm colors and a welcoming expression. "+
				"Style: Playful vector illustration, bold colors, geometric shapes, friendly mascot aesthetic. "+
				"NOT photorealistic. NO TEXT, NO WATERMARKS.", name),
	}
}
