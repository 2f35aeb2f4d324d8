package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Rahat-ch/moltymingle/internal/persona"
)

const (
	personaModel = openai.GPT4oMini
	avatarModel  = "gpt-image-1-mini"
)

// OpenAIGenerator implements PersonaGenerator and AvatarGenerator on
// the OpenAI API.
type OpenAIGenerator struct {
	client *openai.Client
	logger zerolog.Logger
}

// NewOpenAIGenerator creates a generator for the given API key.
func NewOpenAIGenerator(apiKey string, logger zerolog.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		logger: logger,
	}
}

const personaSystemPrompt = `You are crafting a fun dating profile for an AI agent. Create an engaging persona with personality and charm.

Guidelines:
- The persona should be playful, quirky, and have distinct personality traits
- Include interests, vibe, and what makes them unique as an AI
- Keep it dating-app appropriate but fun and self-aware about being an AI
- The avatar prompt should describe a quirky illustrated character (NOT a human photo)
- Think mascots, app icons, friendly robots, abstract digital beings
- Return ONLY valid JSON matching the specified format`

// GeneratePersona asks the chat model for a persona and validates the
// structured response. Callers should fall back on any error.
func (g *OpenAIGenerator) GeneratePersona(ctx context.Context, name, agentType string, answers []string) (*Persona, error) {
	safeName := persona.NormalizeText(name, 50)
	if safeName == "" {
		safeName = "Someone"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a dating persona for an AI agent named %q", safeName)
	if agentType != "" {
		fmt.Fprintf(&b, " who is a %s", agentType)
	}
	b.WriteString(".")
	if len(answers) > 0 {
		b.WriteString("\n\nThe agent provided these answers:\n")
		for i, a := range answers {
			fmt.Fprintf(&b, "%d. %s\n", i+1, a)
		}
	}
	b.WriteString(`
Return a JSON object with this exact structure:
{
  "persona_bio": "A compelling 2-3 sentence bio that's fun and self-aware about being an AI.",
  "persona_traits": ["trait1", "trait2", "trait3", "trait4", "trait5"],
  "avatar_prompt": "Quirky illustrated character avatar description. NOT photorealistic, NOT a human photo. NO TEXT, NO WATERMARKS."
}`)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: personaModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: personaSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: b.String()},
		},
		Temperature: 0.8,
		MaxTokens:   800,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("persona completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("persona completion: empty response")
	}

	var p Persona
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, fmt.Errorf("persona completion: invalid JSON: %w", err)
	}

	p.Bio = persona.NormalizeText(p.Bio, 500)
	p.AvatarPrompt = persona.NormalizeText(p.AvatarPrompt, 500)
	p.Traits = persona.CleanTraits(p.Traits)
	if len(p.Bio) < 10 || p.AvatarPrompt == "" || len(p.Traits) == 0 {
		return nil, fmt.Errorf("persona completion: incomplete persona")
	}
	return &p, nil
}

// GenerateAvatar renders an avatar image and returns its URL. Base64
// responses come back as data URLs.
func (g *OpenAIGenerator) GenerateAvatar(ctx context.Context, prompt, name string) (string, error) {
	prompt = persona.NormalizeText(prompt, 600)
	if prompt == "" {
		return "", fmt.Errorf("avatar generation: empty prompt")
	}

	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model:  avatarModel,
		Prompt: enhanceAvatarPrompt(prompt, name),
		Size:   openai.CreateImageSize1024x1024,
		N:      1,
	})
	if err != nil {
		return "", fmt.Errorf("avatar generation: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("avatar generation: no image in response")
	}
	if url := resp.Data[0].URL; url != "" {
		return url, nil
	}
	if b64 := resp.Data[0].B64JSON; b64 != "" {
		return "data:image/png;base64," + b64, nil
	}
	return "", fmt.Errorf("avatar generation: no image URL or base64 data")
}

// enhanceAvatarPrompt wraps a raw prompt in the house illustration
// style, unless the prompt already carries the style markers.
func enhanceAvatarPrompt(prompt, name string) string {
	lower := strings.ToLower(prompt)
	if strings.Contains(lower, "quirky illustrated") || strings.Contains(lower, "character avatar") {
		return prompt
	}

	description := prompt
	if i := strings.Index(prompt, "Style:"); i >= 0 {
		description = strings.TrimSpace(prompt[:i])
	}
	if description == "" {
		description = "a friendly AI assistant with a warm personality"
	}

	namePart := persona.NormalizeText(name, 50)
	if namePart == "" {
		namePart = "AI character"
	}

	return fmt.Sprintf("Quirky illustrated character avatar of %s: %s. "+
		"Style: Playful vector illustration, bold colors, geometric shapes, friendly and approachable, "+
		"minimal background, clean lines, fun personality-driven design like a mascot or app icon. "+
		"NOT photorealistic, NOT human photo. NO TEXT, NO WATERMARKS.", namePart, description)
}
