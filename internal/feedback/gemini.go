package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/model"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// contentGenerator is the slice of the genai models API the advisor uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAdvisor asks Gemini for a reply and falls back to another advisor
// when the call fails or returns nothing.
type GeminiAdvisor struct {
	models   contentGenerator
	model    string
	fallback Advisor
	log      zerolog.Logger
}

// NewGeminiAdvisor creates a GeminiAdvisor using the Gemini API backend.
func NewGeminiAdvisor(ctx context.Context, apiKey, model string, fallback Advisor, log zerolog.Logger) (*GeminiAdvisor, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGeminiAdvisor(client.Models, model, fallback, log), nil
}

func newGeminiAdvisor(models contentGenerator, model string, fallback Advisor, log zerolog.Logger) *GeminiAdvisor {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if fallback == nil {
		fallback = RuleAdvisor{}
	}
	return &GeminiAdvisor{
		models:   models,
		model:    model,
		fallback: fallback,
		log:      log.With().Str("component", "gemini_advisor").Logger(),
	}
}

func (g *GeminiAdvisor) Advise(ctx context.Context, b Brief, message string, history []model.ChatTurn) (string, error) {
	reply, err := g.generate(ctx, b, message, history)
	if err == nil {
		return reply, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	g.log.Warn().Err(err).Str("model", g.model).Msg("Gemini reply failed, using rule advisor")
	return g.fallback.Advise(ctx, b, message, history)
}

func (g *GeminiAdvisor) generate(ctx context.Context, b Brief, message string, history []model.ChatTurn) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt(b), genai.RoleUser),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}

func systemPrompt(b Brief) string {
	return fmt.Sprintf(`You are a supportive career coach talking to a job candidate who just finished a timed technical screening.
Their result: status %s, score %.0f%%, %d questions answered, time taken %d minutes %d seconds.
A "reject" status means they may retake the screening after six weeks; "review" means a recruiter will look at it; "pass" means they advance.
Give specific, encouraging, practical advice in under 250 words. Never reveal or guess correct answers to screening questions.`,
		b.Status, b.Score, b.Answered, b.ElapsedSeconds/60, b.ElapsedSeconds%60)
}
