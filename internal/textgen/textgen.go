// Package textgen produces short marketing descriptions for products through a hosted
// generative-text model. Failures never propagate: callers always get displayable text.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"storefront-service/internal/domain"
)

// Fallback texts shown instead of a generated description.
const (
	FallbackEmpty = "Não foi possível gerar a descrição."
	FallbackError = "Erro ao conectar com a IA."
)

const defaultCategory = "Ativos Digitais"

const promptTemplate = `Gere uma descrição curta, profissional e persuasiva para um produto digital do tipo "%s" chamado "%s" na categoria "%s". Use uma linguagem atraente para o mercado de Moçambique. Max 3 parágrafos.`

// Sampling parameters used for every request.
const (
	Temperature float32 = 0.7
	TopK        float32 = 40
	TopP        float32 = 0.95
)

// ErrDisabled is returned by generators constructed without credentials.
var ErrDisabled = errors.New("textgen: generator disabled (no API key)")

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Suggester builds the prompt and applies the fallback contract.
type Suggester struct {
	gen    Generator
	logger *zap.Logger
}

// NewSuggester wraps gen. A nil gen behaves as a disabled generator.
func NewSuggester(gen Generator, logger *zap.Logger) *Suggester {
	if gen == nil {
		gen = disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suggester{gen: gen, logger: logger}
}

// Prompt renders the fixed prompt template.
func Prompt(title, category string, kind domain.ProductType) string {
	category = strings.TrimSpace(category)
	if category == "" {
		category = defaultCategory
	}
	return fmt.Sprintf(promptTemplate, kind.Label(), strings.TrimSpace(title), category)
}

// Suggest returns a generated description, or a fallback string when generation fails or
// comes back empty. It never returns an empty string.
func (s *Suggester) Suggest(ctx context.Context, title, category string, kind domain.ProductType) string {
	text, err := s.gen.Generate(ctx, Prompt(title, category, kind))
	if err != nil {
		s.logger.Warn("description generation failed", zap.String("title", title), zap.Error(err))
		return FallbackError
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackEmpty
	}
	return text
}

type disabled struct{}

func (disabled) Generate(context.Context, string) (string, error) { return "", ErrDisabled }

// GenAIGenerator calls the Gemini API.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates a Gemini-backed generator. It returns ErrDisabled when apiKey is empty.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrDisabled
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("textgen: failed to create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

// Generate sends a single-turn prompt with the fixed sampling parameters.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(Temperature),
		TopK:        genai.Ptr(TopK),
		TopP:        genai.Ptr(TopP),
	})
	if err != nil {
		return "", fmt.Errorf("textgen: GenerateContent failed: %w", err)
	}
	return resp.Text(), nil
}
