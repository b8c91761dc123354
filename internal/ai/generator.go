// Package ai suggests personalised hook phrases for proposals.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/devotionsim/proposal-api/internal/config"
	"github.com/devotionsim/proposal-api/internal/domain"
)

const serviceName = "openai"

var (
	// ErrAIQuota is returned when the provider rejects a call for quota or rate limits
	ErrAIQuota = errors.New("ai provider quota exceeded")
	// ErrNotConfigured is returned when no provider key is set
	ErrNotConfigured = errors.New("ai provider not configured")
	// ErrEmptyPhrase is returned when the provider answers without text
	ErrEmptyPhrase = errors.New("no phrase generated")
)

// Generator writes a short hook phrase for a client
type Generator interface {
	GeneratePhrase(ctx context.Context, clientName, locale string) (string, error)
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIGenerator uses the OpenAI chat completions API
type OpenAIGenerator struct {
	client      chatClient
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIGenerator returns nil when no API key is configured
func NewOpenAIGenerator(cfg *config.AIConfig) *OpenAIGenerator {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	return NewOpenAIGeneratorWithConfig(openai.DefaultConfig(cfg.OpenAIAPIKey), cfg)
}

// NewOpenAIGeneratorWithConfig allows pointing the client at another base URL
func NewOpenAIGeneratorWithConfig(clientCfg openai.ClientConfig, cfg *config.AIConfig) *OpenAIGenerator {
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// IsSpanish reports whether locale selects the Spanish prompt
func IsSpanish(locale string) bool {
	locale = strings.ToLower(locale)
	return locale == "" || locale == "es" || strings.HasPrefix(locale, "es-")
}

func prompts(clientName, locale string) (system, user string) {
	if IsSpanish(locale) {
		system = `Eres un copywriter experto que trabaja para una empresa de simuladores de motociclismo de gama premium llamada DevotionSim. Tu tarea es escribir frases de captación breves, persuasivas y profesionales para propuestas comerciales. Las frases deben:
- Ser de máximo 2-3 oraciones
- Tener un tono profesional y premium
- Estar enfocadas en el valor para el negocio del cliente
- No incluir precios ni cifras
- No usar clichés genéricos`
		user = fmt.Sprintf(`Genera una frase de captación personalizada para la empresa: "%s". La frase debe hacer que quieran saber más sobre cómo nuestros simuladores pueden beneficiar su negocio.`, clientName)
		return system, user
	}

	system = `You are an expert copywriter working for a premium motorcycling simulator company called DevotionSim. Your task is to write short, persuasive, and professional hook phrases for business proposals. The phrases should:
- Be maximum 2-3 sentences
- Have a professional and premium tone
- Focus on the value for the client's business
- Not include prices or figures
- Avoid generic clichés`
	user = fmt.Sprintf(`Generate a personalized hook phrase for the company: "%s". The phrase should make them want to learn more about how our simulators can benefit their business.`, clientName)
	return system, user
}

func (g *OpenAIGenerator) GeneratePhrase(ctx context.Context, clientName, locale string) (string, error) {
	if g == nil || g.client == nil {
		return "", ErrNotConfigured
	}

	system, user := prompts(clientName, locale)
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &domain.UpstreamRejectedError{Service: serviceName, Detail: "empty response", Err: ErrEmptyPhrase}
	}
	phrase := strings.TrimSpace(resp.Choices[0].Message.Content)
	if phrase == "" {
		return "", &domain.UpstreamRejectedError{Service: serviceName, Detail: "empty response", Err: ErrEmptyPhrase}
	}
	return phrase, nil
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.Type == "insufficient_quota" {
			return fmt.Errorf("%w: %s", ErrAIQuota, apiErr.Message)
		}
		return &domain.UpstreamRejectedError{
			Service: serviceName,
			Detail:  fmt.Sprintf("status %d", apiErr.HTTPStatusCode),
			Err:     err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrAIQuota, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.UpstreamTimeoutError{Service: serviceName, Err: err}
	}
	return &domain.UpstreamRejectedError{Service: serviceName, Err: err}
}
