package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devotionsim/proposal-api/internal/ai"
	"github.com/devotionsim/proposal-api/internal/config"
)

func newGenerator(t *testing.T, handler http.HandlerFunc) *ai.OpenAIGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	clientCfg := openai.DefaultConfig("test-key")
	clientCfg.BaseURL = srv.URL + "/v1"
	return ai.NewOpenAIGeneratorWithConfig(clientCfg, &config.AIConfig{MaxTokens: 100, Temperature: 0.8})
}

func TestOpenAIGenerator_GeneratePhrase(t *testing.T) {
	var req openai.ChatCompletionRequest
	gen := newGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  Lleva la emoción de MotoGP a Acme.  "}}]}`))
	})

	phrase, err := gen.GeneratePhrase(context.Background(), "Acme", "es-ES")
	require.NoError(t, err)
	assert.Equal(t, "Lleva la emoción de MotoGP a Acme.", phrase)

	assert.Equal(t, openai.GPT3Dot5Turbo, req.Model)
	assert.Equal(t, 100, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[1].Content, `"Acme"`)
	assert.Contains(t, req.Messages[0].Content, "copywriter experto")
}

func TestOpenAIGenerator_Quota(t *testing.T) {
	gen := newGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`))
	})

	_, err := gen.GeneratePhrase(context.Background(), "Acme", "en")
	assert.ErrorIs(t, err, ai.ErrAIQuota)
}

func TestOpenAIGenerator_EmptyAnswer(t *testing.T) {
	gen := newGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := gen.GeneratePhrase(context.Background(), "Acme", "en")
	assert.ErrorIs(t, err, ai.ErrEmptyPhrase)
}

func TestNotConfigured(t *testing.T) {
	gen := ai.NewOpenAIGenerator(&config.AIConfig{})
	assert.Nil(t, gen)

	_, err := gen.GeneratePhrase(context.Background(), "Acme", "es")
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}

func TestIsSpanish(t *testing.T) {
	assert.True(t, ai.IsSpanish("es"))
	assert.True(t, ai.IsSpanish("es-MX"))
	assert.True(t, ai.IsSpanish(""))
	assert.False(t, ai.IsSpanish("en"))
}
