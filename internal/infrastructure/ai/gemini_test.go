package ai

import (
	"context"
	"testing"

	"github.com/autodealer/backend/internal/infrastructure/config"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func response(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestDecodeResponse(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		raw, err := decodeResponse(response(genai.Text(`{"make":"Audi","model":"A4","year":2020,"purchase_price":"18900.00","costs":[{"category":"transport","amount":"450"}]}`)))
		require.NoError(t, err)
		assert.Equal(t, "Audi", raw.Make)
		assert.Equal(t, 2020, raw.Year)
		assert.Equal(t, "18900.00", raw.PurchasePrice)
		require.Len(t, raw.Costs, 1)
		assert.Equal(t, "450", raw.Costs[0].Amount)
	})

	t.Run("fenced JSON split over parts", func(t *testing.T) {
		raw, err := decodeResponse(response(genai.Text("```json\n{\"make\":\"Fiat\","), genai.Text("\"model\":\"500\"}\n```")))
		require.NoError(t, err)
		assert.Equal(t, "Fiat", raw.Make)
		assert.Equal(t, "500", raw.Model)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, err := decodeResponse(&genai.GenerateContentResponse{})
		assert.Error(t, err)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := decodeResponse(response())
		assert.Error(t, err)
	})

	t.Run("not JSON", func(t *testing.T) {
		_, err := decodeResponse(response(genai.Text("I could not find a vehicle")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid JSON")
	})
}

func TestVehicleSchema(t *testing.T) {
	s := vehicleSchema()
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"make", "model"}, s.Required)
	assert.Equal(t, genai.TypeArray, s.Properties["costs"].Type)
}

func TestNew(t *testing.T) {
	ext, closeFn, err := New(context.Background(), config.AIConfig{Provider: "none"}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, ext)
	assert.NoError(t, closeFn())

	_, _, err = New(context.Background(), config.AIConfig{Provider: "gemini"}, zap.NewNop())
	assert.Error(t, err, "api key is required")

	_, _, err = New(context.Background(), config.AIConfig{Provider: "openai"}, zap.NewNop())
	assert.Error(t, err)
}
