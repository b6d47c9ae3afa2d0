// Package ai adapts generative model APIs to the extraction port.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autodealer/backend/internal/application/extraction"
	"github.com/autodealer/backend/internal/infrastructure/config"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const extractionPrompt = `You extract vehicle data for a car dealership from the text below.
Answer with JSON only. Use an empty string or 0 for anything the text does not state; never guess.
Amounts are plain decimal numbers without currency symbols or thousands separators.
origin_country is an ISO 3166-1 alpha-2 code, currency an ISO 4217 code.
Cost categories are one of: transport, customs, homologation, co2_malus, workshop, detailing, parts, other.

TEXT:
%s`

// GeminiExtractor implements extraction.Extractor with Google Gemini
type GeminiExtractor struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  *zap.Logger
}

var _ extraction.Extractor = (*GeminiExtractor)(nil)

// NewGeminiExtractor creates a client for cfg.Model
func NewGeminiExtractor(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*GeminiExtractor, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = vehicleSchema()

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiExtractor{client: client, model: model, timeout: timeout, logger: logger}, nil
}

// Extract asks the model for structured vehicle data
func (g *GeminiExtractor) Extract(ctx context.Context, text string) (*extraction.RawVehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(extractionPrompt, text)))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	g.logger.Debug("gemini extraction completed", zap.Duration("duration", time.Since(start)))

	return decodeResponse(resp)
}

// Close releases the underlying client
func (g *GeminiExtractor) Close() error {
	return g.client.Close()
}

// decodeResponse reads the JSON text part of the first candidate
func decodeResponse(resp *genai.GenerateContentResponse) (*extraction.RawVehicle, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	payload := strings.TrimSpace(sb.String())
	// Some model versions still wrap JSON in a markdown fence
	payload = strings.TrimPrefix(payload, "```json")
	payload = strings.TrimPrefix(payload, "```")
	payload = strings.TrimSuffix(payload, "```")
	if payload == "" {
		return nil, errors.New("gemini returned an empty answer")
	}

	var raw extraction.RawVehicle
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("gemini answer is not valid JSON: %w", err)
	}
	return &raw, nil
}

func vehicleSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"make":           str("Manufacturer"),
			"model":          str("Model name"),
			"trim":           str("Trim or version"),
			"vin":            str("17 character VIN"),
			"year":           {Type: genai.TypeInteger, Description: "Model year"},
			"mileage":        {Type: genai.TypeInteger, Description: "Odometer in km"},
			"color":          str("Exterior colour"),
			"origin_country": str("ISO 3166-1 alpha-2 country the vehicle is bought from"),
			"currency":       str("ISO 4217 currency of the prices"),
			"purchase_price": str("Purchase price as a decimal number"),
			"selling_price":  str("Asking price as a decimal number"),
			"costs": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"category":    str("Cost category"),
						"amount":      str("Amount as a decimal number"),
						"description": str("Short description"),
					},
					Required: []string{"category", "amount"},
				},
			},
		},
		Required: []string{"make", "model"},
	}
}

// New returns the extractor selected by cfg.Provider, nil when AI is disabled
func New(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (extraction.Extractor, func() error, error) {
	switch cfg.Provider {
	case "gemini":
		g, err := NewGeminiExtractor(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case "none", "":
		return nil, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
