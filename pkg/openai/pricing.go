// Package openai provides OpenAI-related infrastructure and pricing data
// for realtime audio sessions.
package openai

import (
	"encoding/json"
	"fmt"
	"os"
)

// TokenPricing is the cost per million audio tokens for a model, in USD.
type TokenPricing struct {
	AudioInputPerMillion  float64 `json:"audio_input_per_million"`
	AudioOutputPerMillion float64 `json:"audio_output_per_million"`
}

// defaultPricing covers the realtime models this application targets.
// A pricing file can override or extend it.
var defaultPricing = map[string]TokenPricing{
	"gpt-4o-realtime-preview": {
		AudioInputPerMillion:  40.0,
		AudioOutputPerMillion: 80.0,
	},
	"gpt-4o-mini-realtime-preview": {
		AudioInputPerMillion:  10.0,
		AudioOutputPerMillion: 20.0,
	},
}

// PricingService calculates audio token costs for realtime models.
type PricingService interface {
	// ModelPricing returns the pricing for a model, or an error if the
	// model is unknown.
	ModelPricing(model string) (TokenPricing, error)

	// AudioTokenCost calculates the cost in USD of the given audio token
	// counts for a model.
	AudioTokenCost(model string, inputAudioTokens, outputAudioTokens int) (float64, error)
}

type pricingService struct {
	models map[string]TokenPricing
}

// NewPricingService returns a service backed by the built-in pricing table.
func NewPricingService() PricingService {
	models := make(map[string]TokenPricing, len(defaultPricing))
	for name, p := range defaultPricing {
		models[name] = p
	}

	return &pricingService{models: models}
}

// NewPricingServiceFromFile loads a JSON pricing file mapping model names
// to TokenPricing, layered over the built-in table.
func NewPricingServiceFromFile(path string) (PricingService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	var overrides map[string]TokenPricing
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file: %w", err)
	}

	svc := NewPricingService().(*pricingService)
	for name, p := range overrides {
		svc.models[name] = p
	}

	return svc, nil
}

func (p *pricingService) ModelPricing(model string) (TokenPricing, error) {
	pricing, exists := p.models[model]
	if !exists {
		return TokenPricing{}, fmt.Errorf("pricing data not found for model: %s", model)
	}

	return pricing, nil
}

func (p *pricingService) AudioTokenCost(model string, inputAudioTokens, outputAudioTokens int) (float64, error) {
	pricing, err := p.ModelPricing(model)
	if err != nil {
		return 0, err
	}

	inputCost := (float64(inputAudioTokens) / 1_000_000) * pricing.AudioInputPerMillion
	outputCost := (float64(outputAudioTokens) / 1_000_000) * pricing.AudioOutputPerMillion

	return inputCost + outputCost, nil
}
