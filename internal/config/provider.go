package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ModelMetadata is display-only information about the models cc-dump
// sees pass through the proxy: cc-dump never calls a model itself (it
// only observes an existing client's traffic), so unlike a provider
// config there is no API base URL or key here — just a short display
// label per model id (DisplayName) and per-model pricing, from which the
// formatter derives the estimated-cost MetadataBlock it emits after each
// StopReasonBlock.
type ModelMetadata struct {
	// ModelAliases maps a wire model id (e.g. "claude-opus-4-20250514")
	// to a short display label ("Opus 4").
	ModelAliases map[string]string `json:"model_aliases"`
	// Pricing holds per-model pricing metadata for the formatter's
	// per-exchange "estimated_cost_usd" MetadataBlock.
	Pricing map[string]ModelPricing `json:"pricing"`
}

// ModelPricing defines per-model pricing for cost estimation.
type ModelPricing struct {
	// InputPer1M is the cost per 1M prompt tokens.
	InputPer1M float64 `json:"input_per_1m"`
	// OutputPer1M is the cost per 1M completion tokens.
	OutputPer1M float64 `json:"output_per_1m"`
}

// ErrModelMetadataMissing is returned when the config file does not exist.
var ErrModelMetadataMissing = errors.New("model metadata config missing")

// ModelMetadataPath returns the default model metadata config path.
func ModelMetadataPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".ccdump", "models.json"), nil
}

// LoadModelMetadata reads model display/pricing metadata. A missing file
// is not an error beyond the caller being told via ErrModelMetadataMissing
// so it can fall back to showing raw model ids with no cost estimate.
func LoadModelMetadata(path string) (*ModelMetadata, error) {
	if path == "" {
		var err error
		path, err = ModelMetadataPath()
		if err != nil {
			return nil, err
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrModelMetadataMissing
		}
		return nil, fmt.Errorf("read model metadata: %w", err)
	}

	var meta ModelMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parse model metadata: %w", err)
	}

	if meta.ModelAliases == nil {
		meta.ModelAliases = make(map[string]string)
	}
	if meta.Pricing == nil {
		meta.Pricing = make(map[string]ModelPricing)
	}

	return &meta, nil
}

// DisplayName returns the short label for a wire model id, or the id
// itself when no alias is configured.
func (m *ModelMetadata) DisplayName(modelID string) string {
	if m == nil {
		return modelID
	}
	if alias, ok := m.ModelAliases[modelID]; ok {
		return alias
	}
	return modelID
}

// EstimateCostUSD estimates the dollar cost of a turn from its token
// counts, or returns (0, false) when no pricing is configured for the
// model.
func (m *ModelMetadata) EstimateCostUSD(modelID string, inputTokens, outputTokens int) (float64, bool) {
	if m == nil {
		return 0, false
	}
	pricing, ok := m.Pricing[modelID]
	if !ok {
		return 0, false
	}
	cost := float64(inputTokens)/1_000_000*pricing.InputPer1M + float64(outputTokens)/1_000_000*pricing.OutputPer1M
	return cost, true
}
