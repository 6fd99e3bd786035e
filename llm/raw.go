package llm

import (
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
)

// RawModelConfig is the human-edited form of a Model, as stored in
// models.json / models.yaml / models.toml. Prices are dollars per 1 million tokens.
type RawModelConfig struct {
	// Model name shown to the user and used for lookups.
	Name string `json:"name" yaml:"name" toml:"name"`

	// Model name used in api requests.
	APIName string `json:"api_name" yaml:"api_name" toml:"api_name"`

	CanReadImages bool `json:"can_read_images" yaml:"can_read_images" toml:"can_read_images"`

	// openai | cohere | anthropic. Use openai for openai-compatible apis.
	APIProvider string `json:"api_provider" yaml:"api_provider" toml:"api_provider"`

	// Only used by openai-compatible apis; defaults to the OpenAI endpoint.
	APIURL string `json:"api_url,omitempty" yaml:"api_url,omitempty" toml:"api_url,omitempty"`

	InputPrice  float64 `json:"input_price" yaml:"input_price" toml:"input_price"`
	OutputPrice float64 `json:"output_price" yaml:"output_price" toml:"output_price"`

	// Seconds. Defaults to 180.
	APITimeout *uint64 `json:"api_timeout,omitempty" yaml:"api_timeout,omitempty" toml:"api_timeout,omitempty"`

	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty" toml:"explanation,omitempty"`

	// Hard-coded api key. If neither api_key nor api_env_var is set the
	// model is assumed not to need a key.
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	APIEnvVar string `json:"api_env_var,omitempty" yaml:"api_env_var,omitempty" toml:"api_env_var,omitempty"`
}

// ToModel converts the raw config into a Model.
func (r RawModelConfig) ToModel() (Model, error) {
	provider, err := ParseProvider(r.APIProvider, r.APIURL)
	if err != nil {
		return Model{}, fmt.Errorf("model %q: %w", r.Name, err)
	}
	in, err := pricePer1B(r.InputPrice)
	if err != nil {
		return Model{}, fmt.Errorf("model %q: input_price: %w", r.Name, err)
	}
	out, err := pricePer1B(r.OutputPrice)
	if err != nil {
		return Model{}, fmt.Errorf("model %q: output_price: %w", r.Name, err)
	}

	timeout := DefaultTimeout
	if r.APITimeout != nil {
		timeout = time.Duration(*r.APITimeout) * time.Second
	}

	return Model{
		Name:                     r.Name,
		APIName:                  r.APIName,
		CanReadImages:            r.CanReadImages,
		Provider:                 provider,
		DollarsPer1BInputTokens:  in,
		DollarsPer1BOutputTokens: out,
		Timeout:                  timeout,
		Explanation:              r.Explanation,
		APIKeyLiteral:            r.APIKey,
		APIEnvVar:                r.APIEnvVar,
	}, nil
}

// ToRaw converts a Model back into its serializable form.
func (m Model) ToRaw() RawModelConfig {
	seconds := uint64(m.Timeout / time.Second)
	return RawModelConfig{
		Name:          m.Name,
		APIName:       m.APIName,
		CanReadImages: m.CanReadImages,
		APIProvider:   m.Provider.String(),
		APIURL:        m.Endpoint(),
		InputPrice:    float64(m.DollarsPer1BInputTokens) / 1000,
		OutputPrice:   float64(m.DollarsPer1BOutputTokens) / 1000,
		APITimeout:    &seconds,
		Explanation:   m.Explanation,
		APIKey:        m.APIKeyLiteral,
		APIEnvVar:     m.APIEnvVar,
	}
}

func pricePer1B(perMillion float64) (uint64, error) {
	if math.IsNaN(perMillion) || math.IsInf(perMillion, 0) || perMillion < 0 {
		return 0, fmt.Errorf("price must be a non-negative number, got %v", perMillion)
	}
	return uint64(math.Round(perMillion * 1000)), nil
}

// ModelsFromRaw converts every raw config, failing on the first bad entry.
func ModelsFromRaw(raws []RawModelConfig) ([]Model, error) {
	models := make([]Model, 0, len(raws))
	for _, raw := range raws {
		m, err := raw.ToModel()
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// ModelsToRaw converts models into their serializable form.
func ModelsToRaw(models []Model) []RawModelConfig {
	return lo.Map(models, func(m Model, _ int) RawModelConfig {
		return m.ToRaw()
	})
}

// DefaultRawModels returns the built-in catalog.
func DefaultRawModels() []RawModelConfig {
	return []RawModelConfig{
		{
			Name:        "llama3.3-70b-groq",
			APIName:     "llama-3.3-70b-versatile",
			APIProvider: ProviderOpenAI,
			APIURL:      "https://api.groq.com/openai/v1/chat/completions",
			InputPrice:  0.59,
			OutputPrice: 0.79,
			APIEnvVar:   "GROQ_API_KEY",
		},
		{
			Name:        "llama3.1-8b-groq",
			APIName:     "llama-3.1-8b-instant",
			APIProvider: ProviderOpenAI,
			APIURL:      "https://api.groq.com/openai/v1/chat/completions",
			InputPrice:  0.05,
			OutputPrice: 0.08,
			APIEnvVar:   "GROQ_API_KEY",
		},
		{
			Name:          "gpt-4o",
			APIName:       "gpt-4o",
			CanReadImages: true,
			APIProvider:   ProviderOpenAI,
			APIURL:        DefaultOpenAIURL,
			InputPrice:    2.5,
			OutputPrice:   10.0,
			APIEnvVar:     "OPENAI_API_KEY",
		},
		{
			Name:          "gpt-4o-mini",
			APIName:       "gpt-4o-mini",
			CanReadImages: true,
			APIProvider:   ProviderOpenAI,
			APIURL:        DefaultOpenAIURL,
			InputPrice:    0.15,
			OutputPrice:   0.6,
			APIEnvVar:     "OPENAI_API_KEY",
		},
		{
			Name:          "claude-3.5-sonnet",
			APIName:       "claude-3-5-sonnet-20240620",
			CanReadImages: true,
			APIProvider:   ProviderAnthropic,
			APIURL:        DefaultAnthropicURL,
			InputPrice:    3.0,
			OutputPrice:   15.0,
			APIEnvVar:     "ANTHROPIC_API_KEY",
		},
		{
			Name:          "command-r",
			APIName:       "command-r",
			CanReadImages: true,
			APIProvider:   ProviderCohere,
			APIURL:        DefaultCohereURL,
			InputPrice:    0.15,
			OutputPrice:   0.6,
			APIEnvVar:     "COHERE_API_KEY",
		},
		{
			Name:          "command-r-plus",
			APIName:       "command-r-plus",
			CanReadImages: true,
			APIProvider:   ProviderCohere,
			APIURL:        DefaultCohereURL,
			InputPrice:    2.5,
			OutputPrice:   10.0,
			APIEnvVar:     "COHERE_API_KEY",
		},
		{
			Name:          "phi-4-14b-ollama",
			APIName:       "phi4:14b",
			CanReadImages: true,
			APIProvider:   ProviderOpenAI,
			APIURL:        "http://127.0.0.1:11434/v1/chat/completions",
		},
	}
}

// DefaultModels returns the built-in catalog as Models.
func DefaultModels() []Model {
	models, err := ModelsFromRaw(DefaultRawModels())
	if err != nil {
		panic(fmt.Sprintf("built-in model catalog is invalid: %v", err))
	}
	return models
}
