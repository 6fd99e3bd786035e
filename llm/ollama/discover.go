// Package ollama discovers models served by a local Ollama instance and
// turns them into catalog entries. Chat requests to those models go through
// Ollama's OpenAI-compatible endpoint, so no separate wire codec is needed.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aschepis/backscratcher/chatapi/llm"
	"github.com/ollama/ollama/api"
	"github.com/samber/lo"
)

// DefaultHost is used when neither the config nor OLLAMA_HOST names one.
const DefaultHost = "http://localhost:11434"

// visionFamilies mark models that accept image input.
var visionFamilies = []string{"clip", "mllama"}

// Host picks the Ollama host: OLLAMA_HOST wins over configured, then DefaultHost.
func Host(configured string) string {
	if envHost := os.Getenv("OLLAMA_HOST"); envHost != "" {
		return envHost
	}
	if configured != "" {
		return configured
	}
	return DefaultHost
}

// NewClient creates an Ollama API client for host.
func NewClient(host string, httpClient *http.Client) (*api.Client, error) {
	baseURL, err := parseHost(host)
	if err != nil {
		return nil, fmt.Errorf("invalid host: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return api.NewClient(baseURL, httpClient), nil
}

// parseHost parses a host string into a URL.
func parseHost(host string) (*url.URL, error) {
	// If host doesn't have a scheme, add http://
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

// Discover lists the models installed on the Ollama instance at host.
func Discover(ctx context.Context, client *api.Client, host string) ([]llm.RawModelConfig, error) {
	resp, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ollama models: %w", err)
	}

	base, err := parseHost(host)
	if err != nil {
		return nil, fmt.Errorf("invalid host: %w", err)
	}
	endpoint := strings.TrimSuffix(base.String(), "/") + "/v1/chat/completions"

	return lo.Map(resp.Models, func(m api.ListModelResponse, _ int) llm.RawModelConfig {
		return llm.RawModelConfig{
			Name:          catalogName(m.Name),
			APIName:       m.Name,
			CanReadImages: lo.Some(m.Details.Families, visionFamilies),
			APIProvider:   llm.ProviderOpenAI,
			APIURL:        endpoint,
			Explanation:   describe(m),
		}
	}), nil
}

// catalogName turns "phi4:14b" into "phi4-14b-ollama".
func catalogName(tag string) string {
	name := strings.TrimSuffix(tag, ":latest")
	name = strings.NewReplacer(":", "-", "/", "-").Replace(name)
	return name + "-ollama"
}

func describe(m api.ListModelResponse) string {
	parts := lo.Compact([]string{m.Details.Family, m.Details.ParameterSize, m.Details.QuantizationLevel})
	if len(parts) == 0 {
		return "Local model served by Ollama."
	}
	return fmt.Sprintf("Local model served by Ollama (%s).", strings.Join(parts, ", "))
}
