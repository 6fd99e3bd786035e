package anthropic

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/aschepis/backscratcher/chatapi/llm"
)

const (
	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"

	// DefaultMaxTokens is used when the caller does not set max_tokens,
	// which the Messages API requires.
	DefaultMaxTokens int64 = 4096
)

// EncodeRequest builds the JSON body for POST /v1/messages.
// Anthropic has no frequency penalty; it is ignored.
func EncodeRequest(req *llm.Request) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	system, msgs := ToMessageParams(req.Messages)

	maxTokens := DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  msgs,
		System:    system,
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}
	return data, nil
}

// Authorize sets the api key and version headers.
func Authorize(h http.Header, apiKey string) {
	h.Set("x-api-key", apiKey)
	h.Set("anthropic-version", APIVersion)
}

// DecodeResponse parses a Messages API body into the normalized response.
// All text blocks of the message form one choice.
//
// Wire fields: content[i].type, content[i].text, stop_reason,
// usage.input_tokens, usage.output_tokens.
func DecodeResponse(body []byte) (*llm.Response, error) {
	if err := llm.RequireFields(body, "content", "usage"); err != nil {
		return nil, llm.NewMalformedResponseError(llm.ProviderAnthropic, err)
	}

	var message anthropic.Message
	if err := json.Unmarshal(body, &message); err != nil {
		return nil, llm.NewMalformedResponseError(llm.ProviderAnthropic, err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &llm.Response{
		Choices: []llm.Choice{{
			Content:      sb.String(),
			FinishReason: string(message.StopReason),
		}},
		Usage: llm.Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
	}, nil
}
