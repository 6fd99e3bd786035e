package openai

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aschepis/backscratcher/chatapi/llm"
	openai "github.com/sashabaranov/go-openai"
)

// chatRequest is the request body of POST /chat/completions.
// go-openai's ChatCompletionRequest drops zero temperatures through
// omitempty, so sampling fields are pointers here and only the message
// type is shared with the SDK.
type chatRequest struct {
	Model            string                         `json:"model"`
	Messages         []openai.ChatCompletionMessage `json:"messages"`
	MaxTokens        *int64                         `json:"max_tokens,omitempty"`
	Temperature      *float64                       `json:"temperature,omitempty"`
	FrequencyPenalty *float64                       `json:"frequency_penalty,omitempty"`
}

// EncodeRequest builds the JSON body for an OpenAI-compatible endpoint.
func EncodeRequest(req *llm.Request) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	body := chatRequest{
		Model:            req.Model,
		Messages:         ToOpenAIMessages(req.Messages),
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		FrequencyPenalty: req.FrequencyPenalty,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal openai request: %w", err)
	}
	return data, nil
}

// Authorize sets the bearer token. Self-hosted endpoints often need no key,
// so an empty key sends no Authorization header.
func Authorize(h http.Header, apiKey string) {
	if apiKey != "" {
		h.Set("Authorization", "Bearer "+apiKey)
	}
}

// DecodeResponse parses a chat completion body into the normalized response.
//
// Wire fields: choices[i].message.content, choices[i].finish_reason,
// usage.prompt_tokens, usage.completion_tokens.
func DecodeResponse(body []byte) (*llm.Response, error) {
	if err := llm.RequireFields(body, "choices"); err != nil {
		return nil, llm.NewMalformedResponseError(llm.ProviderOpenAI, err)
	}

	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, llm.NewMalformedResponseError(llm.ProviderOpenAI, err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewMalformedResponseError(llm.ProviderOpenAI, fmt.Errorf("no choices in response"))
	}

	choices := make([]llm.Choice, len(resp.Choices))
	for i, choice := range resp.Choices {
		choices[i] = llm.Choice{
			Content:      choice.Message.Content,
			FinishReason: string(choice.FinishReason),
		}
	}

	return &llm.Response{
		Choices: choices,
		Usage: llm.Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}, nil
}
