// Package cohere encodes requests for and decodes responses from the Cohere
// v2 chat API (POST https://api.cohere.com/v2/chat).
package cohere

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aschepis/backscratcher/chatapi/llm"
)

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	MaxTokens        *int64        `json:"max_tokens,omitempty"`
	Temperature      *float64      `json:"temperature,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`
}

// chatMessage content is either a string or a list of parts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	ID           string `json:"id"`
	FinishReason string `json:"finish_reason"`
	Message      struct {
		Role    string        `json:"role"`
		Content []contentPart `json:"content"`
	} `json:"message"`
	Usage struct {
		BilledUnits tokenCounts  `json:"billed_units"`
		Tokens      *tokenCounts `json:"tokens"`
	} `json:"usage"`
}

type tokenCounts struct {
	InputTokens  float64 `json:"input_tokens"`
	OutputTokens float64 `json:"output_tokens"`
}

// EncodeRequest builds the JSON body for the v2 chat endpoint.
func EncodeRequest(req *llm.Request) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	msgs := make([]chatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		msgs = append(msgs, toChatMessage(msg))
	}

	data, err := json.Marshal(chatRequest{
		Model:            req.Model,
		Messages:         msgs,
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		FrequencyPenalty: req.FrequencyPenalty,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal cohere request: %w", err)
	}
	return data, nil
}

func toChatMessage(msg llm.Message) chatMessage {
	role := string(msg.Role)
	if role == "" {
		role = string(llm.RoleUser)
	}
	if !msg.HasImages() {
		return chatMessage{Role: role, Content: msg.Text()}
	}

	parts := make([]contentPart, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case llm.ContentBlockTypeText:
			parts = append(parts, contentPart{Type: "text", Text: block.Text})
		case llm.ContentBlockTypeImage:
			if block.Image != nil {
				parts = append(parts, contentPart{
					Type:     "image_url",
					ImageURL: &imageURL{URL: block.Image.DataURL()},
				})
			}
		}
	}
	return chatMessage{Role: role, Content: parts}
}

// Authorize sets the bearer token.
func Authorize(h http.Header, apiKey string) {
	h.Set("Authorization", "Bearer "+apiKey)
}

// DecodeResponse parses a v2 chat body into the normalized response.
//
// Wire fields: message.content[i].text, finish_reason,
// usage.tokens.{input,output}_tokens (falling back to usage.billed_units).
func DecodeResponse(body []byte) (*llm.Response, error) {
	if err := llm.RequireFields(body, "message"); err != nil {
		return nil, llm.NewMalformedResponseError(llm.ProviderCohere, err)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, llm.NewMalformedResponseError(llm.ProviderCohere, err)
	}

	var sb strings.Builder
	for _, part := range resp.Message.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}

	counts := resp.Usage.BilledUnits
	if resp.Usage.Tokens != nil {
		counts = *resp.Usage.Tokens
	}

	return &llm.Response{
		Choices: []llm.Choice{{
			Content:      sb.String(),
			FinishReason: resp.FinishReason,
		}},
		Usage: llm.Usage{
			InputTokens:  int64(counts.InputTokens),
			OutputTokens: int64(counts.OutputTokens),
		},
	}, nil
}
