package openai

import (
	"github.com/aschepis/backscratcher/chatapi/llm"
	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
)

// ToOpenAIMessages converts llm.Messages to OpenAI chat message format.
func ToOpenAIMessages(msgs []llm.Message) []openai.ChatCompletionMessage {
	return lo.Map(msgs, func(msg llm.Message, _ int) openai.ChatCompletionMessage {
		return ToOpenAIMessage(msg)
	})
}

// ToOpenAIMessage converts a single llm.Message to OpenAI format.
// Text-only messages use the plain string content form; messages with images
// use multi-part content so that non-vision endpoints still get the simple shape.
func ToOpenAIMessage(msg llm.Message) openai.ChatCompletionMessage {
	role := toOpenAIRole(msg.Role)

	if !msg.HasImages() {
		return openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Text(),
		}
	}

	parts := make([]openai.ChatMessagePart, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case llm.ContentBlockTypeText:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: block.Text,
			})
		case llm.ContentBlockTypeImage:
			if block.Image != nil {
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    block.Image.DataURL(),
						Detail: openai.ImageURLDetailAuto,
					},
				})
			}
		}
	}

	return openai.ChatCompletionMessage{
		Role:         role,
		MultiContent: parts,
	}
}

func toOpenAIRole(role llm.MessageRole) string {
	switch role {
	case llm.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case llm.RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
