package anthropic

import (
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/aschepis/backscratcher/chatapi/llm"
)

// ToMessageParam converts an llm.Message to an Anthropic MessageParam.
func ToMessageParam(msg llm.Message) anthropic.MessageParam {
	contentBlocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case llm.ContentBlockTypeText:
			contentBlocks = append(contentBlocks, anthropic.NewTextBlock(block.Text))
		case llm.ContentBlockTypeImage:
			if block.Image != nil {
				contentBlocks = append(contentBlocks, anthropic.NewImageBlockBase64(
					block.Image.MediaType,
					block.Image.Base64(),
				))
			}
		}
	}

	switch msg.Role {
	case llm.RoleAssistant:
		return anthropic.NewAssistantMessage(contentBlocks...)
	default:
		return anthropic.NewUserMessage(contentBlocks...)
	}
}

// ToMessageParams converts the conversation, pulling system messages out
// into the separate system prompt Anthropic expects.
func ToMessageParams(msgs []llm.Message) (system []anthropic.TextBlockParam, params []anthropic.MessageParam) {
	var systemParts []string
	params = make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == llm.RoleSystem {
			systemParts = append(systemParts, msg.Text())
			continue
		}
		params = append(params, ToMessageParam(msg))
	}
	if len(systemParts) > 0 {
		system = []anthropic.TextBlockParam{
			{Text: strings.Join(systemParts, "\n\n")},
		}
	}
	return system, params
}
