package llm

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ParseRole converts a role string (case-insensitive) to a MessageRole.
func ParseRole(s string) (MessageRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	case "system":
		return RoleSystem, nil
	default:
		return "", fmt.Errorf("invalid message role: %q", s)
	}
}

// Message represents a single message in a conversation.
// This is provider-neutral; codecs translate it into each provider's shape.
type Message struct {
	Role    MessageRole
	Content []ContentBlock
}

// ContentBlock represents a single content block within a message.
// It is either text or an image.
type ContentBlock struct {
	Type  ContentBlockType
	Text  string      // For text blocks
	Image *ImageBlock // For image blocks
}

// ContentBlockType represents the type of content block.
type ContentBlockType string

const (
	ContentBlockTypeText  ContentBlockType = "text"
	ContentBlockTypeImage ContentBlockType = "image"
)

// ImageBlock is raw image data attached to a message.
type ImageBlock struct {
	MediaType string // e.g. "image/png"
	Data      []byte
}

// Base64 returns the standard base64 encoding of the image bytes.
func (b *ImageBlock) Base64() string {
	return base64.StdEncoding.EncodeToString(b.Data)
}

// DataURL returns the image as a data: URL.
func (b *ImageBlock) DataURL() string {
	return "data:" + b.MediaType + ";base64," + b.Base64()
}

// String renders the content block the way it appears in prompt dumps.
func (c ContentBlock) String() string {
	switch c.Type {
	case ContentBlockTypeImage:
		if c.Image == nil {
			return ""
		}
		return fmt.Sprintf("<|raw_media(%s:%s)|>", c.Image.MediaType, c.Image.Base64())
	default:
		return c.Text
	}
}

// Text concatenates the text blocks of the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, block := range m.Content {
		if block.Type == ContentBlockTypeText {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// HasImages reports whether the message carries any image block.
func (m Message) HasImages() bool {
	for _, block := range m.Content {
		if block.Type == ContentBlockTypeImage {
			return true
		}
	}
	return false
}

// Request is the provider-agnostic payload for one chat turn.
// Nil sampling fields are omitted from the wire body entirely.
type Request struct {
	Model            string // provider-side model identifier (api name)
	Messages         []Message
	MaxTokens        *int64
	Temperature      *float64
	FrequencyPenalty *float64
}

// Response is the normalized response shared by all providers.
type Response struct {
	Choices []Choice
	Usage   Usage
}

// Choice is one generated message.
type Choice struct {
	Content      string
	FinishReason string
}

// Usage represents token usage information from an LLM response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Message returns the content of the choice at index i.
func (r *Response) Message(i int) (string, error) {
	if r == nil || i < 0 || i >= len(r.Choices) {
		return "", fmt.Errorf("no message at index %d", i)
	}
	return r.Choices[i].Content, nil
}

// NewTextMessage creates a new message with a single text block.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{
				Type: ContentBlockTypeText,
				Text: text,
			},
		},
	}
}

// NewImageBlock creates an image content block.
func NewImageBlock(mediaType string, data []byte) ContentBlock {
	return ContentBlock{
		Type:  ContentBlockTypeImage,
		Image: &ImageBlock{MediaType: mediaType, Data: data},
	}
}

// NewTextResponse creates a single-choice response with no usage.
func NewTextResponse(text string) *Response {
	return &Response{
		Choices: []Choice{{Content: text, FinishReason: "stop"}},
	}
}
