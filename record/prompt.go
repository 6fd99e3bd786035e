package record

import (
	"fmt"
	"strings"

	"github.com/aschepis/backscratcher/chatapi/llm"
)

// RenderMessage renders one message as a role-tagged block:
//
//	<|user|>
//
//	content
func RenderMessage(msg llm.Message) string {
	return renderTagged(string(msg.Role), msg)
}

// RenderConsoleMessage renders a message for the interactive stdin model.
// The console tags capitalize the role: <|User|>, <|Assistant|>.
func RenderConsoleMessage(msg llm.Message) string {
	return renderTagged(ConsoleRole(msg.Role), msg)
}

// ConsoleRole returns the role as written in console tags.
func ConsoleRole(role llm.MessageRole) string {
	s := string(role)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func renderTagged(tag string, msg llm.Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<|%s|>\n\n", tag)
	for _, block := range msg.Content {
		sb.WriteString(block.String())
	}
	sb.WriteString("\n\n")
	return sb.String()
}

// RenderPrompt renders the conversation followed by the assistant's reply.
func RenderPrompt(msgs []llm.Message, reply string) string {
	var sb strings.Builder
	for _, msg := range msgs {
		sb.WriteString(RenderMessage(msg))
	}
	sb.WriteString(RenderMessage(llm.NewTextMessage(llm.RoleAssistant, reply)))
	return sb.String()
}

// AppendPrompt appends the rendered conversation and reply to path.
func AppendPrompt(path string, msgs []llm.Message, reply string) error {
	return appendFile(path, []byte(RenderPrompt(msgs, reply)))
}
