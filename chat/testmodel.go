package chat

import (
	"fmt"
	"io"

	"github.com/aschepis/backscratcher/chatapi/llm"
	"github.com/aschepis/backscratcher/chatapi/record"
)

// dummyReply is what the dummy model always answers.
const dummyReply = "dummy"

// sendTest answers a request bound to a test provider without any network I/O.
func (c *Client) sendTest(req *Request) (*llm.Response, error) {
	switch req.Model.Provider.Test {
	case llm.TestDummy:
		return llm.NewTextResponse(dummyReply), nil
	case llm.TestStdin:
		return c.readConsole(req.Messages)
	default:
		panic(llm.ContractViolation{Op: "sendTest", Provider: req.Model.Provider.String()})
	}
}

// readConsole prints the conversation and reads the whole of stdin as the
// assistant's reply.
func (c *Client) readConsole(msgs []llm.Message) (*llm.Response, error) {
	c.consoleMu.Lock()
	defer c.consoleMu.Unlock()

	for _, msg := range msgs {
		if _, err := io.WriteString(c.stdout, record.RenderConsoleMessage(msg)); err != nil {
			return nil, fmt.Errorf("failed to write prompt: %w", err)
		}
	}
	if _, err := fmt.Fprintf(c.stdout, "<|%s|>\n\n>>> ", record.ConsoleRole(llm.RoleAssistant)); err != nil {
		return nil, fmt.Errorf("failed to write prompt: %w", err)
	}

	reply, err := io.ReadAll(c.stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply from stdin: %w", err)
	}
	return llm.NewTextResponse(string(reply)), nil
}
