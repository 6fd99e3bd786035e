package openai

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aschepis/backscratcher/chatapi/llm"
)

func decodeBody(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("Failed to decode encoded body: %v", err)
	}
	return body
}

func TestEncodeRequest_OmitsUnsetParameters(t *testing.T) {
	data, err := EncodeRequest(&llm.Request{
		Model:    "gpt-4o-mini",
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")},
	})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	body := decodeBody(t, data)
	for _, key := range []string{"temperature", "max_tokens", "frequency_penalty"} {
		if _, ok := body[key]; ok {
			t.Errorf("Expected %s to be omitted, body: %s", key, data)
		}
	}
	if body["model"] != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini, got %v", body["model"])
	}
	msgs := body["messages"].([]any)
	first := msgs[0].(map[string]any)
	if first["role"] != "user" || first["content"] != "hello" {
		t.Errorf("Unexpected message %v", first)
	}
}

func TestEncodeRequest_KeepsZeroTemperature(t *testing.T) {
	temp := 0.0
	maxTokens := int64(64)
	data, err := EncodeRequest(&llm.Request{
		Model:       "m",
		Messages:    []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	body := decodeBody(t, data)
	if v, ok := body["temperature"]; !ok || v.(float64) != 0 {
		t.Errorf("Expected temperature 0 to be sent, body: %s", data)
	}
	if body["max_tokens"].(float64) != 64 {
		t.Errorf("Expected max_tokens 64, got %v", body["max_tokens"])
	}
}

func TestEncodeRequest_Images(t *testing.T) {
	msg := llm.Message{
		Role: llm.RoleUser,
		Content: []llm.ContentBlock{
			{Type: llm.ContentBlockTypeText, Text: "what is this?"},
			llm.NewImageBlock("image/png", []byte{1, 2, 3}),
		},
	}
	data, err := EncodeRequest(&llm.Request{Model: "gpt-4o", Messages: []llm.Message{msg}})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	body := decodeBody(t, data)
	content := body["messages"].([]any)[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("Expected 2 content parts, got %d", len(content))
	}
	image := content[1].(map[string]any)
	if image["type"] != "image_url" {
		t.Errorf("Expected image_url part, got %v", image["type"])
	}
	url := image["image_url"].(map[string]any)["url"]
	if url != "data:image/png;base64,AQID" {
		t.Errorf("Unexpected image url %v", url)
	}
}

func TestAuthorize(t *testing.T) {
	h := http.Header{}
	Authorize(h, "")
	if h.Get("Authorization") != "" {
		t.Error("Expected no Authorization header for empty key")
	}
	Authorize(h, "sk-test")
	if h.Get("Authorization") != "Bearer sk-test" {
		t.Errorf("Unexpected Authorization header %q", h.Get("Authorization"))
	}
}

func TestDecodeResponse(t *testing.T) {
	body := []byte(`{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"choices": [
			{"index": 0, "message": {"role": "assistant", "content": "Hi there"}, "finish_reason": "stop"}
		],
		"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
	}`)

	resp, err := DecodeResponse(body)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	msg, _ := resp.Message(0)
	if msg != "Hi there" {
		t.Errorf("Expected 'Hi there', got %q", msg)
	}
	if resp.Choices[0].FinishReason != "stop" {
		t.Errorf("Expected finish reason stop, got %q", resp.Choices[0].FinishReason)
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 3 {
		t.Errorf("Unexpected usage %+v", resp.Usage)
	}
}

func TestDecodeResponse_Malformed(t *testing.T) {
	bodies := map[string]string{
		"not json":      `<html>502</html>`,
		"no choices":    `{"id": "x", "usage": {}}`,
		"empty choices": `{"choices": []}`,
		"wrong shape":   `{"choices": "nope"}`,
	}
	for name, body := range bodies {
		_, err := DecodeResponse([]byte(body))
		if !llm.IsMalformedResponseError(err) {
			t.Errorf("%s: expected malformed response error, got %v", name, err)
		}
	}
}
