package cohere

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aschepis/backscratcher/chatapi/llm"
)

func TestEncodeRequest(t *testing.T) {
	penalty := 0.5
	data, err := EncodeRequest(&llm.Request{
		Model: "command-r",
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "sys"),
			llm.NewTextMessage(llm.RoleUser, "hello"),
		},
		FrequencyPenalty: &penalty,
	})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if _, ok := body["temperature"]; ok {
		t.Errorf("Expected temperature to be omitted, body: %s", data)
	}
	if body["frequency_penalty"].(float64) != 0.5 {
		t.Errorf("Expected frequency_penalty 0.5, got %v", body["frequency_penalty"])
	}
	msgs := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].(map[string]any)["role"] != "system" {
		t.Errorf("Expected system role to be kept, got %v", msgs[0])
	}
	if msgs[1].(map[string]any)["content"] != "hello" {
		t.Errorf("Expected plain string content, got %v", msgs[1])
	}
}

func TestEncodeRequest_Images(t *testing.T) {
	msg := llm.Message{
		Role:    llm.RoleUser,
		Content: []llm.ContentBlock{{Type: llm.ContentBlockTypeText, Text: "look"}, llm.NewImageBlock("image/jpeg", []byte{1, 2, 3})},
	}
	data, err := EncodeRequest(&llm.Request{Model: "command-r", Messages: []llm.Message{msg}})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	parts := body["messages"].([]any)[0].(map[string]any)["content"].([]any)
	image := parts[1].(map[string]any)
	if image["type"] != "image_url" {
		t.Errorf("Expected image_url part, got %v", image)
	}
	if image["image_url"].(map[string]any)["url"] != "data:image/jpeg;base64,AQID" {
		t.Errorf("Unexpected image url %v", image["image_url"])
	}
}

func TestAuthorize(t *testing.T) {
	h := http.Header{}
	Authorize(h, "co-key")
	if h.Get("Authorization") != "Bearer co-key" {
		t.Errorf("Unexpected Authorization header %q", h.Get("Authorization"))
	}
}

func TestDecodeResponse(t *testing.T) {
	body := []byte(`{
		"id": "c1",
		"finish_reason": "COMPLETE",
		"message": {"role": "assistant", "content": [{"type": "text", "text": "Hi"}]},
		"usage": {
			"billed_units": {"input_tokens": 3, "output_tokens": 2},
			"tokens": {"input_tokens": 10, "output_tokens": 5}
		}
	}`)

	resp, err := DecodeResponse(body)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if resp.Choices[0].Content != "Hi" {
		t.Errorf("Expected Hi, got %q", resp.Choices[0].Content)
	}
	if resp.Choices[0].FinishReason != "COMPLETE" {
		t.Errorf("Expected COMPLETE, got %q", resp.Choices[0].FinishReason)
	}
	if resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 5 {
		t.Errorf("Expected token counts from usage.tokens, got %+v", resp.Usage)
	}
}

func TestDecodeResponse_BilledUnitsFallback(t *testing.T) {
	body := []byte(`{
		"message": {"role": "assistant", "content": [{"type": "text", "text": "ok"}]},
		"usage": {"billed_units": {"input_tokens": 7, "output_tokens": 1}}
	}`)

	resp, err := DecodeResponse(body)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if resp.Usage.InputTokens != 7 || resp.Usage.OutputTokens != 1 {
		t.Errorf("Expected billed units, got %+v", resp.Usage)
	}
}

func TestDecodeResponse_Malformed(t *testing.T) {
	for _, body := range []string{`[]`, `{"text": "v1 shape"}`, `{"message": {"content": "not a list"}}`} {
		if _, err := DecodeResponse([]byte(body)); !llm.IsMalformedResponseError(err) {
			t.Errorf("Expected malformed response error for %s, got %v", body, err)
		}
	}
}
