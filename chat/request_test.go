package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aschepis/backscratcher/chatapi/llm"
)

func TestParseTimeout(t *testing.T) {
	model := llm.Model{Timeout: 90 * time.Second}

	tests := []struct {
		in   string
		want time.Duration
	}{
		{"d", 90 * time.Second},
		{"", 90 * time.Second},
		{"n", 0},
		{"1500", 1500 * time.Millisecond},
		{" 0 ", 0},
	}
	for _, tt := range tests {
		timeout, err := ParseTimeout(tt.in)
		if err != nil {
			t.Errorf("ParseTimeout(%q) failed: %v", tt.in, err)
			continue
		}
		if got := timeout.Resolve(model); got != tt.want {
			t.Errorf("ParseTimeout(%q).Resolve = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"x", "-5", "1.5", "10s"} {
		if _, err := ParseTimeout(bad); err == nil {
			t.Errorf("ParseTimeout(%q): expected error", bad)
		}
	}
}

func TestTimeout_String(t *testing.T) {
	for _, in := range []string{"d", "n", "2500"} {
		timeout, err := ParseTimeout(in)
		if err != nil {
			t.Fatalf("ParseTimeout(%q) failed: %v", in, err)
		}
		if timeout.String() != in {
			t.Errorf("Expected %q, got %q", in, timeout.String())
		}
	}
}

func TestNewRequest_Defaults(t *testing.T) {
	model := llm.Model{Name: "m", Timeout: 42 * time.Second}
	req := NewRequest(model, []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")})

	if req.Timeout != 42*time.Second {
		t.Errorf("Expected model timeout, got %v", req.Timeout)
	}
	if req.SchemaMaxTry != DefaultSchemaMaxTry {
		t.Errorf("Expected default schema budget, got %d", req.SchemaMaxTry)
	}
	if req.MaxRetry != 0 {
		t.Errorf("Expected no retries by default, got %d", req.MaxRetry)
	}
	if req.Temperature != nil || req.MaxTokens != nil || req.FrequencyPenalty != nil {
		t.Error("Expected sampling parameters to be unset")
	}
}

func TestSend_RejectsInvalidRequests(t *testing.T) {
	client := newTestClient(&fakeTimer{})
	defer client.Close()

	_, err := client.Send(context.Background(), NewRequest(llm.DummyModel(), nil))
	if err == nil || !strings.Contains(err.Error(), "no messages") {
		t.Errorf("Expected no messages error, got %v", err)
	}

	req := userRequest(llm.DummyModel(), "hi")
	req.MaxRetry = -1
	if _, err := client.Send(context.Background(), req); err == nil {
		t.Error("Expected error for negative max retry")
	}
}
