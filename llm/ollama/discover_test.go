package ollama

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aschepis/backscratcher/chatapi/llm"
)

const tagsResponse = `{
	"models": [
		{
			"name": "phi4:14b",
			"model": "phi4:14b",
			"size": 9053116391,
			"digest": "abc",
			"details": {"format": "gguf", "family": "phi3", "families": ["phi3"], "parameter_size": "14.7B", "quantization_level": "Q4_K_M"}
		},
		{
			"name": "llava:latest",
			"model": "llava:latest",
			"size": 4733363377,
			"digest": "def",
			"details": {"format": "gguf", "family": "llama", "families": ["llama", "clip"], "parameter_size": "7B", "quantization_level": "Q4_0"}
		}
	]
}`

func TestDiscover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, tagsResponse)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, server.Client())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	raws, err := Discover(context.Background(), client, server.URL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("Expected 2 models, got %d", len(raws))
	}

	phi := raws[0]
	if phi.Name != "phi4-14b-ollama" || phi.APIName != "phi4:14b" {
		t.Errorf("Unexpected names %q / %q", phi.Name, phi.APIName)
	}
	if phi.APIURL != server.URL+"/v1/chat/completions" {
		t.Errorf("Unexpected endpoint %q", phi.APIURL)
	}
	if phi.CanReadImages {
		t.Error("Expected phi4 not to read images")
	}

	llava := raws[1]
	if llava.Name != "llava-ollama" {
		t.Errorf("Expected :latest to be dropped, got %q", llava.Name)
	}
	if !llava.CanReadImages {
		t.Error("Expected clip family to mark image support")
	}

	models, err := llm.ModelsFromRaw(raws)
	if err != nil {
		t.Fatalf("Discovered configs do not convert: %v", err)
	}
	if models[0].Provider.Kind != llm.KindOpenAI {
		t.Errorf("Expected OpenAI-compatible binding, got %v", models[0].Provider)
	}
}

func TestDiscover_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := Discover(context.Background(), client, server.URL); err == nil {
		t.Error("Expected error from failing server")
	}
}

func TestHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	if got := Host(""); got != DefaultHost {
		t.Errorf("Expected default host, got %s", got)
	}
	if got := Host("http://gpu-box:11434"); got != "http://gpu-box:11434" {
		t.Errorf("Expected configured host, got %s", got)
	}
	t.Setenv("OLLAMA_HOST", "http://env-host:11434")
	if got := Host("http://gpu-box:11434"); got != "http://env-host:11434" {
		t.Errorf("Expected env to win, got %s", got)
	}
}

func TestParseHost(t *testing.T) {
	u, err := parseHost("localhost:11434")
	if err != nil {
		t.Fatalf("parseHost failed: %v", err)
	}
	if u.String() != "http://localhost:11434" {
		t.Errorf("Expected scheme to be added, got %s", u)
	}
}
