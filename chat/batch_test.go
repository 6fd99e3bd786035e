package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aschepis/backscratcher/chatapi/llm"
)

func TestSendAll(t *testing.T) {
	client := newTestClient(&fakeTimer{})
	defer client.Close()

	reqs := make([]*Request, 5)
	for i := range reqs {
		reqs[i] = userRequest(llm.DummyModel(), "hi")
	}

	resps, err := SendAll(context.Background(), client, reqs, 2)
	if err != nil {
		t.Fatalf("SendAll failed: %v", err)
	}
	if len(resps) != len(reqs) {
		t.Fatalf("Expected %d responses, got %d", len(reqs), len(resps))
	}
	for i, resp := range resps {
		if msg, _ := resp.Message(0); msg != "dummy" {
			t.Errorf("Response %d: expected dummy, got %q", i, msg)
		}
	}
}

func TestSendAll_FirstErrorWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(&fakeTimer{})
	defer client.Close()

	reqs := []*Request{
		userRequest(llm.DummyModel(), "a"),
		userRequest(serverModel(server.URL), "b"),
	}
	if _, err := SendAll(context.Background(), client, reqs, 0); !llm.IsRetryExhaustedError(err) {
		t.Errorf("Expected retry exhausted error, got %v", err)
	}
}
