package chat

import (
	"net/http"

	"github.com/aschepis/backscratcher/chatapi/llm"
	"github.com/aschepis/backscratcher/chatapi/llm/anthropic"
	"github.com/aschepis/backscratcher/chatapi/llm/cohere"
	"github.com/aschepis/backscratcher/chatapi/llm/openai"
)

// EncodeRequest translates the payload into the provider's wire format.
// Test bindings have no wire format; asking for one is a programming error.
func EncodeRequest(p llm.Provider, req *llm.Request) ([]byte, error) {
	switch p.Kind {
	case llm.KindOpenAI:
		return openai.EncodeRequest(req)
	case llm.KindCohere:
		return cohere.EncodeRequest(req)
	case llm.KindAnthropic:
		return anthropic.EncodeRequest(req)
	default:
		panic(llm.ContractViolation{Op: "EncodeRequest", Provider: p.String()})
	}
}

// ParseResponse decodes a raw body according to the provider's response
// schema and normalizes it. Test bindings never reach the network, so
// calling this for one panics with llm.ContractViolation.
func ParseResponse(p llm.Provider, body []byte) (*llm.Response, error) {
	switch p.Kind {
	case llm.KindOpenAI:
		return openai.DecodeResponse(body)
	case llm.KindCohere:
		return cohere.DecodeResponse(body)
	case llm.KindAnthropic:
		return anthropic.DecodeResponse(body)
	default:
		panic(llm.ContractViolation{Op: "ParseResponse", Provider: p.String()})
	}
}

// authorize attaches the credential using the provider's convention.
func authorize(p llm.Provider, h http.Header, apiKey string) {
	switch p.Kind {
	case llm.KindOpenAI:
		openai.Authorize(h, apiKey)
	case llm.KindCohere:
		cohere.Authorize(h, apiKey)
	case llm.KindAnthropic:
		anthropic.Authorize(h, apiKey)
	default:
		panic(llm.ContractViolation{Op: "authorize", Provider: p.String()})
	}
}
