package llm

import (
	"strings"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderCohere    = "cohere"
	ProviderOpenAI    = "openai"
	ProviderTest      = "test"
)

// Canonical endpoints for providers without a configurable URL.
const (
	DefaultOpenAIURL    = "https://api.openai.com/v1/chat/completions"
	DefaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	DefaultCohereURL    = "https://api.cohere.com/v2/chat"
)

// ProviderKind identifies a variant of Provider.
type ProviderKind int

const (
	KindOpenAI ProviderKind = iota + 1
	KindCohere
	KindAnthropic
	KindTest
)

// TestKind selects a network-free test double.
type TestKind int

const (
	// TestDummy always answers "dummy".
	TestDummy TestKind = iota + 1
	// TestStdin prints the conversation and reads the answer from standard input.
	TestStdin
)

func (t TestKind) String() string {
	switch t {
	case TestDummy:
		return "dummy"
	case TestStdin:
		return "stdin"
	default:
		return "unknown"
	}
}

// Provider is the closed set of provider bindings. Only the fields of the
// active Kind are meaningful: URL for KindOpenAI, Test for KindTest.
type Provider struct {
	Kind ProviderKind
	URL  string
	Test TestKind
}

// OpenAICompatible returns an OpenAI-shaped binding at the given endpoint.
func OpenAICompatible(url string) Provider {
	return Provider{Kind: KindOpenAI, URL: url}
}

// Cohere returns the Cohere binding.
func Cohere() Provider { return Provider{Kind: KindCohere} }

// Anthropic returns the Anthropic binding.
func Anthropic() Provider { return Provider{Kind: KindAnthropic} }

// TestProvider returns a network-free test binding.
func TestProvider(kind TestKind) Provider {
	return Provider{Kind: KindTest, Test: kind}
}

// ParseProvider parses a provider name. Matching ignores case, spaces and
// hyphens, so "Open AI" and "OPEN-AI" both mean openai. endpoint is only used
// by openai; an empty endpoint selects the default OpenAI URL.
func ParseProvider(name, endpoint string) (Provider, error) {
	normalized := strings.ToLower(name)
	normalized = strings.ReplaceAll(normalized, " ", "")
	normalized = strings.ReplaceAll(normalized, "-", "")

	switch normalized {
	case ProviderOpenAI:
		if endpoint == "" {
			endpoint = DefaultOpenAIURL
		}
		return OpenAICompatible(endpoint), nil
	case ProviderCohere:
		return Cohere(), nil
	case ProviderAnthropic:
		return Anthropic(), nil
	default:
		return Provider{}, NewInvalidProviderError(name)
	}
}

// Endpoint returns the URL requests are sent to. Test bindings have none.
func (p Provider) Endpoint() string {
	switch p.Kind {
	case KindOpenAI:
		return p.URL
	case KindCohere:
		return DefaultCohereURL
	case KindAnthropic:
		return DefaultAnthropicURL
	default:
		return ""
	}
}

// IsTest reports whether the binding is a network-free test double.
func (p Provider) IsTest() bool {
	return p.Kind == KindTest
}

func (p Provider) String() string {
	switch p.Kind {
	case KindOpenAI:
		return ProviderOpenAI
	case KindCohere:
		return ProviderCohere
	case KindAnthropic:
		return ProviderAnthropic
	case KindTest:
		return ProviderTest
	default:
		return "unknown"
	}
}
