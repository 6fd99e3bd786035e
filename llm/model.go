package llm

import (
	"os"
	"time"
)

// DefaultTimeout is used when a model config does not set api_timeout.
const DefaultTimeout = 180 * time.Second

// Model is an immutable catalog entry. Prices are integer dollars per
// 1 billion tokens so that serializing and reloading never drifts.
type Model struct {
	Name                     string
	APIName                  string
	CanReadImages            bool
	Provider                 Provider
	DollarsPer1BInputTokens  uint64
	DollarsPer1BOutputTokens uint64
	Timeout                  time.Duration
	Explanation              string
	APIKeyLiteral            string // Hard-coded key, wins over APIEnvVar
	APIEnvVar                string // Environment variable holding the key
}

// DummyModel returns the built-in model that always answers "dummy".
func DummyModel() Model {
	return Model{
		Name:     "dummy",
		Provider: TestProvider(TestDummy),
		Timeout:  DefaultTimeout,
	}
}

// StdinModel returns the built-in model that asks the operator for each answer.
func StdinModel() Model {
	return Model{
		Name:     "stdin",
		Provider: TestProvider(TestStdin),
		Timeout:  DefaultTimeout,
	}
}

// Endpoint returns the model's request URL.
func (m Model) Endpoint() string {
	return m.Provider.Endpoint()
}

// KeyLookup resolves a credential by environment variable name.
type KeyLookup interface {
	LookupKey(name string) (string, bool)
}

// EnvKeys reads credentials from the process environment.
type EnvKeys struct{}

// LookupKey implements KeyLookup.
func (EnvKeys) LookupKey(name string) (string, bool) {
	return os.LookupEnv(name)
}

// StaticKeys serves credentials from a fixed map.
type StaticKeys map[string]string

// LookupKey implements KeyLookup.
func (s StaticKeys) LookupKey(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

// APIKey resolves the credential for the model. A literal key wins, then the
// named environment variable. If neither is configured the endpoint is
// assumed not to need a key and an empty string is returned.
func (m Model) APIKey(keys KeyLookup) (string, error) {
	if m.APIKeyLiteral != "" {
		return m.APIKeyLiteral, nil
	}
	if m.APIEnvVar == "" {
		return "", nil
	}
	if keys == nil {
		keys = EnvKeys{}
	}
	key, ok := keys.LookupKey(m.APIEnvVar)
	if !ok {
		return "", NewCredentialNotFoundError(m.APIEnvVar)
	}
	return key, nil
}
