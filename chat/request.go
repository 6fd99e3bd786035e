package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aschepis/backscratcher/chatapi/llm"
)

const (
	// DefaultSchemaMaxTry bounds re-prompt cycles when SchemaMaxTry is unset.
	DefaultSchemaMaxTry = 3
	// DefaultSleepBetweenRetries is the CLI default pause between transport retries.
	DefaultSleepBetweenRetries = 5 * time.Second
)

// Request is one logical call: the conversation so far, the target model,
// sampling parameters and the execution policy around it.
type Request struct {
	Messages []llm.Message
	Model    llm.Model

	// Sampling parameters. Nil means "not supplied" and the field is left
	// out of the provider payload.
	Temperature      *float64
	MaxTokens        *int64
	FrequencyPenalty *float64

	// APIKey overrides the credential resolved from the model.
	APIKey string

	// MaxRetry is the number of retries after the first attempt.
	MaxRetry            int
	SleepBetweenRetries time.Duration
	// Timeout bounds each attempt. Zero means no bound.
	Timeout time.Duration

	// Optional side channels. Empty paths are skipped.
	DumpPromptAt  string
	DumpJSONAt    string
	RecordUsageAt string

	// Schema, when set, is used by SendAndValidate.
	Schema       *Schema
	SchemaMaxTry int
}

// NewRequest creates a request with the model's default timeout and the
// default schema budget.
func NewRequest(model llm.Model, msgs []llm.Message) *Request {
	return &Request{
		Messages:     msgs,
		Model:        model,
		Timeout:      model.Timeout,
		SchemaMaxTry: DefaultSchemaMaxTry,
	}
}

// payload builds the provider-agnostic body for this request.
func (r *Request) payload() *llm.Request {
	return &llm.Request{
		Model:            r.Model.APIName,
		Messages:         r.Messages,
		MaxTokens:        r.MaxTokens,
		Temperature:      r.Temperature,
		FrequencyPenalty: r.FrequencyPenalty,
	}
}

func (r *Request) validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("request has no messages")
	}
	if r.MaxRetry < 0 {
		return fmt.Errorf("max retry must not be negative, got %d", r.MaxRetry)
	}
	if !r.Model.CanReadImages && !r.Model.Provider.IsTest() {
		for _, msg := range r.Messages {
			if msg.HasImages() {
				return fmt.Errorf("model %s cannot read images", r.Model.Name)
			}
		}
	}
	return nil
}

// TimeoutMode selects how a Timeout resolves against a model.
type TimeoutMode int

const (
	// TimeoutModelDefault uses the model's configured timeout.
	TimeoutModelDefault TimeoutMode = iota
	// TimeoutNone disables the per-attempt bound.
	TimeoutNone
	// TimeoutFixed uses Timeout.Duration.
	TimeoutFixed
)

// Timeout is the parsed form of the CLI timeout option.
type Timeout struct {
	Mode     TimeoutMode
	Duration time.Duration
}

// ParseTimeout parses "d" (model default), "n" (no timeout) or a number of
// milliseconds.
func ParseTimeout(s string) (Timeout, error) {
	switch strings.TrimSpace(s) {
	case "d", "":
		return Timeout{Mode: TimeoutModelDefault}, nil
	case "n":
		return Timeout{Mode: TimeoutNone}, nil
	}
	ms, err := strconv.ParseUint(strings.TrimSpace(s), 10, 63)
	if err != nil {
		return Timeout{}, fmt.Errorf("invalid timeout %q: expected \"d\", \"n\" or milliseconds", s)
	}
	return Timeout{Mode: TimeoutFixed, Duration: time.Duration(ms) * time.Millisecond}, nil
}

// Resolve returns the per-attempt timeout for model. Zero means no bound.
func (t Timeout) Resolve(model llm.Model) time.Duration {
	switch t.Mode {
	case TimeoutNone:
		return 0
	case TimeoutFixed:
		return t.Duration
	default:
		return model.Timeout
	}
}

func (t Timeout) String() string {
	switch t.Mode {
	case TimeoutNone:
		return "n"
	case TimeoutFixed:
		return strconv.FormatInt(t.Duration.Milliseconds(), 10)
	default:
		return "d"
	}
}
