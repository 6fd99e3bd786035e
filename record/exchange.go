package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Exchange is one raw request/response pair sent to a provider.
type Exchange struct {
	ID       string          `json:"id"`
	Time     time.Time       `json:"time"`
	Model    string          `json:"model"`
	Endpoint string          `json:"endpoint"`
	Attempt  int             `json:"attempt"`
	Request  json.RawMessage `json:"request"`
	Response json.RawMessage `json:"response"`
}

// NewExchange creates an exchange record with a fresh id.
func NewExchange(model, endpoint string, attempt int, request, response []byte) Exchange {
	return Exchange{
		ID:       uuid.NewString(),
		Time:     time.Now().UTC(),
		Model:    model,
		Endpoint: endpoint,
		Attempt:  attempt,
		Request:  rawJSON(request),
		Response: rawJSON(response),
	}
}

// rawJSON keeps valid JSON as-is and quotes anything else as a string.
func rawJSON(data []byte) json.RawMessage {
	if json.Valid(data) {
		return json.RawMessage(data)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(string(data))
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// AppendExchange appends the exchange to path as one JSON line. Bodies are
// written unescaped so the dump matches what went over the wire.
func AppendExchange(path string, ex Exchange) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ex); err != nil {
		return fmt.Errorf("marshal exchange: %w", err)
	}
	return appendFile(path, buf.Bytes())
}
