package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aschepis/backscratcher/chatapi/llm"
)

// SendAndValidate sends req until the reply matches req.Schema and decodes it
// into T. sentinel only fixes the result type; on failure the zero T is
// returned with the error.
//
// Every cycle is a full Send, including its own transport retries, and counts
// against SchemaMaxTry whether it failed in transport or in validation. Other
// Send errors, such as a missing credential, are returned at once. A
// reply that fails validation is fed back to the model together with the
// validation error before the next cycle.
func SendAndValidate[T any](ctx context.Context, c *Client, req *Request, sentinel T) (T, error) {
	var zero T

	if req.Schema == nil {
		return zero, errors.New("request has no schema")
	}
	tries := req.SchemaMaxTry
	if tries <= 0 {
		tries = DefaultSchemaMaxTry
	}

	working := *req
	working.Messages = append([]llm.Message(nil), req.Messages...)

	var lastErr error
	lastWasSchema := false
	for attempt := 1; attempt <= tries; attempt++ {
		resp, err := c.Send(ctx, &working)
		if err != nil {
			// Only a failed exchange can turn out differently on the next cycle.
			if ctx.Err() != nil || !(llm.IsRetryExhaustedError(err) || llm.IsTransportError(err)) {
				return zero, err
			}
			c.logger.Warn().Err(err).Int("attempt", attempt).Int("schema_max_try", tries).Msg("send failed during schema validation")
			lastErr, lastWasSchema = err, false
			continue
		}

		reply, _ := resp.Message(0)
		out, verr := decodeValidated[T](working.Schema, reply)
		if verr == nil {
			return out, nil
		}

		c.logger.Warn().Err(verr).Int("attempt", attempt).Int("schema_max_try", tries).Msg("response did not match schema")
		lastErr, lastWasSchema = verr, true
		// OpenAI-compatible endpoints reject an assistant message without content.
		if strings.TrimSpace(reply) != "" {
			working.Messages = append(working.Messages, llm.NewTextMessage(llm.RoleAssistant, reply))
		}
		working.Messages = append(working.Messages, llm.NewTextMessage(llm.RoleUser, repromptText(verr)))
	}

	if lastWasSchema {
		return zero, llm.NewSchemaExhaustedError(tries, lastErr)
	}
	return zero, lastErr
}

func decodeValidated[T any](schema *Schema, reply string) (T, error) {
	var out T
	raw, err := schema.Validate(reply)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("response matches schema but does not decode into %T: %w", out, err)
	}
	return out, nil
}

func repromptText(err error) string {
	return fmt.Sprintf("Your response could not be accepted: %s\n\nPlease answer again with only valid JSON that matches the requested schema.", err)
}
