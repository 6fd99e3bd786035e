// Package chat executes chat requests against the configured model catalog:
// credential resolution, payload encoding, the HTTP exchange with bounded
// retries and per-attempt timeouts, response normalization, and the
// optional side channels (prompt dump, JSON dump, usage ledger).
package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/aschepis/backscratcher/chatapi/llm"
	"github.com/aschepis/backscratcher/chatapi/record"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 512

// Client sends chat requests. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	keys       llm.KeyLookup
	logger     zerolog.Logger
	ledgers    *record.Ledgers

	// console backs the stdin test model.
	consoleMu sync.Mutex
	stdin     io.Reader
	stdout    io.Writer

	// newTimer supplies the retry sleep timer. Nil uses the real clock.
	newTimer func() backoff.Timer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithKeyLookup sets where API key environment variables are read from.
func WithKeyLookup(keys llm.KeyLookup) Option {
	return func(c *Client) { c.keys = keys }
}

// WithConsole sets the reader and writer used by the stdin test model.
func WithConsole(in io.Reader, out io.Writer) Option {
	return func(c *Client) {
		c.stdin = in
		c.stdout = out
	}
}

// WithRetryTimer sets the timer factory used to sleep between retries.
func WithRetryTimer(newTimer func() backoff.Timer) Option {
	return func(c *Client) { c.newTimer = newTimer }
}

// NewClient creates a client. Without options it reads keys from the
// process environment, uses a fresh http.Client and the process console.
func NewClient(logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		keys:       llm.EnvKeys{},
		logger:     logger.With().Str("component", "chat").Logger(),
		stdin:      os.Stdin,
		stdout:     os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ledgers = record.NewLedgers(c.logger)
	return c
}

// Close releases ledgers opened by the client.
func (c *Client) Close() error {
	return c.ledgers.Close()
}

// Send executes one logical request and returns the normalized response.
func (c *Client) Send(ctx context.Context, req *Request) (*llm.Response, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	logger := c.logger.With().Str("model", req.Model.Name).Logger()
	start := time.Now()

	var (
		resp *llm.Response
		err  error
	)
	if req.Model.Provider.IsTest() {
		resp, err = c.sendTest(req)
	} else {
		resp, err = c.sendNetwork(ctx, req, logger)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Dur("elapsed", time.Since(start)).
		Int64("input_tokens", resp.Usage.InputTokens).
		Int64("output_tokens", resp.Usage.OutputTokens).
		Msg("chat request completed")

	c.writePrompt(req, resp, logger)
	c.recordUsage(ctx, req, resp, logger)
	return resp, nil
}

// sendNetwork runs the encode, post, decode cycle under the retry policy.
// Transport failures and malformed bodies share the same budget.
func (c *Client) sendNetwork(ctx context.Context, req *Request, logger zerolog.Logger) (*llm.Response, error) {
	provider := req.Model.Provider

	apiKey := req.APIKey
	if apiKey == "" {
		key, err := req.Model.APIKey(c.keys)
		if err != nil {
			return nil, err
		}
		apiKey = key
	}

	body, err := EncodeRequest(provider, req.payload())
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := provider.Endpoint()
	maxRetry := uint64(req.MaxRetry) //nolint:gosec // validated non-negative
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(req.SleepBetweenRetries), maxRetry),
		ctx,
	)

	attempts := 0
	var resp *llm.Response
	operation := func() error {
		attempts++
		raw, err := c.post(ctx, req, endpoint, apiKey, body)
		if err != nil {
			return err
		}
		parsed, err := ParseResponse(provider, raw)
		if err != nil {
			return err
		}
		resp = parsed
		c.writeExchange(req, endpoint, attempts, body, raw, logger)
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn().
			Err(err).
			Int("attempt", attempts).
			Int("max_retry", req.MaxRetry).
			Dur("retry_in", wait).
			Msg("chat attempt failed, retrying")
	}

	var timer backoff.Timer
	if c.newTimer != nil {
		timer = c.newTimer()
	}
	if err := backoff.RetryNotifyWithTimer(operation, policy, notify, timer); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !llm.IsRetryableError(err) {
			return nil, err
		}
		logger.Error().Err(err).Int("attempts", attempts).Msg("chat request failed")
		return nil, llm.NewRetryExhaustedError(attempts, err)
	}
	return resp, nil
}

// post performs a single HTTP attempt bounded by the request timeout.
func (c *Client) post(ctx context.Context, req *Request, endpoint, apiKey string, body []byte) ([]byte, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	authorize(req.Model.Provider, httpReq.Header, apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.NewTransportError(0, "", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, llm.NewTransportError(httpResp.StatusCode, "failed to read body", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		detail := string(raw)
		if len(detail) > maxErrorBody {
			detail = detail[:maxErrorBody]
		}
		return nil, llm.NewTransportError(httpResp.StatusCode, detail, errors.New(http.StatusText(httpResp.StatusCode)))
	}
	return raw, nil
}

func (c *Client) writePrompt(req *Request, resp *llm.Response, logger zerolog.Logger) {
	if req.DumpPromptAt == "" {
		return
	}
	reply, _ := resp.Message(0)
	if err := record.AppendPrompt(req.DumpPromptAt, req.Messages, reply); err != nil {
		logger.Warn().Err(err).Str("path", req.DumpPromptAt).Msg("failed to dump prompt")
	}
}

func (c *Client) writeExchange(req *Request, endpoint string, attempt int, body, raw []byte, logger zerolog.Logger) {
	if req.DumpJSONAt == "" {
		return
	}
	ex := record.NewExchange(req.Model.Name, endpoint, attempt, body, raw)
	if err := record.AppendExchange(req.DumpJSONAt, ex); err != nil {
		logger.Warn().Err(err).Str("path", req.DumpJSONAt).Msg("failed to dump json exchange")
	}
}

func (c *Client) recordUsage(ctx context.Context, req *Request, resp *llm.Response, logger zerolog.Logger) {
	if req.RecordUsageAt == "" {
		return
	}
	ledger, err := c.ledgers.Get(req.RecordUsageAt)
	if err != nil {
		logger.Warn().Err(err).Str("path", req.RecordUsageAt).Msg("failed to open usage ledger")
		return
	}
	// The call already succeeded; a cancelled caller must not lose the record.
	if err := ledger.Append(context.WithoutCancel(ctx), record.NewUsageRecord(req.Model, resp.Usage)); err != nil {
		logger.Warn().Err(err).Str("path", req.RecordUsageAt).Msg("failed to record usage")
	}
}
