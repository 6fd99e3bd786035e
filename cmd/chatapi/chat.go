package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aschepis/backscratcher/chatapi/chat"
	"github.com/aschepis/backscratcher/chatapi/config"
	"github.com/aschepis/backscratcher/chatapi/llm"
	"github.com/spf13/cobra"
)

type chatFlags struct {
	input            string
	output           string
	model            string
	apiKey           string
	temperature      float64
	maxTokens        int64
	frequencyPenalty float64
	maxRetry         int
	sleepMs          int
	timeout          string
	schema           string
	schemaMaxTry     int
	dumpPrompt       string
	dumpJSON         string
	recordUsage      string
}

func chatCmd() *cobra.Command {
	var f chatFlags

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send a conversation to a model and print the reply",
		Long: `Send a conversation to a model and print the reply.

The input is either a .json file holding [{"role": ..., "content": ...}]
or any other file whose whole content becomes one user message. Without
--input the message is read from standard input.

Examples:
  chatapi chat -i prompt.txt -m gpt-4o-mini
  chatapi chat -i convo.json -m sonnet --max-retry 3 --timeout 30000
  chatapi chat -i extract.txt --schema person.schema.json --schema-max-try 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "Input file (.json conversation or plain text)")
	flags.StringVarP(&f.output, "output", "o", "", "Write the reply to this file instead of stdout")
	flags.StringVarP(&f.model, "model", "m", "", "Model name or partial name")
	flags.StringVar(&f.apiKey, "api-key", "", "API key overriding the model's configured credential")
	flags.Float64Var(&f.temperature, "temperature", 0, "Sampling temperature")
	flags.Int64Var(&f.maxTokens, "max-tokens", 0, "Maximum tokens in the reply")
	flags.Float64Var(&f.frequencyPenalty, "frequency-penalty", 0, "Frequency penalty")
	flags.IntVar(&f.maxRetry, "max-retry", 0, "Retries after the first failed attempt")
	flags.IntVar(&f.sleepMs, "sleep-between-retries", 0, "Milliseconds to wait between retries")
	flags.StringVar(&f.timeout, "timeout", "", `Per-attempt timeout: "d" (model default), "n" (none) or milliseconds`)
	flags.StringVar(&f.schema, "schema", "", "JSON Schema file the reply must satisfy")
	flags.IntVar(&f.schemaMaxTry, "schema-max-try", 0, "Attempts before giving up on the schema")
	flags.StringVar(&f.dumpPrompt, "dump-prompt", "", "Append the rendered conversation to this file")
	flags.StringVar(&f.dumpJSON, "dump-json", "", "Append raw request/response JSON to this file")
	flags.StringVar(&f.recordUsage, "record-usage", "", "Record token usage in this ledger (.db for SQLite, else JSON lines)")

	return cmd
}

func runChat(cmd *cobra.Command, f chatFlags) error {
	catalog, err := config.LoadCatalog(cfg)
	if err != nil {
		return err
	}

	modelName := cfg.Model
	if cmd.Flags().Changed("model") {
		modelName = f.model
	}
	model, err := catalog.Resolve(modelName)
	if err != nil {
		return err
	}

	if err := checkConsoleInput(model, f.input); err != nil {
		return err
	}

	msgs, err := readConversation(f.input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	timeoutSpec := cfg.Timeout
	if cmd.Flags().Changed("timeout") {
		timeoutSpec = f.timeout
	}
	timeout, err := chat.ParseTimeout(timeoutSpec)
	if err != nil {
		return err
	}

	req := chat.NewRequest(model, msgs)
	req.APIKey = f.apiKey
	req.Timeout = timeout.Resolve(model)
	req.MaxRetry = pick(cmd, "max-retry", f.maxRetry, cfg.MaxRetry)
	req.SleepBetweenRetries = time.Duration(pick(cmd, "sleep-between-retries", f.sleepMs, cfg.SleepBetweenRetriesMs)) * time.Millisecond
	req.SchemaMaxTry = pick(cmd, "schema-max-try", f.schemaMaxTry, cfg.SchemaMaxTry)
	req.DumpPromptAt = pick(cmd, "dump-prompt", f.dumpPrompt, cfg.DumpPromptAt)
	req.DumpJSONAt = pick(cmd, "dump-json", f.dumpJSON, cfg.DumpJSONAt)
	req.RecordUsageAt = pick(cmd, "record-usage", f.recordUsage, cfg.RecordUsageAt)
	if cmd.Flags().Changed("temperature") {
		req.Temperature = &f.temperature
	}
	if cmd.Flags().Changed("max-tokens") {
		req.MaxTokens = &f.maxTokens
	}
	if cmd.Flags().Changed("frequency-penalty") {
		req.FrequencyPenalty = &f.frequencyPenalty
	}

	logger.Info().
		Str("model", model.Name).
		Str("provider", model.Provider.String()).
		Int("messages", len(msgs)).
		Int("max_retry", req.MaxRetry).
		Dur("timeout", req.Timeout).
		Msg("Sending chat request")

	client := chat.NewClient(logger, chat.WithConsole(cmd.InOrStdin(), cmd.OutOrStdout()))
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close usage ledgers")
		}
	}()

	var reply string
	if f.schema != "" {
		src, err := os.ReadFile(f.schema) //#nosec 304 -- user-selected schema file
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
		req.Schema, err = chat.CompileSchema(string(src))
		if err != nil {
			return err
		}
		raw, err := chat.SendAndValidate(cmd.Context(), client, req, json.RawMessage(nil))
		if err != nil {
			return err
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			return fmt.Errorf("failed to format reply: %w", err)
		}
		reply = pretty.String()
	} else {
		resp, err := client.Send(cmd.Context(), req)
		if err != nil {
			return err
		}
		reply, err = resp.Message(0)
		if err != nil {
			return err
		}
	}

	if f.output != "" {
		if err := os.WriteFile(f.output, []byte(reply), 0o600); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), reply)
	return err
}

// pick returns the flag value when the flag was given, else the configured one.
func pick[T any](cmd *cobra.Command, name string, flagValue, configured T) T {
	if cmd.Flags().Changed(name) {
		return flagValue
	}
	return configured
}

// checkConsoleInput rejects reading the conversation from stdin when the
// stdin model needs stdin for the reply.
func checkConsoleInput(model llm.Model, input string) error {
	if model.Provider.IsTest() && model.Provider.Test == llm.TestStdin && (input == "" || input == "-") {
		return fmt.Errorf("model %s reads the reply from stdin; pass the conversation with --input", model.Name)
	}
	return nil
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// readConversation loads the input: a .json file is a list of messages,
// anything else is one user message.
func readConversation(path string, stdin io.Reader) ([]llm.Message, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //#nosec 304 -- user-selected input file
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return []llm.Message{llm.NewTextMessage(llm.RoleUser, string(data))}, nil
	}

	var raw []inputMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	msgs := make([]llm.Message, 0, len(raw))
	for i, m := range raw {
		role, err := llm.ParseRole(m.Role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msgs = append(msgs, llm.NewTextMessage(role, m.Content))
	}
	return msgs, nil
}
