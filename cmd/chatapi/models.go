package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aschepis/backscratcher/chatapi/config"
	"github.com/aschepis/backscratcher/chatapi/llm"
	"github.com/aschepis/backscratcher/chatapi/llm/ollama"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"model"},
		Short:   "Inspect and manage the model catalog",
		Long: `Inspect and manage the model catalog.

The catalog is read from $CHATAPI_MODEL_CONFIG or models_file in the
client config. Without either the built-in models are used.

Examples:
  chatapi models ls
  chatapi models show sonnet
  chatapi models init ~/.chatapi/models.yaml
  chatapi models discover-ollama -o ~/.chatapi/models.yaml`,
	}

	cmd.AddCommand(
		modelsListCmd(),
		modelsShowCmd(),
		modelsInitCmd(),
		modelsDiscoverCmd(),
	)
	return cmd
}

func modelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List models in the catalog",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := config.LoadCatalog(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range catalog.Models() {
				images := ""
				if m.CanReadImages {
					images = color.MagentaString(" [images]")
				}
				fmt.Fprintf(out, "%s %s%s\n", color.CyanString(m.Name), color.HiBlackString("(%s, %s)", m.Provider, m.APIName), images)
			}
			return nil
		},
	}
}

func modelsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one model's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := config.LoadCatalog(cfg)
			if err != nil {
				return err
			}
			m, err := catalog.Resolve(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, color.CyanString(m.Name))
			fmt.Fprintf(out, "  api name:     %s\n", m.APIName)
			fmt.Fprintf(out, "  provider:     %s\n", m.Provider)
			if endpoint := m.Endpoint(); endpoint != "" {
				fmt.Fprintf(out, "  endpoint:     %s\n", endpoint)
			}
			fmt.Fprintf(out, "  images:       %t\n", m.CanReadImages)
			fmt.Fprintf(out, "  input price:  $%.3f / 1M tokens\n", float64(m.DollarsPer1BInputTokens)/1000)
			fmt.Fprintf(out, "  output price: $%.3f / 1M tokens\n", float64(m.DollarsPer1BOutputTokens)/1000)
			fmt.Fprintf(out, "  timeout:      %s\n", m.Timeout)
			fmt.Fprintf(out, "  credential:   %s\n", credentialSource(m))
			if m.Explanation != "" {
				fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(m.Explanation))
			}
			return nil
		},
	}
}

func credentialSource(m llm.Model) string {
	switch {
	case m.APIKeyLiteral != "":
		return color.YellowString("hard-coded key")
	case m.APIEnvVar == "":
		return "none"
	default:
		if _, err := m.APIKey(llm.EnvKeys{}); err != nil {
			return fmt.Sprintf("$%s %s", m.APIEnvVar, color.RedString("(not set)"))
		}
		return fmt.Sprintf("$%s %s", m.APIEnvVar, color.GreenString("(set)"))
	}
}

func modelsInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <path>",
		Short: "Write the built-in catalog to a file (.json, .yaml or .toml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveModels(llm.DefaultModels(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %d models to %s\n", color.GreenString("✓"), len(llm.DefaultModels()), args[0])
			return nil
		},
	}
}

func modelsDiscoverCmd() *cobra.Command {
	var (
		host    string
		output  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "discover-ollama",
		Short: "List models installed on a local Ollama instance",
		Long: `List models installed on a local Ollama instance.

With --output the discovered models are appended to the current catalog
and the result is written to that file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("host") {
				host = ollama.Host(cfg.OllamaHost)
			}
			client, err := ollama.NewClient(host, nil)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			raws, err := ollama.Discover(ctx, client, host)
			if err != nil {
				return err
			}
			discovered, err := llm.ModelsFromRaw(raws)
			if err != nil {
				return err
			}
			logger.Info().Str("host", host).Int("models", len(discovered)).Msg("Discovered ollama models")

			out := cmd.OutOrStdout()
			for _, m := range discovered {
				fmt.Fprintf(out, "%s %s\n", color.CyanString(m.Name), color.HiBlackString("%s", m.Explanation))
			}
			if output == "" {
				return nil
			}

			catalog, err := config.LoadCatalog(cfg)
			if err != nil {
				return err
			}
			merged := mergeModels(catalog.Models(), discovered)
			if err := config.SaveModels(merged, output); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s wrote %d models to %s\n", color.GreenString("✓"), len(merged), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", ollama.DefaultHost, "Ollama host")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the merged catalog to this file")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Discovery timeout")
	return cmd
}

// mergeModels appends discovered models whose names are not already taken.
func mergeModels(existing, discovered []llm.Model) []llm.Model {
	taken := make(map[string]bool, len(existing))
	for _, m := range existing {
		taken[m.Name] = true
	}
	merged := append([]llm.Model(nil), existing...)
	for _, m := range discovered {
		if !taken[m.Name] {
			merged = append(merged, m)
			taken[m.Name] = true
		}
	}
	return merged
}
